//go:build !nosound && ((linux && cgo) || windows || darwin)

package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

// gatedSource blocks every Fetch until release is closed, then fails it.
type gatedSource struct {
	release chan struct{}

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
}

func (s *gatedSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.inFlight++
	s.maxInFlight = max(s.maxInFlight, s.inFlight)
	s.mu.Unlock()

	<-s.release

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return nil, shared.ErrStreamFailed
}

func (s *gatedSource) stats() (calls, maxInFlight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.maxInFlight
}

func TestBeepHandleLoad(t *testing.T) {
	t.Run("concurrent plays share one load", func(t *testing.T) {
		src := &gatedSource{release: make(chan struct{})}
		e := NewEngine(src, nil).(*BeepEngine)
		h := e.NewHandle("/api/stream/s1").(*beepHandle)

		var wg sync.WaitGroup
		errs := make(chan error, 3)
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- h.ensureLoaded(context.Background())
			}()
		}

		deadline := time.Now().Add(2 * time.Second)
		for calls, _ := src.stats(); calls == 0; calls, _ = src.stats() {
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for the first fetch")
			}
			time.Sleep(2 * time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		close(src.release)
		wg.Wait()
		close(errs)

		for err := range errs {
			if !errors.Is(err, shared.ErrStreamFailed) {
				t.Errorf("ensureLoaded() error = %v, want ErrStreamFailed", err)
			}
		}
		if _, peak := src.stats(); peak != 1 {
			t.Errorf("concurrent fetches = %d, want 1", peak)
		}
	})

	t.Run("closed handles do not load", func(t *testing.T) {
		src := &gatedSource{release: make(chan struct{})}
		close(src.release)
		e := NewEngine(src, nil).(*BeepEngine)
		h := e.NewHandle("/api/stream/s1").(*beepHandle)

		if err := h.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := h.ensureLoaded(context.Background()); !errors.Is(err, shared.ErrHandleClosed) {
			t.Errorf("ensureLoaded() error = %v, want ErrHandleClosed", err)
		}
		if calls, _ := src.stats(); calls != 0 {
			t.Errorf("fetches = %d, want 0", calls)
		}
	})
}
