package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/ytplay/internal/audio"
	"github.com/desertthunder/ytplay/internal/events"
	"github.com/desertthunder/ytplay/internal/shared"
)

// FakeEngine is an in-memory [audio.Engine].
//
// With Gated set, every handle's Play blocks until [FakeHandle.Resolve] is called.
// Otherwise Play returns Failures[src] immediately.
type FakeEngine struct {
	Gated    bool
	Failures map[string]error

	mu       sync.Mutex
	handles  []*FakeHandle
	registry *audio.Registry
	suspends int
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Failures: make(map[string]error), registry: audio.NewRegistry()}
}

func (e *FakeEngine) NewHandle(src string) audio.Handle {
	h := &FakeHandle{
		src:    src,
		engine: e,
		bus:    events.New(nil),
		volume: 1,
		paused: true,
	}
	if e.Gated {
		h.gate = make(chan error, 1)
	}

	e.mu.Lock()
	e.handles = append(e.handles, h)
	e.mu.Unlock()
	e.registry.Add(h)
	return h
}

func (e *FakeEngine) PauseAll() { e.registry.PauseAll() }

func (e *FakeEngine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suspends++
	return nil
}

// Handles returns every handle created so far, in order.
func (e *FakeEngine) Handles() []*FakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*FakeHandle(nil), e.handles...)
}

// Last returns the most recently created handle, or nil.
func (e *FakeEngine) Last() *FakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

// Playing counts handles, closed or not, that are not paused.
func (e *FakeEngine) Playing() int {
	n := 0
	for _, h := range e.Handles() {
		if !h.Paused() {
			n++
		}
	}
	return n
}

func (e *FakeEngine) Suspends() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suspends
}

// FakeHandle is the [audio.Handle] produced by [FakeEngine].
type FakeHandle struct {
	src    string
	engine *FakeEngine
	bus    *events.Bus
	gate   chan error

	mu       sync.Mutex
	paused   bool
	closed   bool
	position float64
	duration float64
	volume   float64
	plays    int
}

func (h *FakeHandle) Src() string         { return h.src }
func (h *FakeHandle) Events() *events.Bus { return h.bus }

func (h *FakeHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	h.plays++
	if h.closed {
		h.mu.Unlock()
		return shared.ErrHandleClosed
	}
	h.mu.Unlock()

	var err error
	if h.gate != nil {
		select {
		case err = <-h.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		h.engine.mu.Lock()
		err = h.engine.Failures[h.src]
		h.engine.mu.Unlock()
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return shared.ErrHandleClosed
	}
	wasPaused := h.paused
	h.paused = false
	h.mu.Unlock()

	if wasPaused {
		h.bus.Emit(audio.EventPlay, nil)
	}
	return nil
}

// Resolve completes a gated Play with err.
func (h *FakeHandle) Resolve(err error) {
	h.gate <- err
}

func (h *FakeHandle) Pause() {
	h.mu.Lock()
	wasPaused := h.paused
	h.paused = true
	h.mu.Unlock()
	if !wasPaused {
		h.bus.Emit(audio.EventPause, nil)
	}
}

func (h *FakeHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *FakeHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *FakeHandle) SetCurrentTime(seconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = seconds
}

func (h *FakeHandle) Duration() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}

// SetDuration sets what Duration reports.
func (h *FakeHandle) SetDuration(seconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.duration = seconds
}

func (h *FakeHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *FakeHandle) SetVolume(v float64) {
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	h.bus.Emit(audio.EventVolumeChange, v)
}

func (h *FakeHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.paused = true
	h.mu.Unlock()
	h.engine.registry.Remove(h)
	return nil
}

func (h *FakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *FakeHandle) Plays() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plays
}

// Fire emits an engine event on the handle as if the engine produced it.
func (h *FakeHandle) Fire(event string, payload any) {
	if event == audio.EventEnded {
		h.mu.Lock()
		h.paused = true
		h.mu.Unlock()
	}
	h.bus.Emit(event, payload)
}
