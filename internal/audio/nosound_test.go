//go:build nosound || !((linux && cgo) || windows || darwin)

package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/ytplay/internal/shared"
)

func TestSilentEngine(t *testing.T) {
	if Available {
		t.Fatal("silent build reports sound as available")
	}

	e := NewEngine(nil, nil)
	h := e.NewHandle("/api/stream/s1")
	if err := h.Play(context.Background()); !errors.Is(err, shared.ErrAudioUnavailable) {
		t.Errorf("Play() error = %v, want ErrAudioUnavailable", err)
	}

	h.SetVolume(0.5)
	if got := h.Volume(); got != 0.5 {
		t.Errorf("Volume() = %v, want 0.5", got)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
