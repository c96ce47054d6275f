//go:build nosound || !((linux && cgo) || windows || darwin)

package audio

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/events"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Available reports whether this build can produce sound. Linux output needs cgo, and the
// nosound tag turns it off everywhere.
const Available = false

// silentEngine hands out handles that refuse to play.
type silentEngine struct {
	logger   *log.Logger
	registry *Registry
}

// NewEngine returns an engine whose handles fail Play with [shared.ErrAudioUnavailable].
func NewEngine(_ Source, logger *log.Logger) Engine {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &silentEngine{logger: logger, registry: NewRegistry()}
}

func (e *silentEngine) NewHandle(src string) Handle {
	h := &silentHandle{src: src, bus: events.New(e.logger), volume: 1, registry: e.registry}
	e.registry.Add(h)
	return h
}

func (e *silentEngine) PauseAll()      { e.registry.PauseAll() }
func (e *silentEngine) Suspend() error { return nil }

type silentHandle struct {
	src      string
	bus      *events.Bus
	registry *Registry

	mu     sync.Mutex
	volume float64
}

func (h *silentHandle) Src() string         { return h.src }
func (h *silentHandle) Events() *events.Bus { return h.bus }

func (h *silentHandle) Play(context.Context) error { return shared.ErrAudioUnavailable }

func (h *silentHandle) Pause()                 {}
func (h *silentHandle) Paused() bool           { return true }
func (h *silentHandle) CurrentTime() float64   { return 0 }
func (h *silentHandle) SetCurrentTime(float64) {}
func (h *silentHandle) Duration() float64      { return 0 }

func (h *silentHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *silentHandle) SetVolume(v float64) {
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	h.bus.Emit(EventVolumeChange, v)
}

func (h *silentHandle) Close() error {
	h.registry.Remove(h)
	return nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
