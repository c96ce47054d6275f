// Package audio is the playback engine behind the player: one [Handle] per stream URL,
// exposing the same property and event surface as a browser media element.
//
// Handles emit, on their own [events.Bus]:
//   - [EventPlay] / [EventPause] : payload nil
//   - [EventEnded] : payload nil, emitted when the stream is exhausted
//   - [EventError] : payload error, for failures after playback started
//   - [EventTimeUpdate] : payload [TimeUpdate]
//   - [EventVolumeChange] : payload float64
package audio

import (
	"context"
	"sync"

	"github.com/desertthunder/ytplay/internal/events"
)

const (
	EventPlay         = "play"
	EventPause        = "pause"
	EventEnded        = "ended"
	EventError        = "error"
	EventTimeUpdate   = "timeupdate"
	EventVolumeChange = "volumechange"
)

// TimeUpdate is the payload of [EventTimeUpdate], in seconds.
type TimeUpdate struct {
	Position float64
	Duration float64
}

// Handle is one loaded stream.
//
// Play fetches and decodes lazily on first call and blocks until output has started or failed.
// Start failures are returned from Play only; [EventError] is reserved for failures afterwards.
type Handle interface {
	Src() string
	Play(ctx context.Context) error
	Pause()
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64
	Volume() float64
	SetVolume(v float64)
	Events() *events.Bus
	Close() error
}

// Engine creates handles and controls all of them at once.
type Engine interface {
	NewHandle(src string) Handle
	// PauseAll pauses every live handle, including ones nobody holds a reference to anymore.
	PauseAll()
	// Suspend releases the output device until the next Play.
	Suspend() error
}

// Registry tracks the live handles of an engine.
type Registry struct {
	mu      sync.Mutex
	handles map[Handle]struct{}
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[Handle]struct{})}
}

func (r *Registry) Add(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h] = struct{}{}
}

func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, h)
}

// Live returns a snapshot of the registered handles.
func (r *Registry) Live() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := make([]Handle, 0, len(r.handles))
	for h := range r.handles {
		live = append(live, h)
	}
	return live
}

// PauseAll pauses every registered handle that is not already paused.
func (r *Registry) PauseAll() {
	for _, h := range r.Live() {
		if !h.Paused() {
			h.Pause()
		}
	}
}

// Playing counts registered handles that are not paused.
func (r *Registry) Playing() int {
	n := 0
	for _, h := range r.Live() {
		if !h.Paused() {
			n++
		}
	}
	return n
}
