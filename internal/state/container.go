// Package state holds a single typed value behind change notification and optional durable persistence.
//
// A [Container] is parameterised over a state struct S and a patch type P. Patches carry pointer fields:
// a nil field is "not part of this change", a non-nil field replaces the corresponding state field
// wholesale. Every emitted [Change] satisfies New == Changes.Apply(Old).
package state

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/events"
)

// StateChanged is the event name a [Container] emits after every mutation.
const StateChanged = "StateChanged"

// Patch is a partial update of S.
type Patch[S any] interface {
	Apply(S) S
}

// Store is the durable key-value string store a container mirrors itself into.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Change is the payload of [StateChanged].
type Change[S any, P Patch[S]] struct {
	Old     S
	New     S
	Changes P
}

// Options configures a [Container].
type Options[S any, P Patch[S]] struct {
	// Key enables persistence when set together with Store.
	Key   string
	Store Store
	// Whole builds the patch reported by ReplaceState, with every field present.
	Whole func(S) P
	// Sanitize repairs a freshly loaded value field by field, falling back to initial.
	Sanitize func(loaded, initial S) S
	Logger   *log.Logger
	Bus      *events.Bus
}

// Container mediates all reads and writes of one S value.
type Container[S any, P Patch[S]] struct {
	mu        sync.Mutex
	persistMu sync.Mutex
	state     S
	opts      Options[S, P]
	bus       *events.Bus
	logger    *log.Logger
}

// New creates a container holding initial, overlaid by any value persisted under opts.Key.
//
// Missing or malformed persisted data is logged and ignored.
func New[S any, P Patch[S]](initial S, opts Options[S, P]) *Container[S, P] {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.New(logger)
	}

	c := &Container[S, P]{
		state:  initial,
		opts:   opts,
		bus:    bus,
		logger: logger,
	}
	c.state = c.load(initial)
	return c
}

func (c *Container[S, P]) persistent() bool {
	return c.opts.Key != "" && c.opts.Store != nil
}

func (c *Container[S, P]) load(initial S) S {
	if !c.persistent() {
		return initial
	}

	raw, ok, err := c.opts.Store.Get(c.opts.Key)
	if err != nil {
		c.logger.Warn("failed to read persisted state", "key", c.opts.Key, "error", err)
		return initial
	}
	if !ok || raw == "" {
		return initial
	}

	// A mistyped field is skipped by the decoder and keeps its initial value; the others still load.
	loaded := initial
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			c.logger.Warn("ignoring malformed persisted state", "key", c.opts.Key, "error", err)
			return initial
		}
		c.logger.Warn("ignoring mistyped persisted field", "key", c.opts.Key, "field", typeErr.Field, "error", err)
	}

	if c.opts.Sanitize != nil {
		loaded = c.opts.Sanitize(loaded, initial)
	}
	return loaded
}

// State returns a copy of the current value.
func (c *Container[S, P]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState merges p over the current value, emits [StateChanged], then persists.
func (c *Container[S, P]) SetState(p P) Change[S, P] {
	c.mu.Lock()
	old := c.state
	c.state = p.Apply(old)
	change := Change[S, P]{Old: old, New: c.state, Changes: p}
	c.mu.Unlock()

	c.bus.Emit(StateChanged, change)
	c.Save()
	return change
}

// ReplaceState swaps in s wholesale. The emitted Changes carries every field.
func (c *Container[S, P]) ReplaceState(s S) Change[S, P] {
	var whole P
	if c.opts.Whole != nil {
		whole = c.opts.Whole(s)
	}

	c.mu.Lock()
	old := c.state
	c.state = s
	change := Change[S, P]{Old: old, New: s, Changes: whole}
	c.mu.Unlock()

	c.bus.Emit(StateChanged, change)
	c.Save()
	return change
}

// Subscribe registers fn for [StateChanged] and returns a function that unregisters it.
func (c *Container[S, P]) Subscribe(fn func(Change[S, P])) (unsubscribe func()) {
	id := c.bus.On(StateChanged, func(payload any) {
		if change, ok := payload.(Change[S, P]); ok {
			fn(change)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() { c.bus.Off(StateChanged, id) })
	}
}

// Save writes the current value to the store. Failures are logged, never returned.
func (c *Container[S, P]) Save() {
	if !c.persistent() {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	data, err := json.Marshal(c.State())
	if err != nil {
		c.logger.Error("failed to serialize state", "key", c.opts.Key, "error", err)
		return
	}
	if err := c.opts.Store.Set(c.opts.Key, string(data)); err != nil {
		c.logger.Error("failed to persist state", "key", c.opts.Key, "error", err)
	}
}

// Clear removes the persisted copy without touching the in-memory value.
func (c *Container[S, P]) Clear() {
	if !c.persistent() {
		return
	}
	if err := c.opts.Store.Remove(c.opts.Key); err != nil {
		c.logger.Error("failed to remove persisted state", "key", c.opts.Key, "error", err)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
