package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ytplay/internal/shared"
)

// MediaAction names a system media-key action.
type MediaAction string

const (
	ActionPlay     MediaAction = "play"
	ActionPause    MediaAction = "pause"
	ActionPrevious MediaAction = "previoustrack"
	ActionNext     MediaAction = "nexttrack"
	ActionSeekTo   MediaAction = "seekto"
	ActionStop     MediaAction = "stop"
)

// ActionDetails carries action arguments. SeekTime is in seconds and only used by seekto.
type ActionDetails struct {
	SeekTime float64 `json:"seekTime"`
}

type ActionHandler func(ctx context.Context, details ActionDetails) error

// MediaSession is a system media-key integration.
type MediaSession interface {
	SetActionHandler(action MediaAction, handler ActionHandler)
}

// RegisterMediaSession forwards media-key actions to c. A nil session does nothing.
func RegisterMediaSession(session MediaSession, c *Coordinator) {
	if session == nil || c == nil {
		return
	}

	session.SetActionHandler(ActionPlay, func(ctx context.Context, _ ActionDetails) error {
		return c.Play(ctx)
	})
	session.SetActionHandler(ActionPause, func(context.Context, ActionDetails) error {
		c.Pause()
		return nil
	})
	session.SetActionHandler(ActionPrevious, func(ctx context.Context, _ ActionDetails) error {
		return c.Previous(ctx)
	})
	session.SetActionHandler(ActionNext, func(ctx context.Context, _ ActionDetails) error {
		return c.Next(ctx)
	})
	session.SetActionHandler(ActionSeekTo, func(_ context.Context, d ActionDetails) error {
		c.Seek(d.SeekTime)
		return nil
	})
	session.SetActionHandler(ActionStop, func(context.Context, ActionDetails) error {
		c.Stop()
		return nil
	})
}

// ActionRouter is an in-process [MediaSession] that the HTTP control endpoint and the
// terminal player dispatch into.
type ActionRouter struct {
	mu       sync.RWMutex
	handlers map[MediaAction]ActionHandler
}

func NewActionRouter() *ActionRouter {
	return &ActionRouter{handlers: make(map[MediaAction]ActionHandler)}
}

func (r *ActionRouter) SetActionHandler(action MediaAction, handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handler == nil {
		delete(r.handlers, action)
		return
	}
	r.handlers[action] = handler
}

// Dispatch runs the handler bound to action.
func (r *ActionRouter) Dispatch(ctx context.Context, action MediaAction, details ActionDetails) error {
	r.mu.RLock()
	handler, ok := r.handlers[action]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", shared.ErrUnknownMediaEvent, action)
	}
	return handler(ctx, details)
}

// Actions lists the bound actions.
func (r *ActionRouter) Actions() []MediaAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actions := make([]MediaAction, 0, len(r.handlers))
	for a := range r.handlers {
		actions = append(actions, a)
	}
	return actions
}
