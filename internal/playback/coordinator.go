// Package playback owns the single active audio handle, the playlist and the transport controls.
//
// Every mutation is published through one state container before any blocking call, so readers
// observing a Play event or a state change always see the intended track. A play request that
// was overtaken by a newer one is detected when it resolves and leaves state untouched.
//
// Domain events (see events.go) are emitted with no coordinator lock held, so handlers may call
// back into the coordinator. [Coordinator.Subscribe] handlers run while the transition is being
// applied and must only read.
package playback

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/audio"
	"github.com/desertthunder/ytplay/internal/events"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/state"
	"github.com/samber/lo"
)

// DefaultRecoveryDelay is how long auto-advance waits after a playback error.
const DefaultRecoveryDelay = 3 * time.Second

// RepeatModeSource reports the repeat mode; the settings coordinator implements it.
type RepeatModeSource interface {
	RepeatMode() models.RepeatMode
}

// Options configures a [Coordinator].
type Options struct {
	// StreamURL maps a track id to the URL handed to the engine. Defaults to /api/stream/{id}.
	StreamURL          func(trackID string) string
	Repeat             RepeatModeSource
	RecoveryDelay      time.Duration
	AutoAdvanceOnError bool
	Logger             *log.Logger
}

// Coordinator drives one [audio.Engine].
type Coordinator struct {
	engine    audio.Engine
	streamURL func(string) string
	repeat    RepeatModeSource
	delay     time.Duration
	logger    *log.Logger
	bus       *events.Bus
	state     *state.Container[State, Patch]

	mu          sync.Mutex
	announced   audio.Handle
	starting    audio.Handle
	recovery    *time.Timer
	recoveryGen uint64
}

func New(engine audio.Engine, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	streamURL := opts.StreamURL
	if streamURL == nil {
		streamURL = func(id string) string { return "/api/stream/" + url.PathEscape(id) }
	}
	delay := opts.RecoveryDelay
	if delay <= 0 {
		delay = DefaultRecoveryDelay
	}

	initial := initialState()
	initial.AutoAdvanceOnError = opts.AutoAdvanceOnError

	return &Coordinator{
		engine:    engine,
		streamURL: streamURL,
		repeat:    opts.Repeat,
		delay:     delay,
		logger:    logger,
		bus:       events.New(logger),
		state:     state.New(initial, state.Options[State, Patch]{Whole: Whole, Logger: logger}),
	}
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	return c.state.State()
}

// Subscribe registers fn for every state transition.
func (c *Coordinator) Subscribe(fn func(Change)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

// On registers fn for a domain event.
func (c *Coordinator) On(event string, fn events.Handler) events.ListenerID {
	return c.bus.On(event, fn)
}

func (c *Coordinator) Off(event string, id events.ListenerID) {
	c.bus.Off(event, id)
}

func (c *Coordinator) repeatMode() models.RepeatMode {
	if c.repeat == nil {
		return models.RepeatNone
	}
	return c.repeat.RepeatMode()
}

// PlayTrack tears down whatever is playing, loads track and blocks until playback has
// started or failed. index is the track's position in the playlist, or -1.
//
// It returns [shared.ErrSuperseded] when another play request took over while this one was
// loading; the state then belongs to the newer request.
func (c *Coordinator) PlayTrack(ctx context.Context, track models.Track, index int) error {
	c.mu.Lock()
	c.teardownLocked()
	c.cancelRecoveryLocked()

	st := c.state.State()
	if index < -1 || index >= len(st.Playlist) {
		c.logger.Debug("index outside playlist, treating as standalone", "track", track.ID, "index", index)
		index = -1
	}

	h := c.engine.NewHandle(c.streamURL(track.ID))
	h.SetVolume(st.Volume)
	c.attach(h, track)
	c.starting = h
	c.state.SetState(Patch{CurrentTrack: &track, CurrentIndex: &index, Handle: &h})
	c.mu.Unlock()

	c.logger.Info("loading track", "id", track.ID, "title", track.Title, "index", index)
	return c.await(ctx, h, track)
}

// await blocks on h.Play and applies the outcome if h is still the active handle. The caller
// marks h as starting.
func (c *Coordinator) await(ctx context.Context, h audio.Handle, track models.Track) error {
	err := h.Play(ctx)

	c.mu.Lock()
	if c.starting == h {
		c.starting = nil
	}
	if !c.activeLocked(h) {
		c.mu.Unlock()
		h.Pause()
		c.logger.Debug("discarding superseded play", "track", track.ID, "error", err)
		return shared.ErrSuperseded
	}
	if err != nil {
		ev := c.failLocked(h, track, err)
		c.mu.Unlock()
		c.bus.Emit(EventPlaybackError, ev)
		return fmt.Errorf("play %s: %w", track.ID, err)
	}
	ev, ok := c.markPlayingLocked(h, track)
	c.mu.Unlock()

	if ok {
		c.bus.Emit(EventPlay, ev)
	}
	return nil
}

func (c *Coordinator) activeLocked(h audio.Handle) bool {
	return h != nil && c.state.State().Handle == h
}

func (c *Coordinator) markPlayingLocked(h audio.Handle, track models.Track) (TrackEvent, bool) {
	if c.state.State().IsPlaying {
		return TrackEvent{}, false
	}
	c.state.SetState(Patch{IsPlaying: lo.ToPtr(true)})
	started := c.announced != h
	c.announced = h
	return TrackEvent{Song: track, Started: started}, true
}

// failLocked releases a handle that can no longer play. The track and index stay so that
// Play retries it and Next advances from it.
func (c *Coordinator) failLocked(h audio.Handle, track models.Track, err error) ErrorEvent {
	c.logger.Error("playback failed", "track", track.ID, "error", err)
	c.release(h)
	var none audio.Handle
	c.state.SetState(Patch{Handle: &none, IsPlaying: lo.ToPtr(false)})
	c.armRecoveryLocked()
	return ErrorEvent{Err: err, Song: track}
}

// release detaches h from the coordinator and silences it.
func (c *Coordinator) release(h audio.Handle) {
	h.Events().RemoveAllListeners()
	h.Pause()
	h.SetCurrentTime(0)
	if err := h.Close(); err != nil {
		c.logger.Warn("failed to close audio handle", "src", h.Src(), "error", err)
	}
}

// teardownLocked stops the active handle and every other live handle, then clears the
// transport fields in one transition.
func (c *Coordinator) teardownLocked() {
	st := c.state.State()
	if st.Handle != nil {
		c.release(st.Handle)
	}
	c.engine.PauseAll()
	if err := c.engine.Suspend(); err != nil {
		c.logger.Debug("audio suspend failed", "error", err)
	}

	var none audio.Handle
	c.announced = nil
	c.starting = nil
	c.state.SetState(Patch{
		Handle:       &none,
		CurrentTrack: &models.Track{},
		IsPlaying:    lo.ToPtr(false),
		Position:     lo.ToPtr(0.0),
		Duration:     lo.ToPtr(0.0),
	})
}

// attach wires the engine events of h. Listeners are removed by release.
func (c *Coordinator) attach(h audio.Handle, track models.Track) {
	bus := h.Events()
	bus.On(audio.EventPlay, func(any) { c.onPlay(h, track) })
	bus.On(audio.EventPause, func(any) { c.onPause(h, track) })
	bus.On(audio.EventEnded, func(any) { c.onEnded(h, track) })
	bus.On(audio.EventError, func(payload any) { c.onError(h, track, payload) })
	bus.On(audio.EventTimeUpdate, func(payload any) { c.onTimeUpdate(h, payload) })
	bus.On(audio.EventVolumeChange, func(payload any) { c.onVolumeChange(h, payload) })
}

func (c *Coordinator) onPlay(h audio.Handle, track models.Track) {
	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	ev, ok := c.markPlayingLocked(h, track)
	c.mu.Unlock()
	if ok {
		c.bus.Emit(EventPlay, ev)
	}
}

func (c *Coordinator) onPause(h audio.Handle, track models.Track) {
	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	c.state.SetState(Patch{IsPlaying: lo.ToPtr(false)})
	c.mu.Unlock()
	c.bus.Emit(EventPause, TrackEvent{Song: track})
}

func (c *Coordinator) onEnded(h audio.Handle, track models.Track) {
	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	c.state.SetState(Patch{IsPlaying: lo.ToPtr(false)})
	st := c.state.State()
	mode := c.repeatMode()
	c.mu.Unlock()

	c.bus.Emit(EventSongEnd, TrackEvent{Song: track})

	var err error
	switch {
	case mode == models.RepeatAll && len(st.Playlist) > 0:
		err = c.Next(context.Background())
	case mode == models.RepeatOne:
		err = c.replay(h, track)
	}
	if err != nil {
		c.logger.Warn("auto-advance failed", "after", track.ID, "error", err)
	}
}

// replay rewinds h and plays it again. The track keeps its handle, so the resulting
// [EventPlay] is not a fresh start.
func (c *Coordinator) replay(h audio.Handle, track models.Track) error {
	c.mu.Lock()
	if !c.activeLocked(h) || c.starting == h {
		c.mu.Unlock()
		return nil
	}
	c.starting = h
	c.state.SetState(Patch{Position: lo.ToPtr(0.0)})
	c.mu.Unlock()

	h.SetCurrentTime(0)
	return c.await(context.Background(), h, track)
}

func (c *Coordinator) onError(h audio.Handle, track models.Track, payload any) {
	err, ok := payload.(error)
	if !ok {
		err = fmt.Errorf("%w: %v", shared.ErrStreamFailed, payload)
	}

	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	ev := c.failLocked(h, track, err)
	c.mu.Unlock()
	c.bus.Emit(EventPlaybackError, ev)
}

func (c *Coordinator) onTimeUpdate(h audio.Handle, payload any) {
	update, ok := payload.(audio.TimeUpdate)
	if !ok {
		return
	}
	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	c.state.SetState(Patch{Position: &update.Position, Duration: &update.Duration})
	c.mu.Unlock()
	c.bus.Emit(EventTimeUpdate, TimeEvent(update))
}

func (c *Coordinator) onVolumeChange(h audio.Handle, payload any) {
	v, ok := payload.(float64)
	if !ok {
		return
	}
	c.mu.Lock()
	if !c.activeLocked(h) {
		c.mu.Unlock()
		return
	}
	c.state.SetState(Patch{Volume: &v})
	c.mu.Unlock()
	c.bus.Emit(EventVolumeChange, VolumeEvent{Volume: v})
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Coordinator) TogglePlay(ctx context.Context) error {
	if c.State().IsPlaying {
		c.Pause()
		return nil
	}
	return c.Play(ctx)
}

// Play resumes the loaded track. With nothing loaded it starts playlist[CurrentIndex], or the
// last track that failed, and returns [shared.ErrNothingToPlay] when neither exists. While the
// loaded track is still starting it returns nil and leaves that start to finish.
func (c *Coordinator) Play(ctx context.Context) error {
	c.mu.Lock()
	c.cancelRecoveryLocked()
	st := c.state.State()
	if st.IsPlaying || (st.Handle != nil && c.starting == st.Handle) {
		c.mu.Unlock()
		return nil
	}
	if st.Handle != nil {
		c.starting = st.Handle
	}
	c.mu.Unlock()

	if st.Handle == nil {
		switch {
		case st.CurrentIndex >= 0 && st.CurrentIndex < len(st.Playlist):
			return c.PlayTrack(ctx, st.Playlist[st.CurrentIndex], st.CurrentIndex)
		case st.HasTrack():
			return c.PlayTrack(ctx, st.CurrentTrack, -1)
		default:
			return shared.ErrNothingToPlay
		}
	}
	return c.await(ctx, st.Handle, st.CurrentTrack)
}

// Pause is a no-op unless something is playing.
func (c *Coordinator) Pause() {
	st := c.State()
	if !st.IsPlaying || st.Handle == nil {
		return
	}
	st.Handle.Pause()

	// Engines that pause silently still leave the state consistent.
	c.mu.Lock()
	if !c.activeLocked(st.Handle) || !c.state.State().IsPlaying {
		c.mu.Unlock()
		return
	}
	c.state.SetState(Patch{IsPlaying: lo.ToPtr(false)})
	c.mu.Unlock()
	c.bus.Emit(EventPause, TrackEvent{Song: st.CurrentTrack})
}

// Stop tears everything down and emits [EventStop].
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.cancelRecoveryLocked()
	c.teardownLocked()
	c.mu.Unlock()

	c.logger.Info("playback stopped")
	c.bus.Emit(EventStop, nil)
}

// Close releases the engine without emitting.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRecoveryLocked()
	c.teardownLocked()
}

func (c *Coordinator) Next(ctx context.Context) error     { return c.step(ctx, 1) }
func (c *Coordinator) Previous(ctx context.Context) error { return c.step(ctx, -1) }

// step plays CurrentIndex+delta. Past either end it wraps on repeat all and otherwise does nothing.
func (c *Coordinator) step(ctx context.Context, delta int) error {
	st := c.State()
	n := len(st.Playlist)
	if n == 0 {
		c.logger.Debug("no playlist to step through")
		return nil
	}

	i := st.CurrentIndex + delta
	if i < 0 || i >= n {
		if c.repeatMode() != models.RepeatAll {
			c.logger.Info("reached end of playlist", "index", st.CurrentIndex, "direction", delta)
			return nil
		}
		i = lo.Ternary(delta > 0, 0, n-1)
	}
	return c.PlayTrack(ctx, st.Playlist[i], i)
}

// SetVolume clamps v to [0,1] and applies it to the active handle. NaN is ignored.
func (c *Coordinator) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = lo.Clamp(v, 0, 1)

	c.mu.Lock()
	c.state.SetState(Patch{Volume: &v})
	h := c.state.State().Handle
	c.mu.Unlock()

	if h != nil {
		h.SetVolume(v)
	}
}

// Seek clamps position to [0, duration]. NaN or no loaded track is a no-op.
func (c *Coordinator) Seek(position float64) {
	if math.IsNaN(position) {
		return
	}

	c.mu.Lock()
	h := c.state.State().Handle
	if h == nil {
		c.mu.Unlock()
		return
	}
	duration := h.Duration()
	position = lo.Clamp(position, 0, math.Max(duration, 0))
	h.SetCurrentTime(position)
	c.state.SetState(Patch{Position: &position})
	c.mu.Unlock()

	c.bus.Emit(EventTimeUpdate, TimeEvent{Position: position, Duration: duration})
}

// SetPlaylistSongs replaces the playlist. CurrentIndex is left as is.
func (c *Coordinator) SetPlaylistSongs(songs []models.Track) {
	songs = append([]models.Track{}, songs...)

	c.mu.Lock()
	c.state.SetState(Patch{Playlist: &songs})
	c.mu.Unlock()

	c.bus.Emit(EventPlaylistChange, PlaylistEvent{Songs: songs})
}

// SetAutoAdvanceOnError toggles auto-skip. Disabling it cancels a pending recovery.
func (c *Coordinator) SetAutoAdvanceOnError(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetState(Patch{AutoAdvanceOnError: &enabled})
	if !enabled {
		c.cancelRecoveryLocked()
	}
}

// armRecoveryLocked schedules Next after the recovery delay, replacing any pending timer.
func (c *Coordinator) armRecoveryLocked() {
	st := c.state.State()
	if !st.AutoAdvanceOnError || len(st.Playlist) == 0 {
		return
	}
	c.cancelRecoveryLocked()

	c.recoveryGen++
	gen := c.recoveryGen
	c.recovery = time.AfterFunc(c.delay, func() { c.recover(gen) })
	c.state.SetState(Patch{RecoveryPending: lo.ToPtr(true)})
	c.logger.Info("scheduled auto-advance", "delay", c.delay)
}

func (c *Coordinator) cancelRecoveryLocked() {
	if c.recovery == nil {
		return
	}
	c.recovery.Stop()
	c.recovery = nil
	c.recoveryGen++
	c.state.SetState(Patch{RecoveryPending: lo.ToPtr(false)})
}

func (c *Coordinator) recover(gen uint64) {
	c.mu.Lock()
	if gen != c.recoveryGen {
		c.mu.Unlock()
		return
	}
	c.recovery = nil
	c.state.SetState(Patch{RecoveryPending: lo.ToPtr(false)})
	c.mu.Unlock()

	if err := c.Next(context.Background()); err != nil {
		c.logger.Warn("auto-advance after error failed", "error", err)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
