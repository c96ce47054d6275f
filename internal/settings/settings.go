// Package settings coordinates user and session preferences and keeps the playlist/song
// fields mirrored into the page URL.
//
// Values are layered at construction: hard-coded defaults, then whatever the store holds,
// then the URL query string. The URL wins.
package settings

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/state"
)

// StorageKey is the key settings are persisted under.
const StorageKey = "app-settings"

const defaultSidePanelWidth = 350

// AppSettings holds every preference field. Empty IDs mean "none".
type AppSettings struct {
	RepeatMode       models.RepeatMode `json:"repeatMode"`
	ActivePlaylistID string            `json:"activePlaylistId"`
	ActiveSongID     string            `json:"activeSongId"`
	ActiveTab        models.Tab        `json:"activeTab"`
	SidePanelWidth   int               `json:"sidePanelWidth"`
}

// Defaults returns the hard-coded starting values.
func Defaults() AppSettings {
	return AppSettings{
		RepeatMode:     models.RepeatNone,
		ActiveTab:      models.TabInfo,
		SidePanelWidth: defaultSidePanelWidth,
	}
}

// Patch is a partial update of [AppSettings]. A non-nil field is part of the change, even when it points at "".
type Patch struct {
	RepeatMode     *models.RepeatMode
	Playlist       *string
	Song           *string
	ActiveTab      *models.Tab
	SidePanelWidth *int
}

// Apply merges p over s.
func (p Patch) Apply(s AppSettings) AppSettings {
	if p.RepeatMode != nil {
		s.RepeatMode = *p.RepeatMode
	}
	if p.Playlist != nil {
		s.ActivePlaylistID = *p.Playlist
	}
	if p.Song != nil {
		s.ActiveSongID = *p.Song
	}
	if p.ActiveTab != nil {
		s.ActiveTab = *p.ActiveTab
	}
	if p.SidePanelWidth != nil {
		s.SidePanelWidth = *p.SidePanelWidth
	}
	return s
}

// touchesLocation reports whether the patch carries a URL-mirrored field.
func (p Patch) touchesLocation() bool {
	return p.Playlist != nil || p.Song != nil
}

// Whole returns a patch carrying every field of s.
func Whole(s AppSettings) Patch {
	return Patch{
		RepeatMode:     &s.RepeatMode,
		Playlist:       &s.ActivePlaylistID,
		Song:           &s.ActiveSongID,
		ActiveTab:      &s.ActiveTab,
		SidePanelWidth: &s.SidePanelWidth,
	}
}

// sanitize falls back to initial for any persisted field that is out of range.
func sanitize(loaded, initial AppSettings) AppSettings {
	if !loaded.RepeatMode.Valid() {
		loaded.RepeatMode = initial.RepeatMode
	}
	if !loaded.ActiveTab.Valid() {
		loaded.ActiveTab = initial.ActiveTab
	}
	if loaded.SidePanelWidth <= 0 {
		loaded.SidePanelWidth = initial.SidePanelWidth
	}
	return loaded
}

// Change is the payload delivered to [Coordinator.Subscribe] handlers.
type Change = state.Change[AppSettings, Patch]

// Options configures a [Coordinator].
type Options struct {
	Store    state.Store
	Location Location
	Logger   *log.Logger
}

// Coordinator owns the one [AppSettings] value of a session.
type Coordinator struct {
	state    *state.Container[AppSettings, Patch]
	location Location
	logger   *log.Logger
	stop     context.CancelFunc
}

// New builds the coordinator: defaults, overlaid by the store, overlaid by the URL.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	loc := opts.Location
	if loc == nil {
		loc, _ = NewURLLocation("/")
	}

	c := &Coordinator{
		location: loc,
		logger:   logger,
		state: state.New(Defaults(), state.Options[AppSettings, Patch]{
			Key:      StorageKey,
			Store:    opts.Store,
			Whole:    Whole,
			Sanitize: sanitize,
			Logger:   logger,
		}),
	}

	var fromURL Patch
	if v := loc.Query(ParamPlaylist); v != "" {
		fromURL.Playlist = &v
	}
	if v := loc.Query(ParamSong); v != "" {
		fromURL.Song = &v
	}
	if fromURL.touchesLocation() {
		c.SetState(fromURL)
	}

	return c
}

// State returns a copy of the current settings.
func (c *Coordinator) State() AppSettings {
	return c.state.State()
}

// SetState merges p, emits, persists, then rewrites the URL if p carries playlist or song.
func (c *Coordinator) SetState(p Patch) {
	c.state.SetState(p)
	if p.touchesLocation() {
		c.syncLocation(p)
	}
}

func (c *Coordinator) syncLocation(p Patch) {
	mirror := func(key string, v *string) {
		if v == nil {
			return
		}
		if *v != "" {
			c.location.SetQuery(key, *v)
		} else {
			c.location.DelQuery(key)
		}
	}
	mirror(ParamPlaylist, p.Playlist)
	mirror(ParamSong, p.Song)
	c.logger.Debug("location updated", "url", c.location.String())
}

// Subscribe registers fn for every settings change.
func (c *Coordinator) Subscribe(fn func(Change)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

func (c *Coordinator) SetRepeatMode(m models.RepeatMode) {
	c.SetState(Patch{RepeatMode: &m})
}

func (c *Coordinator) SetActiveTab(t models.Tab) {
	c.SetState(Patch{ActiveTab: &t})
}

func (c *Coordinator) SetSidebarSplit(width int) {
	c.SetState(Patch{SidePanelWidth: &width})
}

// SetCurrentPlaylist sets the active playlist; "" clears it and drops the URL parameter.
func (c *Coordinator) SetCurrentPlaylist(id string) {
	c.SetState(Patch{Playlist: &id})
}

// SetCurrentSong sets the active song; "" clears it and drops the URL parameter.
func (c *Coordinator) SetCurrentSong(id string) {
	c.SetState(Patch{Song: &id})
}

// RepeatMode returns the current repeat mode.
func (c *Coordinator) RepeatMode() models.RepeatMode {
	return c.State().RepeatMode
}

// CycleRepeatMode advances none → one → all → none and returns the new mode.
func (c *Coordinator) CycleRepeatMode() models.RepeatMode {
	next := c.RepeatMode().Next()
	c.SetRepeatMode(next)
	return next
}

// Reset restores the defaults. The URL is left as is: callers that want it cleared
// must also call SetCurrentPlaylist("") and SetCurrentSong("").
func (c *Coordinator) Reset() {
	c.state.ReplaceState(Defaults())
}

// Location returns the URL collaborator.
func (c *Coordinator) Location() Location {
	return c.location
}

// Save persists the current settings.
func (c *Coordinator) Save() {
	c.state.Save()
}

// StartAutosave saves every interval until ctx is done or [Coordinator.Close] is called.
func (c *Coordinator) StartAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	if c.stop != nil {
		c.stop()
	}
	c.stop = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Save()
			}
		}
	}()
}

// Close stops autosave and writes a final snapshot.
func (c *Coordinator) Close() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.Save()
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
