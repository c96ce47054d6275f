// Package app is the composition root: it builds each coordinator of a session exactly once and wires
// the reactions between them.
//
//   - Play (first start of a track) → settings.SetCurrentSong and a history record
//   - PlaybackError → an error notification
//   - settings autosave on the configured interval
//
// Clients (the HTTP controller, the terminal player) receive the [App] and never construct coordinators.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/audio"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/notify"
	"github.com/desertthunder/ytplay/internal/playback"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/server"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/settings"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/storage"
	"github.com/samber/lo"
)

// AppName labels desktop notifications.
const AppName = "ytplay"

// Options overrides the collaborators [New] would otherwise build from Config.
type Options struct {
	Config *shared.Config
	Logger *log.Logger
	// URL seeds the in-process location (e.g. "/?playlist=PL1&song=abc").
	URL string
	// DB replaces the database opened from Config.Database. It must already be migrated.
	DB      *sql.DB
	Catalog services.Catalog
	Engine  audio.Engine
	// Renderers receive notifications in addition to the log renderer.
	Renderers []notify.Renderer
}

// headerSource is a catalog whose stream requests need extra headers, such as [services.ProxyClient].
type headerSource interface {
	Header() http.Header
}

// App holds one session's coordinators.
type App struct {
	Config        *shared.Config
	Logger        *log.Logger
	Catalog       services.Catalog
	Settings      *settings.Coordinator
	Playback      *playback.Coordinator
	Notifications *notify.Broadcaster
	History       *repositories.HistoryRepository
	Controls      *playback.ActionRouter

	db      *sql.DB
	ownsDB  bool
	store   storage.Store
	cancel  context.CancelFunc
	unwires []func()
}

// New builds the session. Close releases everything New opened.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	a := &App{Config: cfg, Logger: logger, db: opts.DB}

	if a.db == nil {
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db, a.ownsDB = db, true
	}

	store, err := storage.Open(cfg.Storage, a.db)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.store = store

	loc, err := settings.NewURLLocation(opts.URL)
	if err != nil {
		a.closeStore()
		a.closeDB()
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	a.Settings = settings.New(settings.Options{
		Store:    store,
		Location: loc,
		Logger:   shared.WithLogger(logger, "component", "settings"),
	})

	a.Catalog = opts.Catalog
	if a.Catalog == nil {
		a.Catalog = services.NewProxyClient(cfg.Proxy, nil, shared.WithLogger(logger, "component", "proxy"))
	}

	engine := opts.Engine
	if engine == nil {
		var header http.Header
		if h, ok := a.Catalog.(headerSource); ok {
			header = h.Header()
		}
		engine = audio.NewEngine(audio.NewHTTPSource(nil, header), shared.WithLogger(logger, "component", "audio"))
	}

	a.Playback = playback.New(engine, playback.Options{
		StreamURL:          a.Catalog.StreamURL,
		Repeat:             a.Settings,
		RecoveryDelay:      cfg.Playback.RecoveryDelay(),
		AutoAdvanceOnError: cfg.Playback.AutoAdvanceOnError,
		Logger:             shared.WithLogger(logger, "component", "playback"),
	})
	a.Playback.SetVolume(cfg.Playback.Volume)

	renderers := notify.Renderers{notify.LogRenderer{Logger: shared.WithLogger(logger, "component", "notify")}}
	if cfg.Notifications.Desktop {
		renderers = append(renderers, notify.NewDesktopRenderer(AppName, logger))
	}
	renderers = append(renderers, opts.Renderers...)
	a.Notifications = notify.New(renderers, notify.Options{
		DefaultDuration: cfg.Notifications.Duration(),
		Logger:          logger,
	})

	a.History = repositories.NewHistoryRepository(a.db)

	a.Controls = playback.NewActionRouter()
	playback.RegisterMediaSession(a.Controls, a.Playback)

	a.wire()

	autosaveCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if interval := cfg.Settings.AutosaveInterval(); interval > 0 {
		a.Settings.StartAutosave(autosaveCtx, interval)
	}

	return a, nil
}

func (a *App) wire() {
	playID := a.Playback.On(playback.EventPlay, func(payload any) {
		ev, ok := payload.(playback.TrackEvent)
		if !ok {
			return
		}
		a.Settings.SetCurrentSong(ev.Song.ID)
		if !ev.Started {
			return
		}
		if _, err := a.History.Record(ev.Song, a.Settings.State().ActivePlaylistID); err != nil {
			a.Logger.Warn("failed to record play", "id", ev.Song.ID, "error", err)
		}
	})

	errID := a.Playback.On(playback.EventPlaybackError, func(payload any) {
		ev, ok := payload.(playback.ErrorEvent)
		if !ok {
			return
		}
		title := lo.CoalesceOrEmpty(ev.Song.Label(), ev.Song.ID)
		a.Notifications.Error("Playback error", fmt.Sprintf("Could not play %s: %v", title, ev.Err))
	})

	a.unwires = append(a.unwires,
		func() { a.Playback.Off(playback.EventPlay, playID) },
		func() { a.Playback.Off(playback.EventPlaybackError, errID) },
	)
}

// LoadPlaylist fetches a playlist, makes it the playback queue and the active playlist setting.
func (a *App) LoadPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	playlist, err := a.Catalog.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Playback.SetPlaylistSongs(playlist.Tracks)
	a.Settings.SetCurrentPlaylist(playlist.ID)
	return playlist, nil
}

// PlayIndex plays the queue entry at index.
func (a *App) PlayIndex(ctx context.Context, index int) error {
	songs := a.Playback.State().Playlist
	if index < 0 || index >= len(songs) {
		return fmt.Errorf("%w: index %d outside playlist of %d", shared.ErrInvalidArgument, index, len(songs))
	}
	return a.Playback.PlayTrack(ctx, songs[index], index)
}

// Restore reloads the active playlist from settings and plays the active song if it is in it.
// It returns (false, nil) when there is nothing to restore.
func (a *App) Restore(ctx context.Context) (bool, error) {
	s := a.Settings.State()
	if s.ActivePlaylistID == "" {
		return false, nil
	}

	playlist, err := a.LoadPlaylist(ctx, s.ActivePlaylistID)
	if err != nil {
		return false, err
	}
	if s.ActiveSongID == "" {
		return false, nil
	}

	_, index, found := lo.FindIndexOf(playlist.Tracks, func(t models.Track) bool { return t.ID == s.ActiveSongID })
	if !found {
		a.Logger.Warn("active song not in playlist", "song", s.ActiveSongID, "playlist", playlist.ID)
		return false, nil
	}
	return true, a.PlayIndex(ctx, index)
}

// Session implements [server.SessionSource].
func (a *App) Session() server.Session {
	return server.Session{
		Settings: a.Settings.State(),
		Playback: a.Playback.State().Snapshot(),
		URL:      a.Settings.Location().String(),
	}
}

// Handler is the HTTP controller bound to this session.
func (a *App) Handler() http.Handler {
	return server.NewRouter(server.APIOptions{
		Catalog:       a.Catalog,
		Session:       a,
		Controls:      a.Controls,
		Notifications: a.Notifications,
		Logger:        shared.WithLogger(a.Logger, "component", "http"),
	})
}

// Close stops playback, clears notifications, saves settings and releases storage.
func (a *App) Close() error {
	for _, fn := range a.unwires {
		fn()
	}
	a.unwires = nil

	a.Playback.Close()
	a.Notifications.Clear()
	a.Settings.Close()
	if a.cancel != nil {
		a.cancel()
	}

	return errors.Join(a.closeStore(), a.closeDB())
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) closeDB() error {
	if !a.ownsDB || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
