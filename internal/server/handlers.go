package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/notify"
	"github.com/desertthunder/ytplay/internal/playback"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/settings"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Session is the combined view served by GET /api/session.
type Session struct {
	Settings settings.AppSettings `json:"settings"`
	Playback playback.Snapshot    `json:"playback"`
	URL      string               `json:"url"`
}

// SessionSource produces the current [Session].
type SessionSource interface {
	Session() Session
}

// Controls dispatches media actions. Implemented by [playback.ActionRouter].
type Controls interface {
	Dispatch(ctx context.Context, action playback.MediaAction, details playback.ActionDetails) error
}

// NotificationLister lists live notifications. Implemented by [notify.Broadcaster].
type NotificationLister interface {
	List() []notify.Notification
}

// APIOptions holds the collaborators behind the JSON routes. Nil collaborators leave their routes unregistered.
type APIOptions struct {
	Catalog       services.Catalog
	Session       SessionSource
	Controls      Controls
	Notifications NotificationLister
	Logger        *log.Logger
}

// API is the JSON controller over the proxy and the player core.
type API struct {
	catalog       services.Catalog
	session       SessionSource
	controls      Controls
	notifications NotificationLister
	logger        *log.Logger
}

func NewAPI(opts APIOptions) *API {
	if opts.Logger == nil {
		opts.Logger = log.New(nopWriter{})
	}
	return &API{
		catalog:       opts.Catalog,
		session:       opts.Session,
		controls:      opts.Controls,
		notifications: opts.Notifications,
		logger:        opts.Logger,
	}
}

// Register mounts every route the configured collaborators support.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))

	if a.catalog != nil {
		r.Handle(http.MethodGet, "/api/search", http.HandlerFunc(a.search))
		r.Handle(http.MethodGet, "/api/playlists/{id}", http.HandlerFunc(a.playlist))
		r.Handle(http.MethodGet, "/api/library/playlists", http.HandlerFunc(a.libraryPlaylists))
		r.Handler(&StreamHandler{catalog: a.catalog, logger: a.logger})
	}
	if a.session != nil {
		r.Handle(http.MethodGet, "/api/session", http.HandlerFunc(a.sessionState))
	}
	if a.controls != nil {
		r.Handle(http.MethodPost, "/api/control/{action}", http.HandlerFunc(a.control))
	}
	if a.notifications != nil {
		r.Handle(http.MethodGet, "/api/notifications", http.HandlerFunc(a.listNotifications))
	}
}

// NewRouter builds a [BasicRouter] with logging and panic recovery and the API mounted.
func NewRouter(opts APIOptions) *BasicRouter {
	api := NewAPI(opts)
	router := NewBasicRouter()
	router.Use(RequestLogger(api.logger), Recoverer(api.logger))
	api.Register(router)
	return router
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	tracks, err := a.catalog.Search(r.Context(), query, r.URL.Query().Get("filter"))
	if err != nil {
		a.fail(w, "search failed", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": tracks})
}

func (a *API) playlist(w http.ResponseWriter, r *http.Request) {
	playlist, err := a.catalog.GetPlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, "playlist lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *API) libraryPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.catalog.LibraryPlaylists(r.Context())
	if err != nil {
		a.fail(w, "library lookup failed", err)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (a *API) sessionState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Session())
}

// control accepts an optional JSON body {"seekTime": n}; seekto also reads ?seekTime=.
func (a *API) control(w http.ResponseWriter, r *http.Request) {
	action := playback.MediaAction(r.PathValue("action"))

	var details playback.ActionDetails
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&details); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if raw := r.URL.Query().Get("seekTime"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "seekTime must be a number")
			return
		}
		details.SeekTime = v
	}

	// A superseded play lost to a newer request; the session already shows the winner.
	err := a.controls.Dispatch(r.Context(), action, details)
	if errors.Is(err, shared.ErrSuperseded) {
		a.logger.Debug("control action superseded", "action", action)
	} else if err != nil {
		a.fail(w, "control action failed", err)
		return
	}

	if a.session != nil {
		writeJSON(w, http.StatusOK, a.session.Session())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.notifications.List())
}

func (a *API) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(msg, "error", err)
	} else {
		a.logger.Warn(msg, "error", err)
	}
	writeError(w, status, err.Error())
}

// StreamHandler proxies audio bytes from the upstream stream endpoint.
type StreamHandler struct {
	catalog services.Catalog
	logger  *log.Logger
}

func (h *StreamHandler) Routes() []string {
	return []string{"/api/stream/{id}"}
}

// ServeHTTP copies the upstream body through unchanged. An upstream failure becomes 502.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.PathValue("id")
	stream, err := h.catalog.OpenStream(r.Context(), id)
	if err != nil {
		h.logger.Error("stream failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer stream.Body.Close()

	if stream.ContentType != "" {
		w.Header().Set("Content-Type", stream.ContentType)
	}
	if stream.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, stream.Body); err != nil {
		h.logger.Warn("stream copy interrupted", "id", id, "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrTrackNotFound),
		errors.Is(err, shared.ErrUnknownMediaEvent):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNothingToPlay):
		return http.StatusConflict
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrStreamFailed):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrAudioUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
