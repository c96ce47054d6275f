// YouTube Music proxy [Catalog] implementation
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const defaultProxyBaseURL string = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
}

// Track converts the proxy shape to [models.Track].
func (y YouTubeTrack) Track() models.Track {
	t := models.Track{
		ID:            y.VideoID,
		Title:         y.Title,
		DurationLabel: y.Duration,
	}
	if t.DurationLabel == "" && y.DurationSec > 0 {
		t.DurationLabel = shared.FormatDuration(y.DurationSec)
	}
	if len(y.Artists) > 0 {
		t.PrimaryArtistName = y.Artists[0].Name
	}
	if y.Album != nil {
		t.AlbumName = y.Album.Name
	}
	if len(y.Thumbnails) > 0 {
		t.ThumbnailURL = lo.MaxBy(y.Thumbnails, func(a, b YouTubeImage) bool { return a.Width > b.Width }).URL
	}
	return t
}

// YouTubePlaylist represents a playlist from YouTube Music.
type YouTubePlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YouTubeTrack `json:"tracks,omitempty"`
}

// ProxyClient implements [Catalog] against the proxy. Requests are rate limited.
type ProxyClient struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewProxyClient builds a client from cfg. A rate limit of 0 disables limiting.
func NewProxyClient(cfg shared.ProxyConfig, client *http.Client, logger *log.Logger) *ProxyClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(nopWriter{})
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &ProxyClient{
		baseURL:    baseURL,
		authFile:   cfg.HeadersPath,
		httpClient: client,
		limiter:    limiter,
		logger:     logger,
	}
}

// Header returns the headers every proxy request carries.
func (p *ProxyClient) Header() http.Header {
	h := http.Header{}
	if p.authFile != "" {
		h.Set(AuthHeader, p.authFile)
	}
	return h
}

func (p *ProxyClient) send(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = p.Header()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	p.logger.Debug("proxy request", "endpoint", endpoint, "status", resp.StatusCode)
	return resp, nil
}

func (p *ProxyClient) getJSON(ctx context.Context, endpoint string, result any) error {
	resp, err := p.send(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return &StatusError{Code: resp.StatusCode, Detail: errResp.Detail}
		}
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Search calls GET /api/search?q={query}&filter={filter}. Results without a video id are dropped.
func (p *ProxyClient) Search(ctx context.Context, query, filter string) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	if filter == "" {
		filter = "songs"
	}

	params := url.Values{"q": {query}, "filter": {filter}}
	var results []YouTubeTrack
	if err := p.getJSON(ctx, "/api/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	playable := lo.Filter(results, func(r YouTubeTrack, _ int) bool { return r.VideoID != "" })
	return lo.Map(playable, func(r YouTubeTrack, _ int) models.Track { return r.Track() }), nil
}

// GetPlaylist calls GET /api/playlists/{id}.
func (p *ProxyClient) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var yp YouTubePlaylist
	err := p.getJSON(ctx, "/api/playlists/"+url.PathEscape(playlistID), &yp)
	if se := (*StatusError)(nil); errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, err
	}

	tracks := lo.Map(yp.Tracks, func(t YouTubeTrack, _ int) models.Track { return t.Track() })
	count := yp.TrackCount
	if count == 0 {
		count = len(tracks)
	}
	return &models.Playlist{
		ID:          lo.CoalesceOrEmpty(yp.ID, playlistID),
		Title:       yp.Title,
		Description: yp.Description,
		TrackCount:  count,
		Tracks:      tracks,
	}, nil
}

type libraryPlaylist struct {
	PlaylistID  string `json:"playlistId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// LibraryPlaylists calls GET /api/library/playlists.
func (p *ProxyClient) LibraryPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var items []libraryPlaylist
	if err := p.getJSON(ctx, "/api/library/playlists", &items); err != nil {
		return nil, err
	}

	return lo.Map(items, func(it libraryPlaylist, _ int) models.Playlist {
		return models.Playlist{ID: it.PlaylistID, Title: it.Title, Description: it.Description, TrackCount: it.Count}
	}), nil
}

func (p *ProxyClient) StreamURL(trackID string) string {
	return p.baseURL + "/api/stream/" + url.PathEscape(trackID)
}

// OpenStream calls GET /api/stream/{id}. A non-2xx response is [shared.ErrStreamFailed].
func (p *ProxyClient) OpenStream(ctx context.Context, trackID string) (*Stream, error) {
	resp, err := p.send(ctx, "/api/stream/"+url.PathEscape(trackID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrStreamFailed, trackID, &StatusError{Code: resp.StatusCode})
	}
	return &Stream{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// StatusError is a non-2xx proxy response.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("proxy error (status %d): %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("proxy error: status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
