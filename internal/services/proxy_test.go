package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

func newTestProxy(t *testing.T, handler http.HandlerFunc) *ProxyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProxyClient(shared.ProxyConfig{BaseURL: server.URL, HeadersPath: "/path/to/auth.json"}, server.Client(), nil)
}

func TestProxyClient(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults base URL", func(t *testing.T) {
		p := NewProxyClient(shared.ProxyConfig{}, nil, nil)
		if p.baseURL != defaultProxyBaseURL {
			t.Errorf("expected baseURL %s, got %s", defaultProxyBaseURL, p.baseURL)
		}
		if got := p.StreamURL("a b"); got != defaultProxyBaseURL+"/api/stream/a%20b" {
			t.Errorf("unexpected stream URL %s", got)
		}
	})

	t.Run("Search", func(t *testing.T) {
		p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search" {
				t.Errorf("expected path /api/search, got %s", r.URL.Path)
			}
			if q := r.URL.Query(); q.Get("q") != "daft punk" || q.Get("filter") != "songs" {
				t.Errorf("unexpected query %v", q)
			}
			if r.Header.Get(AuthHeader) != "/path/to/auth.json" {
				t.Error("expected X-Auth-File header")
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{
					"videoId":  "vid1",
					"title":    "One More Time",
					"artists":  []map[string]any{{"name": "Daft Punk"}},
					"album":    map[string]any{"name": "Discovery"},
					"duration": "5:20",
					"thumbnails": []map[string]any{
						{"url": "small.jpg", "width": 60},
						{"url": "large.jpg", "width": 544},
					},
				},
				{"title": "Daft Punk", "browseId": "artist"},
				{"videoId": "vid2", "title": "Aerodynamic", "duration_seconds": 212},
			})
		})

		tracks, err := p.Search(ctx, "daft punk", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 playable tracks, got %d", len(tracks))
		}
		first := tracks[0]
		if first.ID != "vid1" || first.PrimaryArtistName != "Daft Punk" || first.AlbumName != "Discovery" {
			t.Errorf("unexpected first track %+v", first)
		}
		if first.ThumbnailURL != "large.jpg" {
			t.Errorf("expected largest thumbnail, got %s", first.ThumbnailURL)
		}
		if tracks[1].DurationLabel != "3:32" {
			t.Errorf("expected label from seconds 3:32, got %s", tracks[1].DurationLabel)
		}
	})

	t.Run("Search rejects empty query", func(t *testing.T) {
		p := NewProxyClient(shared.ProxyConfig{}, nil, nil)
		if _, err := p.Search(ctx, "", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/playlists/PL123":
				json.NewEncoder(w).Encode(map[string]any{
					"id":    "PL123",
					"title": "Road Trip",
					"tracks": []map[string]any{
						{"videoId": "a", "title": "A"},
						{"videoId": "b", "title": "B"},
					},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail":"Playlist not found"}`))
			}
		})

		pl, err := p.GetPlaylist(ctx, "PL123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.Title != "Road Trip" || len(pl.Tracks) != 2 || pl.TrackCount != 2 {
			t.Errorf("unexpected playlist %+v", pl)
		}

		if _, err := p.GetPlaylist(ctx, "missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("LibraryPlaylists", func(t *testing.T) {
		p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]any{
				{"playlistId": "PL1", "title": "Liked", "count": 10},
				{"playlistId": "PL2", "title": "Mix", "count": 5},
			})
		})

		pls, err := p.LibraryPlaylists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(pls) != 2 || pls[0].ID != "PL1" || pls[1].TrackCount != 5 {
			t.Errorf("unexpected playlists %+v", pls)
		}
	})

	t.Run("status errors wrap ErrAPIRequest", func(t *testing.T) {
		p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"upstream exploded"}`))
		})

		_, err := p.LibraryPlaylists(ctx)
		var se *StatusError
		if !errors.As(err, &se) || se.Detail != "upstream exploded" {
			t.Fatalf("expected StatusError with detail, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("OpenStream", func(t *testing.T) {
		p := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/stream/ok" {
				w.Header().Set("Content-Type", "audio/mpeg")
				w.Write([]byte("ID3"))
				return
			}
			w.WriteHeader(http.StatusForbidden)
		})

		s, err := p.OpenStream(ctx, "ok")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer s.Body.Close()
		body, _ := io.ReadAll(s.Body)
		if string(body) != "ID3" || s.ContentType != "audio/mpeg" {
			t.Errorf("unexpected stream %q %s", body, s.ContentType)
		}

		if _, err := p.OpenStream(ctx, "blocked"); !errors.Is(err, shared.ErrStreamFailed) {
			t.Errorf("expected ErrStreamFailed, got %v", err)
		}
	})

	t.Run("rate limit spaces requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}))
		defer server.Close()
		p := NewProxyClient(shared.ProxyConfig{BaseURL: server.URL, RateLimit: 20}, server.Client(), nil)

		start := time.Now()
		for range 3 {
			if _, err := p.LibraryPlaylists(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
			t.Errorf("expected limiter to space requests, took %v", elapsed)
		}
	})

	t.Run("unreachable proxy is ErrServiceUnavailable", func(t *testing.T) {
		p := NewProxyClient(shared.ProxyConfig{BaseURL: "http://127.0.0.1:1"}, nil, nil)
		if _, err := p.LibraryPlaylists(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
