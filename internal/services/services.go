// package services defines the clients for the FastAPI proxy wrapping ytmusicapi
package services

import (
	"context"
	"io"

	"github.com/desertthunder/ytplay/internal/models"
)

// AuthHeader carries the path of the proxy's credentials file (browser.json or oauth.json).
const AuthHeader = "X-Auth-File"

// Catalog is what the player needs from the proxy.
type Catalog interface {
	// Search returns playable results; filter defaults to "songs".
	Search(ctx context.Context, query, filter string) ([]models.Track, error)

	// GetPlaylist retrieves a playlist with its tracks.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// LibraryPlaylists lists the authenticated user's playlists, without tracks.
	LibraryPlaylists(ctx context.Context) ([]models.Playlist, error)

	// StreamURL is the URL audio for trackID is served from.
	StreamURL(trackID string) string

	// OpenStream starts the audio byte stream for trackID. Callers close Body.
	OpenStream(ctx context.Context, trackID string) (*Stream, error)
}

// Stream is an open audio response.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}
