package settings

import (
	"fmt"
	"net/url"
	"sync"
)

// Query parameters mirrored from settings.
const (
	ParamPlaylist = "playlist"
	ParamSong     = "song"
)

// Location is the page URL the coordinator keeps its playlist/song fields mirrored into.
//
// Writes rewrite the query string in place; nothing navigates or reloads.
type Location interface {
	Query(key string) string
	SetQuery(key, value string)
	DelQuery(key string)
	String() string
}

// URLLocation is an in-process [Location] over a [url.URL].
type URLLocation struct {
	mu sync.Mutex
	u  *url.URL
}

// NewURLLocation parses raw. An empty raw yields "/".
func NewURLLocation(raw string) (*URLLocation, error) {
	if raw == "" {
		raw = "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	return &URLLocation{u: u}, nil
}

func (l *URLLocation) Query(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.Query().Get(key)
}

func (l *URLLocation) SetQuery(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.u.Query()
	q.Set(key, value)
	l.u.RawQuery = q.Encode()
}

func (l *URLLocation) DelQuery(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.u.Query()
	q.Del(key)
	l.u.RawQuery = q.Encode()
}

func (l *URLLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.String()
}
