package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ytplay/internal/shared"
)

// Source fetches the bytes behind a stream URL.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPSource fetches streams with GET. Any non-2xx status is a playback error.
type HTTPSource struct {
	Client *http.Client
	Header http.Header
}

func NewHTTPSource(client *http.Client, header http.Header) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{Client: client, Header: header}
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamFailed, err)
	}
	for k, vs := range s.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrStreamFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", shared.ErrStreamFailed, err)
	}
	return data, nil
}
