// package models defines the data model for the player core
package models

import (
	"fmt"
	"time"
)

// Track is one playable song.
type Track struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	PrimaryArtistName string `json:"primaryArtistName"`
	AlbumName         string `json:"albumName"`
	DurationLabel     string `json:"durationLabel"`
	ThumbnailURL      string `json:"thumbnailUrl,omitempty"`
}

// Label renders "Artist - Title", or just the title when the artist is unknown.
func (t Track) Label() string {
	if t.PrimaryArtistName == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.PrimaryArtistName, t.Title)
}

// Playlist is a playlist with its ordered tracks.
type Playlist struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	TrackCount  int     `json:"trackCount"`
	Tracks      []Track `json:"tracks,omitempty"`
}

// RepeatMode controls end-of-track and end-of-playlist behavior.
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatOne  RepeatMode = "one"
	RepeatAll  RepeatMode = "all"
)

// Next rotates none → one → all → none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}

// Valid reports whether m is one of the known modes.
func (m RepeatMode) Valid() bool {
	return m == RepeatNone || m == RepeatOne || m == RepeatAll
}

// Tab is the active side-panel tab.
type Tab string

const (
	TabInfo   Tab = "info"
	TabLyrics Tab = "lyrics"
)

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool {
	return t == TabInfo || t == TabLyrics
}

// HistoryEntry is one recorded play.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	Track      Track     `json:"track"`
	PlaylistID string    `json:"playlistId,omitempty"`
	PlayedAt   time.Time `json:"playedAt"`
}
