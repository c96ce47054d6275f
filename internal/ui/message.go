package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/notify"
)

var (
	_ tea.Msg = playlistsFetchedMsg{}
	_ tea.Msg = playbackMsg{}
)

// playlistsFetchedMsg carries the library listing.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// playlistLoadedMsg carries a playlist that is now the playback queue.
type playlistLoadedMsg struct {
	playlist *models.Playlist
	err      error
}

// playResultMsg is the outcome of a blocking play request.
type playResultMsg struct {
	err error
}

// playbackMsg is a playback coordinator event, forwarded from the bus.
type playbackMsg struct {
	name    string
	payload any
}

// notificationMsg is a notification render or dismissal.
type notificationMsg notify.Event

// restoredMsg reports whether the previous session's song resumed.
type restoredMsg struct {
	resumed bool
	err     error
}
