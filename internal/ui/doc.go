// Package ui implements the terminal player using bubbletea's Elm architecture.
//
// The player has two views:
//  1. [LibraryView] : the user's library playlists, enter loads one into the queue
//  2. [QueueView] : the playback queue next to a side panel showing the info or lyrics tab
//
// A now-playing bar and the latest notifications are drawn under both views.
//
// The [Model] owns no playback logic. Keys call into the playback and settings coordinators held by [app.App],
// and coordinator events reach Update through a buffered channel fed by bus listeners, the same
// non-blocking channel pattern notifications arrive through ([notify.ChannelRenderer]).
// Blocking calls (loading a playlist, starting a track) run as commands.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
