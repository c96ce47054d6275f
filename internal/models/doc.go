// Package models defines the domain values shared by the coordinators, the proxy client and the player UI.
//
//   - [Track] : immutable song metadata as produced by search results, playlists and the library
//   - [Playlist] : playlist metadata with its ordered tracks
//   - [RepeatMode] : none → one → all rotation used by settings and playback
//   - [Tab] : side-panel tab (info or lyrics)
//   - [HistoryEntry] : one recorded play, persisted by the history repository
//
// Tracks are owned by whatever list produced them. Coordinators hold copies and never mutate them.
package models
