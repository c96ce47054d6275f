package playback

import "github.com/desertthunder/ytplay/internal/models"

// Events emitted on the coordinator's bus.
const (
	EventPlay           = "Play"           // TrackEvent
	EventPause          = "Pause"          // TrackEvent
	EventStop           = "Stop"           // nil
	EventSongEnd        = "SongEnd"        // TrackEvent
	EventPlaybackError  = "PlaybackError"  // ErrorEvent
	EventTimeUpdate     = "TimeUpdate"     // TimeEvent
	EventVolumeChange   = "VolumeChange"   // VolumeEvent
	EventPlaylistChange = "PlaylistChange" // PlaylistEvent
)

// TrackEvent carries the track a transport event applies to.
// Started is true only on the first Play of a loaded track, not on resumes.
type TrackEvent struct {
	Song    models.Track
	Started bool
}

type ErrorEvent struct {
	Err  error
	Song models.Track
}

type TimeEvent struct {
	Position float64
	Duration float64
}

type VolumeEvent struct {
	Volume float64
}

type PlaylistEvent struct {
	Songs []models.Track
}
