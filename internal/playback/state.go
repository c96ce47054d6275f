package playback

import (
	"github.com/desertthunder/ytplay/internal/audio"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/state"
)

// State is everything the coordinator knows about the current session. It is never persisted.
//
// IsPlaying implies Handle != nil. CurrentIndex is -1 or an index into Playlist, except
// right after [Coordinator.SetPlaylistSongs] shrinks the list.
type State struct {
	Handle             audio.Handle
	IsPlaying          bool
	Position           float64
	Duration           float64
	Volume             float64
	CurrentTrack       models.Track
	Playlist           []models.Track
	CurrentIndex       int
	RecoveryPending    bool
	AutoAdvanceOnError bool
}

// HasTrack reports whether a track is loaded.
func (s State) HasTrack() bool {
	return s.CurrentTrack.ID != ""
}

func initialState() State {
	return State{Volume: 1, CurrentIndex: -1}
}

// Patch is a partial update of [State].
type Patch struct {
	Handle             *audio.Handle
	IsPlaying          *bool
	Position           *float64
	Duration           *float64
	Volume             *float64
	CurrentTrack       *models.Track
	Playlist           *[]models.Track
	CurrentIndex       *int
	RecoveryPending    *bool
	AutoAdvanceOnError *bool
}

func (p Patch) Apply(s State) State {
	if p.Handle != nil {
		s.Handle = *p.Handle
	}
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.CurrentTrack != nil {
		s.CurrentTrack = *p.CurrentTrack
	}
	if p.Playlist != nil {
		s.Playlist = *p.Playlist
	}
	if p.CurrentIndex != nil {
		s.CurrentIndex = *p.CurrentIndex
	}
	if p.RecoveryPending != nil {
		s.RecoveryPending = *p.RecoveryPending
	}
	if p.AutoAdvanceOnError != nil {
		s.AutoAdvanceOnError = *p.AutoAdvanceOnError
	}
	return s
}

// Whole returns a patch carrying every field of s.
func Whole(s State) Patch {
	return Patch{
		Handle:             &s.Handle,
		IsPlaying:          &s.IsPlaying,
		Position:           &s.Position,
		Duration:           &s.Duration,
		Volume:             &s.Volume,
		CurrentTrack:       &s.CurrentTrack,
		Playlist:           &s.Playlist,
		CurrentIndex:       &s.CurrentIndex,
		RecoveryPending:    &s.RecoveryPending,
		AutoAdvanceOnError: &s.AutoAdvanceOnError,
	}
}

// Change is the payload delivered to [Coordinator.Subscribe] handlers.
type Change = state.Change[State, Patch]

// Snapshot is the serializable view of [State].
type Snapshot struct {
	IsPlaying          bool           `json:"isPlaying"`
	Position           float64        `json:"positionSeconds"`
	Duration           float64        `json:"durationSeconds"`
	Volume             float64        `json:"volume"`
	CurrentTrack       *models.Track  `json:"currentTrack"`
	Playlist           []models.Track `json:"playlist"`
	CurrentIndex       int            `json:"currentIndex"`
	RecoveryPending    bool           `json:"recoveryPending"`
	AutoAdvanceOnError bool           `json:"autoAdvanceOnError"`
}

func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		IsPlaying:          s.IsPlaying,
		Position:           s.Position,
		Duration:           s.Duration,
		Volume:             s.Volume,
		Playlist:           append([]models.Track{}, s.Playlist...),
		CurrentIndex:       s.CurrentIndex,
		RecoveryPending:    s.RecoveryPending,
		AutoAdvanceOnError: s.AutoAdvanceOnError,
	}
	if s.HasTrack() {
		track := s.CurrentTrack
		snap.CurrentTrack = &track
	}
	return snap
}
