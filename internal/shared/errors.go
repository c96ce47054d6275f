package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Playback errors
	ErrStreamFailed      = fmt.Errorf("stream request failed")
	ErrAudioUnavailable  = fmt.Errorf("audio output unavailable in this build")
	ErrHandleClosed      = fmt.Errorf("audio handle closed")
	ErrSuperseded        = fmt.Errorf("playback superseded by a newer request")
	ErrNothingToPlay     = fmt.Errorf("nothing to play")
	ErrUnknownMediaEvent = fmt.Errorf("unknown media action")

	// Storage errors
	ErrUnknownStorageDriver = fmt.Errorf("unknown storage driver")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
