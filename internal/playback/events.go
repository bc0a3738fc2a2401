package playback

import (
	"github.com/llehouerou/notebgm/internal/channel"
	"github.com/llehouerou/notebgm/internal/errmsg"
)

// ChannelChange is emitted when a channel changes state or track.
type ChannelChange struct {
	Role     channel.Role
	Previous channel.State
	Current  channel.State
	Track    string
}

// TrackChange is emitted when a channel begins playing.
//
// Emitted by:
//   - OnFocusChanged: when the scoped or fallback channel starts a track
//   - ReloadFallback: when the fallback restarts
//   - a retried start that finally plays
//
// NOT emitted by:
//   - volume changes
//   - fade-outs and stops (see ChannelChange)
//
// Previous is the track this channel last played, or nil.
type TrackChange struct {
	Role     channel.Role
	Previous *Track
	Current  *Track
}

// VolumeChange is emitted when the master volume override is applied.
type VolumeChange struct {
	Volume float64
}

// ErrorEvent is emitted when an operation fails. None of these are fatal.
type ErrorEvent struct {
	Operation  errmsg.Op
	Descriptor string // track descriptor if applicable
	Document   string // focused note if applicable
	Err        error
}
