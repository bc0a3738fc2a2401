// internal/playback/state.go
package playback

import (
	"time"

	"github.com/llehouerou/notebgm/internal/channel"
)

// Status is a snapshot of the whole service.
type Status struct {
	Document        string // focused note, or ""
	Scoped          channel.Status
	Fallback        channel.Status
	EffectiveVolume float64
	FadeDuration    time.Duration
}

// Active returns the channel that is currently playing, if any.
func (s Status) Active() (channel.Status, bool) {
	switch {
	case s.Scoped.State == channel.Playing:
		return s.Scoped, true
	case s.Fallback.State == channel.Playing:
		return s.Fallback, true
	default:
		return channel.Status{}, false
	}
}

// IsAudible reports whether any channel may be producing sound.
func (s Status) IsAudible() bool {
	return s.Scoped.State.IsAudible() || s.Fallback.State.IsAudible()
}
