package channel

import "github.com/llehouerou/notebgm/internal/volume"

// State is a channel's position in its playback lifecycle.
//
//	┌──────┐   start    ┌─────────┐  playback begins  ┌─────────┐
//	│ Idle │ ─────────▶ │ Loading │ ────────────────▶ │ Playing │
//	└──────┘ ◀───────── └─────────┘                   └─────────┘
//	   ▲        stop                                       │ stop
//	   │  ramp completes  ┌───────────┐                    │
//	   └───────────────── │ FadingOut │ ◀──────────────────┘
//	                      └───────────┘
//
// Valid transitions:
//   - Idle      → Loading   (Start)
//   - Loading   → Playing   (playback began)
//   - Loading   → Idle      (Stop; nothing was audible)
//   - Playing   → FadingOut (Stop, or Start with a different track)
//   - FadingOut → Idle      (fade-out finished)
//   - any       → Idle      (fast Stop)
//
// A failed playback start leaves the channel in Loading until the next Start
// or Stop.
type State int

const (
	Idle State = iota
	Loading
	Playing
	FadingOut
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case FadingOut:
		return "FadingOut"
	default:
		return "Unknown"
	}
}

// IsAudible reports whether the channel may be producing sound.
func (s State) IsAudible() bool {
	return s == Playing || s == FadingOut
}

// HasResources reports whether the channel holds an element and gain stage.
func (s State) HasResources() bool {
	return s != Idle
}

// Role distinguishes the two channels.
type Role int

const (
	// Scoped plays the track configured by the focused document.
	Scoped Role = iota
	// Fallback plays the ambient track when no document track applies.
	Fallback
)

func (r Role) String() string {
	switch r {
	case Scoped:
		return "scoped"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// DefaultVolume is the gain used when a role's configured loudness is unusable.
func (r Role) DefaultVolume() float64 {
	if r == Fallback {
		return volume.DefaultFallback
	}
	return volume.DefaultScoped
}
