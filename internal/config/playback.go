package config

import (
	"strings"
	"time"

	"github.com/llehouerou/notebgm/internal/volume"
)

// Playback is the part of the configuration the orchestrator reads.
type Playback struct {
	FallbackEnabled     bool
	FallbackDescriptor  string
	FallbackVolume      float64
	ScopedDefaultVolume float64
	FadeDuration        time.Duration
}

// HasFallback reports whether a fallback track should play.
func (p Playback) HasFallback() bool {
	return p.FallbackEnabled && strings.TrimSpace(p.FallbackDescriptor) != ""
}

// Overrides are playback settings changed at runtime by the user. A nil field
// means the config file value applies.
type Overrides struct {
	FallbackEnabled    *bool
	FallbackDescriptor *string
	FallbackVolume     *float64
	FadeDuration       *time.Duration
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o.FallbackEnabled == nil && o.FallbackDescriptor == nil &&
		o.FallbackVolume == nil && o.FadeDuration == nil
}

// Apply returns base with every set field of o merged over it. Invalid
// override values are ignored.
func (o Overrides) Apply(base Playback) Playback {
	if o.FallbackEnabled != nil {
		base.FallbackEnabled = *o.FallbackEnabled
	}
	if o.FallbackDescriptor != nil {
		base.FallbackDescriptor = strings.TrimSpace(*o.FallbackDescriptor)
	}
	if o.FallbackVolume != nil {
		base.FallbackVolume = volume.Normalize(*o.FallbackVolume, base.FallbackVolume)
	}
	if o.FadeDuration != nil && *o.FadeDuration >= 0 {
		base.FadeDuration = *o.FadeDuration
	}
	return base
}

// diff returns the overrides that turn base into p.
func diff(base, p Playback) Overrides {
	var o Overrides
	if p.FallbackEnabled != base.FallbackEnabled {
		v := p.FallbackEnabled
		o.FallbackEnabled = &v
	}
	if p.FallbackDescriptor != base.FallbackDescriptor {
		v := p.FallbackDescriptor
		o.FallbackDescriptor = &v
	}
	if p.FallbackVolume != base.FallbackVolume {
		v := volume.Clamp(p.FallbackVolume)
		o.FallbackVolume = &v
	}
	if p.FadeDuration != base.FadeDuration {
		v := max(p.FadeDuration, 0)
		o.FadeDuration = &v
	}
	return o
}
