package playback

import (
	"context"
	"errors"

	"github.com/llehouerou/notebgm/internal/config"
)

// ErrClosed is returned by operations on a closed service.
var ErrClosed = errors.New("playback service closed")

// Service defines the playback service contract.
type Service interface {
	// OnFocusChanged re-evaluates which channel should play after the user
	// focused the note at docPath, or no note when docPath is empty.
	OnFocusChanged(ctx context.Context, docPath string) error

	// ReloadFallback re-reads the playback settings and restarts the
	// fallback channel with them.
	ReloadFallback(ctx context.Context) error

	// Out-of-band volume control
	SetMasterVolumeOverride(v float64)
	EffectiveVolume() float64

	// State queries
	Status() Status

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Metadata reads the frontmatter of a note.
type Metadata interface {
	Frontmatter(docPath string) (map[string]any, error)
}

// Resolver turns a track descriptor into a playable locator.
type Resolver interface {
	Resolve(descriptor, docPath string) (string, error)
}

// ConfigStore loads and saves playback settings.
type ConfigStore interface {
	Load() (config.Playback, error)
	Save(p config.Playback) error
}
