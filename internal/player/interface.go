package player

import (
	"context"
	"time"
)

// Element is the audio element behind one channel: a single loaded track that
// loops until released, feeding one gain stage.
type Element interface {
	// Load opens and decodes the track at locator, replacing any previous one.
	// A remote fetch stops when ctx is done.
	Load(ctx context.Context, locator string) error
	// SeekTo moves playback to offset, wrapping around the track length.
	SeekTo(offset time.Duration) error
	// Play starts or resumes output through the gain stage.
	Play() error
	// Pause stops output without releasing anything.
	Pause()
	// Position returns the current offset into the loaded track.
	Position() time.Duration
	// ConnectGain returns the element's gain stage, creating it on first use.
	ConnectGain() *Gain
	// Release pauses, disconnects the gain stage and closes the track.
	Release()
}

// Verify the implementations satisfy Element at compile time.
var (
	_ Element = (*beepElement)(nil)
	_ Element = (*MockElement)(nil)
)
