package player

import "errors"

var (
	// ErrUnsupportedFormat is returned by Load for tracks no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNotLoaded is returned by Play and SeekTo before a successful Load.
	ErrNotLoaded = errors.New("no track loaded")
	// ErrClosed is returned by Play once the engine has been closed.
	ErrClosed = errors.New("audio engine closed")
	// ErrEmptyTrack is returned by Play for a track with no samples.
	ErrEmptyTrack = errors.New("track has no samples")
)
