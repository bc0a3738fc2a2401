// Package errmsg provides consistent error message formatting.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Track resolution
	OpResolveTrack  Op = "resolve track"
	OpReadMetadata  Op = "read document metadata"
	OpFetchTrack    Op = "fetch remote track"
	OpReadTrackTags Op = "read track tags"

	// Playback operations
	OpLoadTrack     Op = "load track"
	OpStartPlayback Op = "start playback"
	OpResumeTrack   Op = "resume track position"
	OpOpenOutput    Op = "open audio output"

	// Configuration
	OpLoadConfig   Op = "load configuration"
	OpReloadConfig Op = "reload configuration"
	OpSaveConfig   Op = "save configuration"

	// Host integration
	OpWatch        Op = "watch file"
	OpReadFocus    Op = "read focused document"
	OpNotify       Op = "send notification"
	OpMPRISStart   Op = "start MPRIS server"
	OpOpenDatabase Op = "open state database"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
