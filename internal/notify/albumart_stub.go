//go:build !linux

package notify

// CoverArtPath returns empty on non-Linux platforms.
// Desktop notifications are only supported on Linux via D-Bus.
func CoverArtPath(_ string) string {
	return ""
}
