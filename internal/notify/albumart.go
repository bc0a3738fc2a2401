//go:build linux

package notify

import "github.com/llehouerou/notebgm/internal/mpris"

// CoverArtPath returns the artwork to show for a local track, if any.
func CoverArtPath(trackPath string) string {
	return mpris.FindCoverArt(trackPath)
}
