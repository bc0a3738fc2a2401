//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists folder-wide cover filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

var imageExts = []string{".jpg", ".png", ".jpeg"}

// FindCoverArt looks for artwork next to a local track. An image named after
// the track wins over a folder-wide cover, since ambience files are often
// kept together in one folder. Returns "" if nothing is found.
func FindCoverArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	stem := strings.TrimSuffix(filepath.Base(trackPath), filepath.Ext(trackPath))

	candidates := make([]string, 0, len(imageExts)+len(coverNames))
	for _, ext := range imageExts {
		candidates = append(candidates, stem+ext)
	}
	candidates = append(candidates, coverNames...)

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}
