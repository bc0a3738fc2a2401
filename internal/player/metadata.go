package player

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackInfo describes a track for display.
type TrackInfo struct {
	Locator string
	Title   string
	Artist  string
	Album   string
}

// ReadTrackInfo reads tags from a local track. Remote tracks and files without
// tags get a title derived from their name.
func ReadTrackInfo(locator string) *TrackInfo {
	info := &TrackInfo{Locator: locator, Title: baseName(locator)}
	if IsRemote(locator) {
		return info
	}

	f, err := os.Open(locator)
	if err != nil {
		return info
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return info
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		info.Title = title
	}
	info.Artist = m.Artist()
	info.Album = m.Album()
	return info
}

// Display returns "Artist - Title", or just the title.
func (t *TrackInfo) Display() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

func baseName(locator string) string {
	if IsRemote(locator) {
		if u, err := url.Parse(locator); err == nil && u.Path != "" && u.Path != "/" {
			name, _ := url.PathUnescape(path.Base(u.Path))
			return name
		}
		return locator
	}
	return filepath.Base(locator)
}
