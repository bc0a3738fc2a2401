//go:build linux

package notify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCoverArtPath(t *testing.T) {
	dir := t.TempDir()

	trackPath := filepath.Join(dir, "tavern.mp3")
	if err := os.WriteFile(trackPath, []byte{}, 0o600); err != nil {
		t.Fatal(err)
	}

	if got := CoverArtPath(trackPath); got != "" {
		t.Errorf("CoverArtPath() = %q, want empty", got)
	}

	coverPath := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(coverPath, []byte{0xFF, 0xD8, 0xFF}, 0o600); err != nil {
		t.Fatal(err)
	}

	if got := CoverArtPath(trackPath); got != coverPath {
		t.Errorf("CoverArtPath() = %q, want %q", got, coverPath)
	}
}
