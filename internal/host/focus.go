// Package host connects the playback service to the outside world: where
// focus changes come from and which files are watched for edits.
package host

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Focus reports the note the user is looking at. Path is empty when no note
// is focused.
type Focus struct {
	Path string
}

// noDocument is the line that explicitly clears the focus.
const noDocument = "-"

// Lines reads one focused note path per line from r. A blank line or "-"
// means no note. Relative paths are taken relative to vault. The channel is
// closed at EOF or when ctx is done.
func Lines(ctx context.Context, r io.Reader, vault string) <-chan Focus {
	out := make(chan Focus)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			f := Focus{Path: notePath(sc.Text(), vault)}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// notePath cleans a path written by an editor or a user.
func notePath(line, vault string) string {
	p := strings.TrimSpace(line)
	if p == "" || p == noDocument {
		return ""
	}
	p = strings.TrimPrefix(p, "file://")
	if !filepath.IsAbs(p) && vault != "" {
		p = filepath.Join(vault, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
