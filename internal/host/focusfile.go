package host

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/errmsg"
)

// FocusFile follows a file that an editor rewrites with the path of the
// focused note. A missing or empty file means no note. A Focus is sent for
// the initial content and then whenever the content changes.
func FocusFile(ctx context.Context, path, vault string, log zerolog.Logger) (<-chan Focus, error) {
	w, err := NewWatcher(path)
	if err != nil {
		return nil, err
	}
	name := w.abs(path)

	out := make(chan Focus)
	go func() {
		defer close(out)
		defer w.Close()

		last, first := "", true
		emit := func() bool {
			p, err := readFocus(name, vault)
			if err != nil {
				log.Warn().Err(err).Msg(errmsg.FormatWith(errmsg.OpReadFocus, name, err))
				return true
			}
			if !first && p == last {
				return true
			}
			first, last = false, p
			select {
			case out <- Focus{Path: p}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case _, ok := <-w.Events:
				if !ok || !emit() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg(errmsg.FormatWith(errmsg.OpWatch, name, err))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func readFocus(path, vault string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return notePath(line, vault), nil
}
