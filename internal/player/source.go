package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// IsRemote reports whether locator is an http(s) URL.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// extension returns the lower-cased file extension of a path or URL.
func extension(locator string) string {
	if IsRemote(locator) {
		if u, err := url.Parse(locator); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(locator))
}

// open returns a seekable reader over the track at locator.
// Remote tracks are downloaded into memory so they can be seeked.
func (e *Engine) open(ctx context.Context, locator string) (io.ReadSeekCloser, error) {
	if !IsRemote(locator) {
		return os.Open(locator)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", locator, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", locator, err)
	}
	if int64(len(data)) > e.limit {
		return nil, fmt.Errorf("fetch %s: larger than %s", locator, humanize.IBytes(uint64(e.limit))) //nolint:gosec // limit is positive
	}

	e.log.Debug().
		Str("url", locator).
		Str("size", humanize.IBytes(uint64(len(data)))).
		Msg("fetched remote track")

	return nopSeekCloser{bytes.NewReader(data)}, nil
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
