package player

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://example.com/a.mp3"))
	assert.True(t, IsRemote("https://example.com/a.mp3"))
	assert.False(t, IsRemote("ftp://example.com/a.mp3"))
	assert.False(t, IsRemote("/home/me/a.mp3"))
}

func TestEngineOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	rc, err := NewEngine(zerolog.Nop()).open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestEngineOpen_RemoteIsSeekable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	rc, err := NewEngine(zerolog.Nop()).open(context.Background(), srv.URL+"/a.mp3")
	require.NoError(t, err)
	defer rc.Close()

	_, err = rc.Seek(5, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(rest))
}

func TestEngineOpen_RemoteTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := NewEngine(zerolog.Nop(), WithFetchLimit(16)).open(context.Background(), srv.URL+"/a.mp3")
	assert.Error(t, err)
}

func TestEngineOpen_RemoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewEngine(zerolog.Nop()).open(context.Background(), srv.URL+"/missing.mp3")
	assert.Error(t, err)
}

func TestElementLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	el := NewEngine(zerolog.Nop()).NewElement()
	err := el.Load(context.Background(), path)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, el.Play(), ErrNotLoaded)
	el.Release()
}

func TestElementLoad_StopsWhenContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	el := NewEngine(zerolog.Nop()).NewElement()
	start := time.Now()
	err := el.Load(ctx, srv.URL+"/slow.mp3")

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	el.Release()
}

// countingStreamer yields 0, 1, 2, ... up to length-1.
type countingStreamer struct {
	length int
	pos    int
}

func (s *countingStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= s.length {
		return 0, false
	}
	for n < len(samples) && s.pos < s.length {
		samples[n] = [2]float64{float64(s.pos), float64(s.pos)}
		s.pos++
		n++
	}
	return n, true
}

func (s *countingStreamer) Err() error       { return nil }
func (s *countingStreamer) Len() int         { return s.length }
func (s *countingStreamer) Position() int    { return s.pos }
func (s *countingStreamer) Seek(p int) error { s.pos = p; return nil }

func TestLoopTrack_WrapsAround(t *testing.T) {
	s, err := loopTrack(&countingStreamer{length: 3})
	require.NoError(t, err)

	buf := make([][2]float64, 7)
	n, ok := s.Stream(buf)

	assert.True(t, ok)
	assert.Equal(t, 7, n)
	for i, want := range []float64{0, 1, 2, 0, 1, 2, 0} {
		assert.Equal(t, want, buf[i][0], "sample %d", i)
	}
}

func TestLoopTrack_EmptyTrack(t *testing.T) {
	_, err := loopTrack(&countingStreamer{})
	assert.ErrorIs(t, err, ErrEmptyTrack)
}
