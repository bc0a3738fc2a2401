package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextFocus(t *testing.T, ch <-chan Focus) Focus {
	t.Helper()
	select {
	case f, ok := <-ch:
		require.True(t, ok, "focus channel closed")
		return f
	case <-time.After(eventTimeout):
		t.Fatal("no focus received")
		return Focus{}
	}
}

func TestFocusFile_FollowsContent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "focus")
	require.NoError(t, os.WriteFile(path, []byte("notes/a.md\n"), 0o600))

	ch, err := FocusFile(ctx, path, "/vault", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "/vault/notes/a.md", nextFocus(t, ch).Path)

	// Unchanged content is not reported again.
	require.NoError(t, os.WriteFile(path, []byte("notes/a.md\n"), 0o600))
	time.Sleep(3 * debounce)

	require.NoError(t, os.WriteFile(path, []byte("b.md\nignored\n"), 0o600))
	assert.Equal(t, "/vault/b.md", nextFocus(t, ch).Path)

	require.NoError(t, os.Remove(path))
	assert.Empty(t, nextFocus(t, ch).Path)
}

func TestFocusFile_MissingFileMeansNoNote(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "focus")

	ch, err := FocusFile(ctx, path, "/vault", zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, nextFocus(t, ch).Path)

	require.NoError(t, os.WriteFile(path, []byte("/abs/note.md"), 0o600))
	assert.Equal(t, "/abs/note.md", nextFocus(t, ch).Path)
}

func TestFocusFile_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	path := filepath.Join(t.TempDir(), "focus")
	ch, err := FocusFile(ctx, path, "", zerolog.Nop())
	require.NoError(t, err)
	nextFocus(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(eventTimeout):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFocusFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "focus")
	_, err := FocusFile(context.Background(), path, "", zerolog.Nop())
	assert.Error(t, err)
}
