package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVault lays out files (slash-separated, relative to the vault) and
// returns the vault root.
func newVault(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	return root
}

func TestResolve(t *testing.T) {
	root := newVault(t,
		"notes/journal.md",
		"notes/rain.mp3",
		"notes/sub/local.ogg",
		"audio/ambient.mp3",
		"audio/deep/ambient.mp3",
		"music/forest.flac",
		"other/forest.flac",
		".obsidian/hidden.mp3",
		".trash/ambient-old.mp3",
	)
	doc := filepath.Join(root, "notes", "journal.md")
	in := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	tests := []struct {
		name       string
		descriptor string
		doc        string
		want       string
		wantErr    bool
	}{
		{name: "https passes through", descriptor: "https://example.com/a.mp3", doc: doc, want: "https://example.com/a.mp3"},
		{name: "http passes through trimmed", descriptor: "  http://example.com/b.ogg ", doc: doc, want: "http://example.com/b.ogg"},
		{name: "relative to note", descriptor: "rain.mp3", doc: doc, want: in("notes/rain.mp3")},
		{name: "relative subfolder", descriptor: "sub/local.ogg", doc: doc, want: in("notes/sub/local.ogg")},
		{name: "relative parent", descriptor: "../audio/ambient.mp3", doc: doc, want: in("audio/ambient.mp3")},
		{name: "relative missing", descriptor: "nope.mp3", doc: doc, wantErr: true},
		{name: "relative escaping the vault", descriptor: "../../outside.mp3", doc: doc, wantErr: true},
		{name: "no note resolves from root", descriptor: "audio/ambient.mp3", want: in("audio/ambient.mp3")},
		{name: "wikilink vault path", descriptor: "[[audio/ambient.mp3]]", doc: doc, want: in("audio/ambient.mp3")},
		{name: "wikilink next to note", descriptor: "[[rain.mp3]]", doc: doc, want: in("notes/rain.mp3")},
		{name: "wikilink by name picks shortest path", descriptor: "[[ambient.mp3]]", doc: doc, want: in("audio/ambient.mp3")},
		{name: "wikilink without extension", descriptor: "[[forest]]", doc: doc, want: in("music/forest.flac")},
		{name: "wikilink with folder suffix", descriptor: "[[deep/ambient]]", doc: doc, want: in("audio/deep/ambient.mp3")},
		{name: "wikilink alias and heading", descriptor: "[[ambient.mp3#intro|Calm]]", doc: doc, want: in("audio/ambient.mp3")},
		{name: "wikilink case insensitive", descriptor: "[[Rain]]", doc: doc, want: in("notes/rain.mp3")},
		{name: "wikilink skips hidden dirs", descriptor: "[[hidden.mp3]]", doc: doc, wantErr: true},
		{name: "wikilink missing", descriptor: "[[missing.mp3]]", doc: doc, wantErr: true},
		{name: "empty wikilink", descriptor: "[[ ]]", doc: doc, wantErr: true},
		{name: "directory is not playable", descriptor: "sub", doc: doc, wantErr: true},
		{name: "empty descriptor", descriptor: "   ", doc: doc, wantErr: true},
	}

	r := Resolver{Root: root}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.descriptor, tt.doc)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_WithoutVault(t *testing.T) {
	dir := newVault(t, "a/note.md", "a/song.mp3", "b/other.mp3")
	r := Resolver{}
	doc := filepath.Join(dir, "a", "note.md")

	got, err := r.Resolve("song.mp3", doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "song.mp3"), got)

	got, err = r.Resolve("../b/other.mp3", doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b", "other.mp3"), got, "paths are not confined without a vault")

	_, err = r.Resolve("[[other.mp3]]", doc)
	assert.ErrorIs(t, err, ErrNotFound, "no vault to search")
}

func TestVaultResolver_FollowsVault(t *testing.T) {
	first := newVault(t, "forest.flac")
	second := newVault(t, "music/forest.flac")
	vault := first
	r := VaultResolver{Vault: func() string { return vault }}

	got, err := r.Resolve("[[forest]]", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "forest.flac"), got)

	vault = second
	got, err = r.Resolve("[[forest]]", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "music", "forest.flac"), got)
}

func TestLinkTarget(t *testing.T) {
	assert.Equal(t, "a.mp3", linkTarget("a.mp3"))
	assert.Equal(t, "a.mp3", linkTarget("a.mp3|Alias"))
	assert.Equal(t, "a.mp3", linkTarget("a.mp3#Heading|Alias"))
	assert.Equal(t, "dir/a", linkTarget(" dir/a "))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://x"))
	assert.True(t, IsURL("HTTP://x"))
	assert.False(t, IsURL("ftp://x"))
	assert.False(t, IsURL("[[https://x]]"))
}
