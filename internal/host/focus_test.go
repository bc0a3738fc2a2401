package host

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotePath(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		vault string
		want  string
	}{
		{"blank", "   ", "/vault", ""},
		{"dash", "-", "/vault", ""},
		{"relative to vault", "daily/today.md", "/vault", "/vault/daily/today.md"},
		{"absolute kept", "/elsewhere/note.md", "/vault", "/elsewhere/note.md"},
		{"trimmed", "  note.md \r", "/vault", "/vault/note.md"},
		{"file url", "file:///vault/x.md", "/other", "/vault/x.md"},
		{"cleaned", "/vault/a/../b.md", "", "/vault/b.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), notePath(tt.line, tt.vault))
		})
	}
}

func TestNotePath_RelativeWithoutVault(t *testing.T) {
	got := notePath("note.md", "")
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "note.md", filepath.Base(got))
}

func TestLines(t *testing.T) {
	r := strings.NewReader("a.md\n\n-\n/abs/b.md\n")

	var got []string
	for f := range Lines(context.Background(), r, "/vault") {
		got = append(got, f.Path)
	}

	assert.Equal(t, []string{"/vault/a.md", "", "", "/abs/b.md"}, got)
}
