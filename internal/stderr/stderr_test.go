//go:build !windows

package stderr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestForward(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	forward(strings.NewReader("ALSA lib pcm.c: underrun\n\n   \nsecond\n"), log)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"ALSA lib pcm.c: underrun"`)
	assert.Contains(t, lines[0], `"component":"stderr"`)
	assert.Contains(t, lines[1], `"message":"second"`)
}

func TestOriginalBeforeStart(t *testing.T) {
	assert.NotNil(t, Original())
}
