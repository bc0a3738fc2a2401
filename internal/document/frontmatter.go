// Package document reads the YAML frontmatter of markdown notes.
package document

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned when a note does not start with a frontmatter block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// Keys read from a note's frontmatter, in lookup order.
var descriptorKeys = []string{"BGM", "bgm"}

const loudnessKey = "loudness"

// maxFrontmatter bounds how much of a note is scanned for the closing fence.
const maxFrontmatter = 1 << 20

// Reader reads frontmatter from files on disk.
type Reader struct{}

// Frontmatter returns the frontmatter of the note at path.
func (Reader) Frontmatter(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse extracts and decodes the frontmatter block at the start of data.
// The block opens with a "---" line and closes with "---" or "...".
func Parse(data []byte) (map[string]any, error) {
	block, ok := extract(data)
	if !ok {
		return nil, ErrNoFrontmatter
	}

	fm := map[string]any{}
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	return fm, nil
}

func extract(data []byte) ([]byte, bool) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxFrontmatter)

	if !sc.Scan() || strings.TrimRight(sc.Text(), " \t\r") != "---" {
		return nil, false
	}

	var block bytes.Buffer
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "---" || line == "..." {
			return block.Bytes(), true
		}
		block.WriteString(sc.Text())
		block.WriteByte('\n')
	}
	return nil, false
}

// Descriptor returns the track descriptor of a note: BGM, then bgm. Empty
// values are skipped; scalars that are not strings are formatted.
func Descriptor(fm map[string]any) (string, bool) {
	for _, key := range descriptorKeys {
		if s := scalar(fm[key]); s != "" {
			return s, true
		}
	}
	return "", false
}

// Loudness returns the raw loudness value of a note, or nil.
func Loudness(fm map[string]any) any {
	return fm[loudnessKey]
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		// Booleans, lists and maps cannot name a track.
		return ""
	}
}
