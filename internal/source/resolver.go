// Package source turns track descriptors written in notes into playable
// locators.
package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound is returned when a descriptor names nothing playable.
var ErrNotFound = errors.New("track not found")

var wikilinkRe = regexp.MustCompile(`^\[\[(.+?)\]\]$`)

// Resolver resolves descriptors against a vault directory.
//
// A descriptor is one of:
//   - an http:// or https:// URL, returned unchanged
//   - a [[wikilink]], looked up by name in the vault
//   - a path, relative to the folder of the note that names it
type Resolver struct {
	// Root is the vault directory. When empty, paths are not confined and
	// wikilinks are only looked up next to the note.
	Root string
}

// VaultResolver resolves against whatever vault Vault returns at lookup
// time, so a reloaded vault setting applies to the next focus change.
type VaultResolver struct {
	Vault func() string
}

// Resolve resolves descriptor with a Resolver rooted at the current vault.
func (v VaultResolver) Resolve(descriptor, docPath string) (string, error) {
	return Resolver{Root: v.Vault()}.Resolve(descriptor, docPath)
}

// Resolve returns the locator for descriptor as written in the note at
// docPath. docPath may be empty, in which case relative paths start at the
// vault root.
func (r Resolver) Resolve(descriptor, docPath string) (string, error) {
	d := strings.TrimSpace(descriptor)
	if d == "" {
		return "", ErrNotFound
	}

	if IsURL(d) {
		return d, nil
	}

	if m := wikilinkRe.FindStringSubmatch(d); m != nil {
		return r.resolveLink(linkTarget(m[1]), docPath)
	}

	return r.resolvePath(d, docPath)
}

// IsURL reports whether s is an http(s) URL.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// linkTarget strips the display alias and heading from a wikilink body.
func linkTarget(body string) string {
	if i := strings.Index(body, "|"); i >= 0 {
		body = body[:i]
	}
	if i := strings.Index(body, "#"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

func (r Resolver) baseDir(docPath string) string {
	if docPath != "" {
		return filepath.Dir(docPath)
	}
	if r.Root != "" {
		return r.Root
	}
	return "."
}

func (r Resolver) resolvePath(p, docPath string) (string, error) {
	var full string
	switch {
	case filepath.IsAbs(p):
		full = p
	default:
		full = filepath.Join(r.baseDir(docPath), filepath.FromSlash(p))
	}
	if r.playable(full) {
		return abs(full), nil
	}
	return "", ErrNotFound
}

func (r Resolver) resolveLink(target, docPath string) (string, error) {
	if target == "" {
		return "", ErrNotFound
	}
	rel := filepath.FromSlash(target)

	// Vault-relative path, then the note's own folder.
	var candidates []string
	if r.Root != "" {
		candidates = append(candidates, filepath.Join(r.Root, rel))
	}
	if docPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(docPath), rel))
	}
	for _, c := range candidates {
		if r.playable(c) {
			return abs(c), nil
		}
	}

	if r.Root == "" {
		return "", ErrNotFound
	}
	if found := r.search(target); found != "" {
		return abs(found), nil
	}
	return "", ErrNotFound
}

// search looks for the vault file whose name best matches target: the base
// name with or without its extension must match, and when target has folders
// they must be the trailing folders of the file. The shortest path wins.
func (r Resolver) search(target string) string {
	name := pathBase(target)
	suffix := "/" + strings.TrimPrefix(target, "/")
	hasDir := strings.Contains(target, "/")

	var matches []string
	_ = filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			if path != r.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		base := d.Name()
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if !strings.EqualFold(base, name) && !strings.EqualFold(stem, name) {
			return nil
		}
		if hasDir {
			rel, err := filepath.Rel(r.Root, path)
			if err != nil {
				return nil //nolint:nilerr // not under root
			}
			relSlash := "/" + filepath.ToSlash(rel)
			if !strings.HasSuffix(strings.ToLower(relSlash), strings.ToLower(suffix)) &&
				!strings.HasSuffix(strings.ToLower(stripExt(relSlash)), strings.ToLower(suffix)) {
				return nil
			}
		}
		matches = append(matches, path)
		return nil
	})

	if len(matches) == 0 {
		return ""
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) < len(matches[j])
		}
		return matches[i] < matches[j]
	})
	return matches[0]
}

// playable reports whether p is a regular file inside the vault.
func (r Resolver) playable(p string) bool {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return r.Root == "" || within(r.Root, p)
}

func within(root, p string) bool {
	rel, err := filepath.Rel(abs(root), abs(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func abs(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}

func pathBase(target string) string {
	if i := strings.LastIndex(target, "/"); i >= 0 {
		return target[i+1:]
	}
	return target
}

func stripExt(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}
