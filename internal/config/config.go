package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/notebgm/internal/volume"
)

const (
	appName = "notebgm"

	// DefaultFadeDuration is used when fade_duration is unset or invalid.
	DefaultFadeDuration = 300 * time.Millisecond
)

type Config struct {
	Vault         string   `koanf:"vault"`         // root for [[wikilinks]] and relative paths
	FocusFile     string   `koanf:"focus_file"`    // file the editor rewrites with the focused note path
	FollowEdits   *bool    `koanf:"follow_edits"`  // re-read the focused note when it changes (default: true)
	Notifications bool     `koanf:"notifications"` // desktop notification on scoped track change
	MPRIS         *bool    `koanf:"mpris"`         // expose an MPRIS player (default: true)
	FadeDuration  *float64 `koanf:"fade_duration"` // seconds (default: 0.3)

	Fallback FallbackConfig `koanf:"fallback"`
	Scoped   ScopedConfig   `koanf:"scoped"`

	// Files that were actually read, in load order.
	Files []string `koanf:"-"`
}

// FallbackConfig holds the ambient track configuration.
type FallbackConfig struct {
	Enabled    *bool  `koanf:"enabled"`    // default: true
	Descriptor string `koanf:"descriptor"` // URL, [[wikilink]] or vault-relative path
	Volume     any    `koanf:"volume"`     // 0..1, 1..100 or "80%" (default: 0.8)
}

// ScopedConfig holds settings for document tracks.
type ScopedConfig struct {
	DefaultVolume any `koanf:"default_volume"` // used when loudness is missing or invalid (default: 0.9)
}

// Load reads the config files in priority order; explicit, when set, is read
// last and must exist.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	var loaded []string
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
			loaded = append(loaded, path)
		}
	}
	if explicit != "" {
		explicit = expandPath(explicit)
		if err := k.Load(file.Provider(explicit), toml.Parser()); err != nil {
			return nil, err
		}
		loaded = append(loaded, explicit)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.Files = loaded

	cfg.Vault = expandPath(cfg.Vault)
	cfg.FocusFile = expandPath(cfg.FocusFile)
	cfg.Fallback.Descriptor = strings.TrimSpace(cfg.Fallback.Descriptor)

	return cfg, nil
}

// Paths returns every file Load would consider, existing or not.
func Paths(explicit string) []string {
	paths := getConfigPaths()
	if explicit != "" {
		paths = append(paths, expandPath(explicit))
	}
	return paths
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/notebgm/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// FollowEditsEnabled reports whether edits to the focused note are followed.
func (c *Config) FollowEditsEnabled() bool {
	return c.FollowEdits == nil || *c.FollowEdits
}

// MPRISEnabled reports whether the MPRIS player should be exposed.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// Playback returns the playback settings with defaults applied.
func (c *Config) Playback() Playback {
	p := Playback{
		FallbackEnabled:     c.Fallback.Enabled == nil || *c.Fallback.Enabled,
		FallbackDescriptor:  c.Fallback.Descriptor,
		FallbackVolume:      volume.Normalize(c.Fallback.Volume, volume.DefaultFallback),
		ScopedDefaultVolume: volume.Normalize(c.Scoped.DefaultVolume, volume.DefaultScoped),
		FadeDuration:        DefaultFadeDuration,
	}
	if c.FadeDuration != nil {
		if d, ok := seconds(*c.FadeDuration); ok {
			p.FadeDuration = d
		}
	}
	return p
}

func seconds(s float64) (time.Duration, bool) {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0, false
	}
	return time.Duration(s * float64(time.Second)), true
}
