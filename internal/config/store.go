package config

import (
	"fmt"
	"sync"
)

// Persister stores runtime overrides between runs.
type Persister interface {
	LoadOverrides() (Overrides, error)
	SaveOverrides(o Overrides) error
}

// Store serves playback settings: config file values with runtime overrides
// merged over them field by field.
type Store struct {
	mu        sync.RWMutex
	explicit  string
	cfg       *Config
	persist   Persister
	overrides Overrides
	adjust    func(*Config)
}

// NewStore wraps cfg. persist may be nil, in which case overrides live in
// memory only. explicit is the --config path used again by Reload.
func NewStore(cfg *Config, explicit string, persist Persister) (*Store, error) {
	s := &Store{explicit: explicit, cfg: cfg, persist: persist}
	if persist != nil {
		o, err := persist.LoadOverrides()
		if err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
		s.overrides = o
	}
	return s, nil
}

// Config returns the file configuration.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Load returns the effective playback settings.
func (s *Store) Load() (Playback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides.Apply(s.cfg.Playback()), nil
}

// Save records p as the effective playback settings. Only the fields that
// differ from the config file are persisted, so later edits to the file keep
// applying to everything the user did not change at runtime.
func (s *Store) Save(p Playback) error {
	s.mu.Lock()
	o := diff(s.cfg.Playback(), p)
	s.overrides = o
	persist := s.persist
	s.mu.Unlock()

	if persist == nil {
		return nil
	}
	return persist.SaveOverrides(o)
}

// Vault returns the configured vault directory.
func (s *Store) Vault() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Vault
}

// OnReload registers fn to adjust every configuration Reload reads, before
// it is used. Command-line flags that override the files go here.
func (s *Store) OnReload(fn func(*Config)) {
	s.mu.Lock()
	s.adjust = fn
	s.mu.Unlock()
}

// Overrides returns the current runtime overrides.
func (s *Store) Overrides() Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides
}

// Reload re-reads the config files. On error the previous configuration is
// kept.
func (s *Store) Reload() (*Config, error) {
	cfg, err := Load(s.explicit)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.adjust != nil {
		s.adjust(cfg)
	}
	s.cfg = cfg
	s.mu.Unlock()
	return cfg, nil
}
