package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	saved   []Overrides
	initial Overrides
	loadErr error
	saveErr error
}

func (m *memPersister) LoadOverrides() (Overrides, error) { return m.initial, m.loadErr }

func (m *memPersister) SaveOverrides(o Overrides) error {
	m.saved = append(m.saved, o)
	return m.saveErr
}

func baseConfig() *Config {
	return &Config{Fallback: FallbackConfig{Descriptor: "[[rain]]"}}
}

func TestStore_LoadWithoutOverrides(t *testing.T) {
	s, err := NewStore(baseConfig(), "", nil)
	require.NoError(t, err)

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, baseConfig().Playback(), p)
}

func TestStore_LoadMergesPersistedOverrides(t *testing.T) {
	vol := 0.3
	off := false
	s, err := NewStore(baseConfig(), "", &memPersister{
		initial: Overrides{FallbackVolume: &vol, FallbackEnabled: &off},
	})
	require.NoError(t, err)

	p, err := s.Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.3, p.FallbackVolume, 1e-9)
	assert.False(t, p.FallbackEnabled)
	assert.Equal(t, "[[rain]]", p.FallbackDescriptor, "unset fields keep the file value")
	assert.Equal(t, DefaultFadeDuration, p.FadeDuration)
}

func TestStore_SavePersistsOnlyChangedFields(t *testing.T) {
	mem := &memPersister{}
	s, err := NewStore(baseConfig(), "", mem)
	require.NoError(t, err)

	p, _ := s.Load()
	p.FallbackVolume = 0.25
	require.NoError(t, s.Save(p))

	require.Len(t, mem.saved, 1)
	o := mem.saved[0]
	require.NotNil(t, o.FallbackVolume)
	assert.InDelta(t, 0.25, *o.FallbackVolume, 1e-9)
	assert.Nil(t, o.FallbackEnabled)
	assert.Nil(t, o.FallbackDescriptor)
	assert.Nil(t, o.FadeDuration)

	got, _ := s.Load()
	assert.InDelta(t, 0.25, got.FallbackVolume, 1e-9)
}

func TestStore_SaveBackToFileValuesClearsOverrides(t *testing.T) {
	vol := 0.3
	mem := &memPersister{initial: Overrides{FallbackVolume: &vol}}
	s, err := NewStore(baseConfig(), "", mem)
	require.NoError(t, err)

	require.NoError(t, s.Save(baseConfig().Playback()))
	assert.True(t, s.Overrides().IsZero())
	assert.True(t, mem.saved[0].IsZero())
}

func TestStore_SaveError(t *testing.T) {
	mem := &memPersister{saveErr: errors.New("disk full")}
	s, err := NewStore(baseConfig(), "", mem)
	require.NoError(t, err)

	p, _ := s.Load()
	p.FadeDuration = time.Second
	require.Error(t, s.Save(p))

	// The in-memory value still applies for this run.
	got, _ := s.Load()
	assert.Equal(t, time.Second, got.FadeDuration)
}

func TestNewStore_LoadError(t *testing.T) {
	_, err := NewStore(baseConfig(), "", &memPersister{loadErr: errors.New("corrupt")})
	assert.Error(t, err)
}

func TestStore_Reload(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fallback]\ndescriptor = \"a.mp3\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	s, err := NewStore(cfg, path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[fallback]\ndescriptor = \"b.mp3\"\n"), 0o600))
	_, err = s.Reload()
	require.NoError(t, err)

	p, _ := s.Load()
	assert.Equal(t, "b.mp3", p.FallbackDescriptor)

	require.NoError(t, os.WriteFile(path, []byte("[[["), 0o600))
	_, err = s.Reload()
	require.Error(t, err)
	p, _ = s.Load()
	assert.Equal(t, "b.mp3", p.FallbackDescriptor, "a broken file keeps the previous config")
}

func TestStore_ReloadKeepsAdjustments(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("vault = \"/notes/old\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	s, err := NewStore(cfg, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/notes/old", s.Vault())

	require.NoError(t, os.WriteFile(path, []byte("vault = \"/notes/new\"\n"), 0o600))
	_, err = s.Reload()
	require.NoError(t, err)
	assert.Equal(t, "/notes/new", s.Vault(), "a reloaded vault applies")

	s.OnReload(func(c *Config) { c.FocusFile = "/run/focus" })
	got, err := s.Reload()
	require.NoError(t, err)
	assert.Equal(t, "/run/focus", got.FocusFile)
	assert.Equal(t, "/run/focus", s.Config().FocusFile)
}

func TestOverrides_ApplyIgnoresInvalid(t *testing.T) {
	neg := -time.Second
	o := Overrides{FadeDuration: &neg}
	base := baseConfig().Playback()
	assert.Equal(t, base, o.Apply(base))
}
