package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/notebgm/internal/config"
)

const (
	appName      = "notebgm"
	dbFileName   = "notebgm.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *config.Overrides
	onError   func(error)
}

// Open opens the state database at path, or at the default location under
// $XDG_DATA_HOME when path is empty.
func Open(path string) (*Manager, error) {
	if path == "" {
		var err error
		if path, err = getDBPath(); err != nil {
			return nil, err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// OnSaveError registers fn to receive errors from debounced saves.
func (m *Manager) OnSaveError(fn func(error)) {
	m.saveMu.Lock()
	m.onError = fn
	m.saveMu.Unlock()
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	onError := m.onError
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		if err := saveOverrides(m.db, *pending); err != nil && onError != nil {
			onError(err)
		}
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// LoadOverrides returns the persisted playback overrides. A write that is
// still waiting for its debounce is returned as is.
func (m *Manager) LoadOverrides() (config.Overrides, error) {
	m.saveMu.Lock()
	pending := m.pending
	m.saveMu.Unlock()
	if pending != nil {
		return *pending, nil
	}
	return getOverrides(m.db)
}

// SaveOverrides schedules o to be written. Writes within the debounce window
// coalesce into the last one.
func (m *Manager) SaveOverrides(o config.Overrides) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &o

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		onError := m.onError
		m.saveMu.Unlock()

		if pending != nil {
			if err := saveOverrides(m.db, *pending); err != nil && onError != nil {
				onError(err)
			}
		}
	})
	return nil
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
