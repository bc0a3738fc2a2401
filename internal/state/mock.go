// internal/state/mock.go
package state

import (
	"database/sql"
	"sync"

	"github.com/llehouerou/notebgm/internal/config"
)

// Mock is a test double for Manager.
type Mock struct {
	mu        sync.Mutex
	overrides config.Overrides
	saves     int
	saveErr   error
	closed    bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) LoadOverrides() (config.Overrides, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overrides, nil
}

func (m *Mock) SaveOverrides(o config.Overrides) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.overrides = o
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetOverrides(o config.Overrides) { m.mu.Lock(); m.overrides = o; m.mu.Unlock() }

func (m *Mock) SetSaveError(err error) { m.mu.Lock(); m.saveErr = err; m.mu.Unlock() }

func (m *Mock) Saves() int { m.mu.Lock(); defer m.mu.Unlock(); return m.saves }

func (m *Mock) IsClosed() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.closed }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
