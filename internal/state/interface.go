// internal/state/interface.go
package state

import (
	"database/sql"

	"github.com/llehouerou/notebgm/internal/config"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	config.Persister
	DB() *sql.DB
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
