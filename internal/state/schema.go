package state

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS playback_overrides (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			fallback_enabled INTEGER,
			fallback_descriptor TEXT,
			fallback_volume REAL,
			fade_duration_ms INTEGER,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}

// schemaVersion returns the highest recorded schema version.
func schemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v)
	return v, err
}
