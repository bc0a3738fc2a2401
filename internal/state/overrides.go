package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/notebgm/internal/config"
	dbutil "github.com/llehouerou/notebgm/internal/db"
)

func getOverrides(db *sql.DB) (config.Overrides, error) {
	row := db.QueryRow(`
		SELECT fallback_enabled, fallback_descriptor, fallback_volume, fade_duration_ms
		FROM playback_overrides WHERE id = 1
	`)

	var enabled sql.Null[bool]
	var descriptor sql.Null[string]
	var vol sql.Null[float64]
	var fadeMs sql.Null[int64]

	err := row.Scan(&enabled, &descriptor, &vol, &fadeMs)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Overrides{}, nil
	}
	if err != nil {
		return config.Overrides{}, err
	}

	o := config.Overrides{
		FallbackEnabled:    dbutil.NullToPtr(enabled),
		FallbackDescriptor: dbutil.NullToPtr(descriptor),
		FallbackVolume:     dbutil.NullToPtr(vol),
	}
	if ms := dbutil.NullToPtr(fadeMs); ms != nil {
		d := time.Duration(*ms) * time.Millisecond
		o.FadeDuration = &d
	}
	return o, nil
}

func saveOverrides(db *sql.DB, o config.Overrides) error {
	return dbutil.WithTx(db, func(tx *sql.Tx) error {
		if o.IsZero() {
			_, err := tx.Exec(`DELETE FROM playback_overrides WHERE id = 1`)
			return err
		}

		var fadeMs *int64
		if o.FadeDuration != nil {
			ms := o.FadeDuration.Milliseconds()
			fadeMs = &ms
		}

		_, err := tx.Exec(`
			INSERT INTO playback_overrides (id, fallback_enabled, fallback_descriptor, fallback_volume,
			                                fade_duration_ms, updated_at)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				fallback_enabled = excluded.fallback_enabled,
				fallback_descriptor = excluded.fallback_descriptor,
				fallback_volume = excluded.fallback_volume,
				fade_duration_ms = excluded.fade_duration_ms,
				updated_at = excluded.updated_at
		`, dbutil.PtrToNull(o.FallbackEnabled), dbutil.PtrToNull(o.FallbackDescriptor),
			dbutil.PtrToNull(o.FallbackVolume), dbutil.PtrToNull(fadeMs), time.Now().Unix())
		return err
	})
}
