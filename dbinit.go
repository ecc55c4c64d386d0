package main

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func dbInit(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
		name TEXT PRIMARY KEY,
		version INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("error creating db_version table: %w", err)
	}

	var dbVersion int
	err = db.QueryRow("SELECT version FROM db_version WHERE name='sheetcal'").Scan(&dbVersion)
	if err == sql.ErrNoRows {
		if _, err = db.Exec(`INSERT INTO db_version (name, version) VALUES ('sheetcal', 0)`); err != nil {
			return fmt.Errorf("error initializing db_version table: %w", err)
		}
		dbVersion = 0
	} else if err != nil {
		return fmt.Errorf("error reading db_version: %w", err)
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT)`)
		if err != nil {
			return fmt.Errorf("error creating tokens table: %w", err)
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS managed_events (
			calendar_id TEXT,
			event_id TEXT,
			start_time TEXT,
			summary TEXT,
			synced_at TEXT,
			PRIMARY KEY (calendar_id, event_id)
		)`)
		if err != nil {
			return fmt.Errorf("error creating managed_events table: %w", err)
		}

		dbVersion = schemaVersion
		_, err = db.Exec(`UPDATE db_version SET version = ? WHERE name = 'sheetcal'`, dbVersion)
		if err != nil {
			return fmt.Errorf("error updating db_version table: %w", err)
		}
	}
	return nil
}
