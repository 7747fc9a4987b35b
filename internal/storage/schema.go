package storage

import (
	"database/sql"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createIndexBuildsTable(tx); err != nil {
			return err
		}
		if err := createBuildUnitsTable(tx); err != nil {
			return err
		}
		if err := createPostingsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version == 0 {
		// Created by an interrupted first run.
		return db.initializeSchema()
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createIndexBuildsTable creates one row per `hsplit index` run.
func createIndexBuildsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS index_builds (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			compile_db TEXT NOT NULL DEFAULT '',
			fingerprint TEXT NOT NULL DEFAULT '',
			marker TEXT NOT NULL DEFAULT '',
			flag_mode TEXT NOT NULL DEFAULT '',
			units INTEGER NOT NULL,
			symbols INTEGER NOT NULL,
			failed INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_index_builds_created ON index_builds(created_at)`)
	return err
}

// createBuildUnitsTable maps unit numbers to unit ids per build.
func createBuildUnitsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS build_units (
			build_id TEXT NOT NULL REFERENCES index_builds(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			unit TEXT NOT NULL,
			PRIMARY KEY (build_id, ordinal)
		)
	`)
	return err
}

// createPostingsTable stores each symbol's unit set as a serialized roaring bitmap.
func createPostingsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS postings (
			build_id TEXT NOT NULL REFERENCES index_builds(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			units BLOB NOT NULL,
			PRIMARY KEY (build_id, symbol)
		)
	`)
	return err
}
