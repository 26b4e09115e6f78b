package store

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema/v1.sql
var schemaV1 string

// SchemaVersion is the current schema version of the herd database
const SchemaVersion = 1

var migrations = map[int]string{
	1: schemaV1,
}

// Migrate brings the schema up to SchemaVersion, one version per transaction
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	for v := current + 1; v <= SchemaVersion; v++ {
		if err := applyMigration(db, v, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int, stmts string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(stmts); err != nil {
		return fmt.Errorf("migrate: apply version %d: %w", version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?);`, version); err != nil {
		return fmt.Errorf("migrate: record version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit version %d: %w", version, err)
	}
	return nil
}
