package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// migration is one versioned, idempotent structural change. Migrations
// are applied in order, each at most once, and recorded by version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the ordered schema history. Never reorder or renumber
// applied entries; append new versions at the end.
var migrations = []migration{
	{version: 1, name: "baseline catalog", stmts: baselineDDL},
	{version: 2, name: "carrier metadata", stmts: carrierDDL},
}

// applyMigrations brings the schema to the latest version. Safe to
// re-run: applied versions are skipped, and DDL that reports the target
// as already existing is treated as applied.
func applyMigrations(db *sql.DB) error {
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TEXT NOT NULL
);`, migrationTable)
	if _, err := db.Exec(createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				if !isAlreadyExistsErr(err) {
					tx.Rollback()
					return fmt.Errorf("exec migration %d (%s): %w", m.version, m.name, err)
				}
			}
		}

		if _, err := tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (version, name, applied_at) VALUES (?, ?, ?)", migrationTable),
			m.version, m.name, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied migration version, 0 for a
// store that predates migration tracking.
func schemaVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow(
		fmt.Sprintf("SELECT MAX(version) FROM %s", migrationTable),
	).Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, err
	}
	return int(version.Int64), nil
}

func migrationApplied(db *sql.DB, version int) (bool, error) {
	var found int
	err := db.QueryRow(
		fmt.Sprintf("SELECT 1 FROM %s WHERE version = ?", migrationTable), version,
	).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isAlreadyExistsErr reports whether this DDL error indicates the
// migration target already exists, which counts as idempotent success.
func isAlreadyExistsErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
