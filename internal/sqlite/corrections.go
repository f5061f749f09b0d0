// This file implements the standing correction rules: known-bad
// (system, station, commodity) triples that are deleted or rewritten on
// sight, regardless of import source. The rules are static
// configuration, applied to stored rows on every startup and consulted
// by the importers for incoming records; both paths are pure functions
// of current state and safe to re-run.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// defaultCorrections is the built-in rule set. Commodity renames track
// source feeds that still emit retired symbol names; station deletions
// cover entries the upstream dumps carried in error.
var defaultCorrections = []types.CorrectionRule{
	{Commodity: "drones", Action: types.CorrectionRename, NewName: "limpet"},
	{Commodity: "occupied_cryopod", Action: types.CorrectionRename, NewName: "occupied_escape_pod"},
	{Commodity: "methanol_monohydrate", Action: types.CorrectionRename, NewName: "methanol_monohydrate_crystals"},
	{System: "Pandemonium", Station: "Rescue Ship Cornwallis", Action: types.CorrectionDelete},
}

// Rules returns the active correction rule set.
func (s *Store) Rules() []types.CorrectionRule {
	return s.rules
}

// CorrectRecord applies the rule set to an incoming (system, station,
// commodity) triple. It returns the possibly rewritten names and whether
// the record should be dropped entirely.
func (s *Store) CorrectRecord(system, station, commodity string) (sys, st, com string, drop bool) {
	sys, st, com = system, station, commodity
	for _, r := range s.rules {
		if !r.Matches(sys, st, com) {
			continue
		}
		switch r.Action {
		case types.CorrectionDelete:
			return sys, st, com, true
		case types.CorrectionRename:
			if r.Commodity != "" {
				com = r.NewName
			} else if r.Station != "" {
				st = r.NewName
			} else {
				sys = r.NewName
			}
		}
	}
	return sys, st, com, false
}

// applyCorrections rewrites or deletes stored rows matched by the rules.
func applyCorrections(db *sql.DB, rules []types.CorrectionRule) error {
	for _, r := range rules {
		var err error
		switch r.Action {
		case types.CorrectionRename:
			err = applyRename(db, r)
		case types.CorrectionDelete:
			err = applyDelete(db, r)
		default:
			err = fmt.Errorf("unknown correction action %q", r.Action)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyRename rewrites stored rows to the corrected name. Only commodity
// and station renames touch stored data; system renames are handled at
// import time because systems own their stations by name.
func applyRename(db *sql.DB, r types.CorrectionRule) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin correction rename: %w", err)
	}
	defer tx.Rollback()

	switch {
	case r.Commodity != "":
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO commodities (name, display_name) VALUES (?, ?)",
			r.NewName, r.NewName,
		); err != nil {
			return fmt.Errorf("ensure corrected commodity %q: %w", r.NewName, err)
		}
		// A station may already price the corrected name; the corrected
		// row wins and the stale one goes.
		if _, err := tx.Exec(
			"UPDATE OR REPLACE prices SET commodity = ? WHERE commodity = ?",
			r.NewName, r.Commodity,
		); err != nil {
			return fmt.Errorf("rename prices %q -> %q: %w", r.Commodity, r.NewName, err)
		}
		if _, err := tx.Exec(
			"DELETE FROM commodities WHERE name = ?", r.Commodity,
		); err != nil {
			return fmt.Errorf("drop corrected commodity %q: %w", r.Commodity, err)
		}
	case r.Station != "":
		if _, err := tx.Exec(
			"UPDATE stations SET name = ? WHERE name = ?"+systemClause(r),
			renameArgs(r)...,
		); err != nil {
			return fmt.Errorf("rename station %q -> %q: %w", r.Station, r.NewName, err)
		}
	}

	return tx.Commit()
}

// applyDelete removes matched price rows, and matched stations along
// with their boards.
func applyDelete(db *sql.DB, r types.CorrectionRule) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin correction delete: %w", err)
	}
	defer tx.Rollback()

	switch {
	case r.Commodity != "":
		if _, err := tx.Exec(
			"DELETE FROM prices WHERE commodity = ?", r.Commodity,
		); err != nil {
			return fmt.Errorf("delete corrected prices %q: %w", r.Commodity, err)
		}
	case r.Station != "":
		rows, err := tx.Query(
			"SELECT station_id FROM stations WHERE name = ?"+systemClause(r),
			deleteArgs(r)...,
		)
		if err != nil {
			return fmt.Errorf("find corrected station %q: %w", r.Station, err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan corrected station: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate corrected stations: %w", err)
		}

		for _, id := range ids {
			if _, err := tx.Exec("DELETE FROM prices WHERE station_id = ?", id); err != nil {
				return fmt.Errorf("delete corrected board %d: %w", id, err)
			}
			if _, err := tx.Exec("DELETE FROM stations WHERE station_id = ?", id); err != nil {
				return fmt.Errorf("delete corrected station %d: %w", id, err)
			}
			logging.L().Debugw("correction removed station",
				"system", r.System, "station", r.Station, "id", id)
		}
	}

	return tx.Commit()
}

func systemClause(r types.CorrectionRule) string {
	if r.System != "" {
		return " AND system_name = ?"
	}
	return ""
}

func renameArgs(r types.CorrectionRule) []any {
	args := []any{r.NewName, r.Station}
	if r.System != "" {
		args = append(args, r.System)
	}
	return args
}

func deleteArgs(r types.CorrectionRule) []any {
	args := []any{r.Station}
	if r.System != "" {
		args = append(args, r.System)
	}
	return args
}
