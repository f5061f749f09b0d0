// This file implements the placeholder resolver: synthetic stations with
// strictly negative, monotonically decreasing identifiers standing in
// for references that cannot be resolved at import time.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// StationHint carries partial attributes inferable from the context of
// the record that triggered placeholder creation (a price line's pad
// size, the feed message's station type).
type StationHint struct {
	PadSize       string
	Type          string
	DockingAccess string
}

// seedPlaceholderCounter initializes the negative-identifier allocator
// from current store contents: one below the lowest identifier in use,
// never above -1. Process-owned state, explicitly torn down with the
// store; identifiers never repeat within one process lifetime.
func (s *Store) seedPlaceholderCounter() error {
	var lowest sql.NullInt64
	if err := s.db.QueryRow("SELECT MIN(station_id) FROM stations").Scan(&lowest); err != nil {
		return fmt.Errorf("scan lowest station id: %w", err)
	}

	next := int64(-1)
	if lowest.Valid && lowest.Int64 < 0 {
		next = lowest.Int64 - 1
	}

	s.phMu.Lock()
	s.nextPlaceholder = next
	s.phMu.Unlock()
	return nil
}

// allocPlaceholderID returns the next strictly negative identifier.
func (s *Store) allocPlaceholderID() int64 {
	s.phMu.Lock()
	defer s.phMu.Unlock()
	id := s.nextPlaceholder
	s.nextPlaceholder--
	return id
}

// Resolve maps a (system, station) name pair to a usable station
// identifier, creating a placeholder when the pair is unknown. It never
// fails for catalog reasons: the returned identifier is always backed by
// a station row, real or synthetic.
//
// Live, non-retired rows win over placeholders when both exist, so
// callers transparently pick up the real station once an authoritative
// import has retired the placeholder.
func (s *Store) Resolve(system, station string, hint StationHint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return 0, types.ErrStoreClosed
	}

	id, err := lookupStationID(s.db, system, station)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("resolve %q/%q: %w", system, station, err)
	}

	return s.createPlaceholder(system, station, hint)
}

// ResolveExisting is Resolve without placeholder creation, for callers
// running with unknown-reference tolerance disabled. Unknown pairs
// return ErrUnresolvedReference.
func (s *Store) ResolveExisting(system, station string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return 0, types.ErrStoreClosed
	}

	id, err := lookupStationID(s.db, system, station)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("station %q in system %q: %w", station, system, types.ErrUnresolvedReference)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %q/%q: %w", system, station, err)
	}
	return id, nil
}

func lookupStationID(db *sql.DB, system, station string) (int64, error) {
	var id int64
	// Real identifiers sort ahead of placeholders.
	err := db.QueryRow(
		`SELECT station_id FROM stations
         WHERE system_name = ? AND name = ? AND retired = 0
         ORDER BY (station_id >= 0) DESC, station_id DESC
         LIMIT 1`,
		system, station,
	).Scan(&id)
	return id, err
}

func (s *Store) createPlaceholder(system, station string, hint StationHint) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin placeholder create: %w", tagCorruption(err))
	}
	defer tx.Rollback()

	if err := ensureSystemTx(tx, system); err != nil {
		return 0, err
	}

	// Re-check inside the transaction: a concurrent writer task may have
	// created the station between the lookup and here.
	var id int64
	err = tx.QueryRow(
		`SELECT station_id FROM stations
         WHERE system_name = ? AND name = ? AND retired = 0
         ORDER BY (station_id >= 0) DESC, station_id DESC
         LIMIT 1`,
		system, station,
	).Scan(&id)
	if err == nil {
		return id, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("recheck %q/%q: %w", system, station, err)
	}

	id = s.allocPlaceholderID()
	docking := types.NormalizeDockingAccess(hint.DockingAccess)

	_, err = tx.Exec(
		`INSERT INTO stations
         (station_id, system_name, name, pad_size, market, station_type,
          carrier_docking_access, retired, modified)
         VALUES (?, ?, ?, ?, 1, ?, ?, 0, ?)`,
		id, system, station, hint.PadSize, hint.Type, docking,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("create placeholder %q/%q: %w", system, station, tagCorruption(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit placeholder create: %w", tagCorruption(err))
	}

	metrics.PlaceholdersCreated.Inc()
	logging.L().Debugw("placeholder station created",
		"system", system, "station", station, "id", id)
	return id, nil
}
