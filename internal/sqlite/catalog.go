// This file implements the entity catalog: idempotent insert-or-replace
// operations keyed by primary identity, with the placeholder-retirement
// side effect on authoritative station upserts.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// UpsertSystem inserts or replaces a system keyed by name. Coordinates
// are the only mutable attribute of an existing system; added_at is kept
// from the first insert.
func (s *Store) UpsertSystem(sys types.System) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	addedAt := sys.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO systems (name, x, y, z, added_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET x = excluded.x, y = excluded.y, z = excluded.z`,
		sys.Name, sys.X, sys.Y, sys.Z, addedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert system %q: %w", sys.Name, tagCorruption(err))
	}
	return nil
}

// UpsertCommodity inserts or replaces a commodity keyed by normalized
// symbol name.
func (s *Store) UpsertCommodity(c types.Commodity) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	_, err := s.db.Exec(
		`INSERT INTO commodities (name, category, display_name) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET category = excluded.category, display_name = excluded.display_name`,
		c.Name, c.Category, c.DisplayName,
	)
	if err != nil {
		return fmt.Errorf("upsert commodity %q: %w", c.Name, tagCorruption(err))
	}
	return nil
}

// UpsertStation inserts or replaces a station keyed by its explicit
// identifier. Identifiers are never auto-assigned here.
//
// Returns an IdentityConflictError if the identifier is already bound to
// a different (system, name) pair. A re-declaration of the same pair
// replaces the row in full, last wins. Upserting with a non-negative
// identifier retires any placeholder holding the same (system, name) in
// the same transaction, so referential integrity never breaks.
func (s *Store) UpsertStation(st types.Station) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin station upsert: %w", tagCorruption(err))
	}
	defer tx.Rollback()

	if err := upsertStationTx(tx, st); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit station upsert: %w", tagCorruption(err))
	}
	return nil
}

// upsertStationTx is the transactional body of UpsertStation, shared
// with the importers so a station and its board can commit as one unit.
func upsertStationTx(tx *sql.Tx, st types.Station) error {
	var existingSystem, existingName string
	err := tx.QueryRow(
		"SELECT system_name, name FROM stations WHERE station_id = ?", st.ID,
	).Scan(&existingSystem, &existingName)
	switch {
	case err == sql.ErrNoRows:
		// New identifier.
	case err != nil:
		return fmt.Errorf("check station %d: %w", st.ID, tagCorruption(err))
	default:
		if !sameEntity(existingSystem, st.System) || !sameEntity(existingName, st.Name) {
			return &types.IdentityConflictError{
				ID:               st.ID,
				ExistingSystem:   existingSystem,
				ExistingStation:  existingName,
				RequestedSystem:  st.System,
				RequestedStation: st.Name,
			}
		}
	}

	if err := ensureSystemTx(tx, st.System); err != nil {
		return err
	}

	modified := st.Modified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	docking := st.DockingAccess
	if docking == "" {
		docking = types.DockingUnknown
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO stations
         (station_id, system_name, name, pad_size, market, outfitting, shipyard,
          station_type, carrier_docking_access, retired, modified)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.System, st.Name, st.PadSize,
		boolInt(st.Market), boolInt(st.Outfitting), boolInt(st.Shipyard),
		st.Type, docking, boolInt(st.Retired), modified.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert station %d: %w", st.ID, tagCorruption(err))
	}

	// An authoritative row supersedes any placeholder for the same pair.
	// The placeholder is flipped to retired, never deleted, so price rows
	// still pointing at it stay referentially intact until the next full
	// rebuild drops them.
	if st.ID >= 0 {
		res, err := tx.Exec(
			`UPDATE stations SET retired = 1
             WHERE station_id < 0 AND retired = 0 AND system_name = ? AND name = ?`,
			st.System, st.Name,
		)
		if err != nil {
			return fmt.Errorf("retire placeholders for %q/%q: %w", st.System, st.Name, tagCorruption(err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logging.L().Debugw("placeholder retired",
				"system", st.System, "station", st.Name, "superseded_by", st.ID)
		}
	}

	return nil
}

// SetDockingAccess updates a station's carrier docking access, the one
// station attribute live feed messages are authoritative for.
func (s *Store) SetDockingAccess(stationID int64, access string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	_, err := s.db.Exec(
		"UPDATE stations SET carrier_docking_access = ?, modified = ? WHERE station_id = ?",
		types.NormalizeDockingAccess(access), time.Now().UTC().Format(time.RFC3339), stationID,
	)
	if err != nil {
		return fmt.Errorf("set docking access for station %d: %w", stationID, tagCorruption(err))
	}
	return nil
}

// UpsertPrice inserts or replaces a single (station, commodity) price
// row. The commodity row is created on demand so the foreign key holds.
func (s *Store) UpsertPrice(p types.PriceEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin price upsert: %w", tagCorruption(err))
	}
	defer tx.Rollback()

	if err := upsertPriceTx(tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit price upsert: %w", tagCorruption(err))
	}
	return nil
}

func upsertPriceTx(tx *sql.Tx, p types.PriceEntry) error {
	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO commodities (name, display_name) VALUES (?, ?)",
		p.Commodity, p.Commodity,
	); err != nil {
		return fmt.Errorf("ensure commodity %q: %w", p.Commodity, tagCorruption(err))
	}

	_, err := tx.Exec(
		`INSERT OR REPLACE INTO prices
         (station_id, commodity, buy_price, sell_price, supply, supply_level,
          demand, demand_level, modified)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StationID, p.Commodity, p.BuyPrice, p.SellPrice,
		p.Supply, p.SupplyLevel, p.Demand, p.DemandLevel,
		p.Modified.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert price %d/%q: %w", p.StationID, p.Commodity, tagCorruption(err))
	}
	return nil
}

// ReplaceBoard replaces a station's entire price board in one
// transaction: the prior board is deleted and the new entries inserted
// as a single atomic unit. Boards are never field-merged with their own
// prior state.
func (s *Store) ReplaceBoard(stationID int64, entries []types.PriceEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin board replace: %w", tagCorruption(err))
	}
	defer tx.Rollback()

	if err := replaceBoardTx(tx, stationID, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit board replace: %w", tagCorruption(err))
	}
	return nil
}

func replaceBoardTx(tx *sql.Tx, stationID int64, entries []types.PriceEntry) error {
	if _, err := tx.Exec("DELETE FROM prices WHERE station_id = ?", stationID); err != nil {
		return fmt.Errorf("flush board for station %d: %w", stationID, tagCorruption(err))
	}
	for _, p := range entries {
		p.StationID = stationID
		if err := upsertPriceTx(tx, p); err != nil {
			return err
		}
	}
	return nil
}

// ensureSystemTx creates the owning system row with zeroed coordinates
// if it is missing, keeping the station foreign key intact. Coordinates
// arrive with the next galaxy-structure import.
func ensureSystemTx(tx *sql.Tx, name string) error {
	_, err := tx.Exec(
		"INSERT OR IGNORE INTO systems (name, added_at) VALUES (?, ?)",
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ensure system %q: %w", name, tagCorruption(err))
	}
	return nil
}

// sameEntity compares entity names the way the store does, NOCASE.
func sameEntity(a, b string) bool {
	return strings.EqualFold(a, b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
