// This file implements the read-only query surface consumed by the
// route optimizer and the reporting commands. Multi-row reads run inside
// a snapshot transaction so a concurrent import is never half-visible.
package sqlite

import (
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// StationDistance pairs a station with its distance from a query origin.
type StationDistance struct {
	Station    types.Station
	DistanceLy float64
}

const stationColumns = `station_id, system_name, name, pad_size, market, outfitting,
        shipyard, station_type, carrier_docking_access, retired, modified`

// SystemByName returns the system with the given name.
func (s *Store) SystemByName(name string) (types.System, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.System{}, types.ErrStoreClosed
	}

	row := s.db.QueryRow("SELECT name, x, y, z, added_at FROM systems WHERE name = ?", name)
	return hydrateSystem(row)
}

// StationByName resolves a station by name, preferring live rows over
// retired placeholders and real identifiers over synthetic ones, so a
// board query made after placeholder retirement lands on the real
// station. An optional system narrows the lookup.
func (s *Store) StationByName(system, station string) (types.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.Station{}, types.ErrStoreClosed
	}

	query := "SELECT " + stationColumns + " FROM stations WHERE name = ? AND retired = 0"
	args := []any{station}
	if system != "" {
		query += " AND system_name = ?"
		args = append(args, system)
	}
	query += " ORDER BY (station_id >= 0) DESC, station_id DESC LIMIT 1"

	st, err := hydrateStation(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return types.Station{}, fmt.Errorf("station %q: %w", station, types.ErrNotFound)
	}
	if err != nil {
		return types.Station{}, fmt.Errorf("lookup station %q: %w", station, err)
	}
	return st, nil
}

// StationByID returns the station with the given explicit identifier,
// retired or not.
func (s *Store) StationByID(id int64) (types.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.Station{}, types.ErrStoreClosed
	}

	st, err := hydrateStation(s.db.QueryRow(
		"SELECT "+stationColumns+" FROM stations WHERE station_id = ?", id,
	))
	if err == sql.ErrNoRows {
		return types.Station{}, fmt.Errorf("station %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Station{}, fmt.Errorf("lookup station %d: %w", id, err)
	}
	return st, nil
}

// PriceBoard returns a station's full current board as a
// commodity → {buy, sell} mapping, resolving the station by name.
func (s *Store) PriceBoard(station string) (map[string]types.PriceLevel, error) {
	st, err := s.StationByName("", station)
	if err != nil {
		return nil, err
	}
	return s.PriceBoardByID(st.ID)
}

// PriceBoardByID returns the board for an explicit station identifier.
func (s *Store) PriceBoardByID(stationID int64) (map[string]types.PriceLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		"SELECT commodity, buy_price, sell_price FROM prices WHERE station_id = ?",
		stationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query board %d: %w", stationID, err)
	}
	defer rows.Close()

	board := make(map[string]types.PriceLevel)
	for rows.Next() {
		var commodity string
		var level types.PriceLevel
		if err := rows.Scan(&commodity, &level.Buy, &level.Sell); err != nil {
			return nil, fmt.Errorf("scan board row: %w", err)
		}
		board[commodity] = level
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate board %d: %w", stationID, err)
	}
	return board, nil
}

// Nearby returns tradeable stations within radiusLy of the named
// system, ordered by distance. Results are cached briefly; the cache is
// flushed whenever a galaxy import changes the map.
func (s *Store) Nearby(system string, radiusLy float64) ([]StationDistance, error) {
	cacheKey := fmt.Sprintf("nearby/%s/%.2f", system, radiusLy)
	if cached, ok := s.qc.Get(cacheKey); ok {
		// Callers get their own slice; the cached one must stay intact.
		return slices.Clone(cached.([]StationDistance)), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, types.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin nearby read: %w", err)
	}
	defer tx.Rollback()

	origin, err := hydrateSystem(tx.QueryRow(
		"SELECT name, x, y, z, added_at FROM systems WHERE name = ?", system,
	))
	if err != nil {
		return nil, err
	}

	// Cube pre-filter in SQL, exact sphere check in Go.
	rows, err := tx.Query(
		`SELECT st.station_id, st.system_name, st.name, st.pad_size, st.market,
                st.outfitting, st.shipyard, st.station_type,
                st.carrier_docking_access, st.retired, st.modified,
                sy.x, sy.y, sy.z
         FROM stations st
         JOIN systems sy ON sy.name = st.system_name
         WHERE st.retired = 0
           AND sy.x BETWEEN ? AND ? AND sy.y BETWEEN ? AND ? AND sy.z BETWEEN ? AND ?`,
		origin.X-radiusLy, origin.X+radiusLy,
		origin.Y-radiusLy, origin.Y+radiusLy,
		origin.Z-radiusLy, origin.Z+radiusLy,
	)
	if err != nil {
		return nil, fmt.Errorf("query nearby stations: %w", err)
	}
	defer rows.Close()

	var results []StationDistance
	for rows.Next() {
		var st types.Station
		var market, outfitting, shipyard, retired int
		var modified sql.NullString
		var x, y, z float64
		if err := rows.Scan(
			&st.ID, &st.System, &st.Name, &st.PadSize, &market, &outfitting,
			&shipyard, &st.Type, &st.DockingAccess, &retired, &modified,
			&x, &y, &z,
		); err != nil {
			return nil, fmt.Errorf("scan nearby station: %w", err)
		}
		st.Market = market != 0
		st.Outfitting = outfitting != 0
		st.Shipyard = shipyard != 0
		st.Retired = retired != 0
		st.Modified = parseModified(modified)

		if !st.Tradeable() {
			continue
		}
		d := origin.DistanceTo(types.System{X: x, Y: y, Z: z})
		if d > radiusLy {
			continue
		}
		results = append(results, StationDistance{Station: st, DistanceLy: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby stations: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].DistanceLy < results[j].DistanceLy })

	s.qc.SetDefault(cacheKey, results)
	return slices.Clone(results), nil
}

// DestinationsFrom returns the stations reachable from the given origin
// station within maxJumpsPerHop jumps of at most maxLyPerJump each.
// Retired placeholders and carriers without public docking access are
// never returned. The origin station itself is excluded.
func (s *Store) DestinationsFrom(stationID int64, maxJumpsPerHop int, maxLyPerJump float64) ([]types.Station, error) {
	origin, err := s.StationByID(stationID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dest/%d/%d/%.2f", stationID, maxJumpsPerHop, maxLyPerJump)
	if cached, ok := s.qc.Get(cacheKey); ok {
		return slices.Clone(cached.([]types.Station)), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, types.ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin destinations read: %w", err)
	}
	defer tx.Rollback()

	systems, err := loadSystems(tx)
	if err != nil {
		return nil, err
	}

	reached := reachableSystems(systems, origin.System, maxJumpsPerHop, maxLyPerJump)

	var out []types.Station
	for name := range reached {
		stations, err := stationsInSystem(tx, name)
		if err != nil {
			return nil, err
		}
		for _, st := range stations {
			if st.ID == origin.ID || !st.Tradeable() {
				continue
			}
			out = append(out, st)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	s.qc.SetDefault(cacheKey, out)
	return slices.Clone(out), nil
}

// reachableSystems runs a breadth-first expansion over the system map:
// one level per jump, each edge at most maxLyPerJump long.
func reachableSystems(systems map[string]types.System, origin string, maxJumps int, maxLy float64) map[string]bool {
	reached := map[string]bool{origin: true}
	frontier := []string{origin}

	for jump := 0; jump < maxJumps && len(frontier) > 0; jump++ {
		var next []string
		for _, from := range frontier {
			fromSys, ok := systems[from]
			if !ok {
				continue
			}
			for name, sys := range systems {
				if reached[name] {
					continue
				}
				if fromSys.DistanceTo(sys) <= maxLy {
					reached[name] = true
					next = append(next, name)
				}
			}
		}
		frontier = next
	}
	return reached
}

func loadSystems(tx *sql.Tx) (map[string]types.System, error) {
	rows, err := tx.Query("SELECT name, x, y, z, added_at FROM systems")
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()

	systems := make(map[string]types.System)
	for rows.Next() {
		var sys types.System
		var addedAt string
		if err := rows.Scan(&sys.Name, &sys.X, &sys.Y, &sys.Z, &addedAt); err != nil {
			return nil, fmt.Errorf("scan system: %w", err)
		}
		sys.AddedAt, _ = time.Parse(time.RFC3339, addedAt)
		systems[sys.Name] = sys
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate systems: %w", err)
	}
	return systems, nil
}

func stationsInSystem(tx *sql.Tx, system string) ([]types.Station, error) {
	rows, err := tx.Query(
		"SELECT "+stationColumns+" FROM stations WHERE system_name = ? AND retired = 0",
		system,
	)
	if err != nil {
		return nil, fmt.Errorf("query stations in %q: %w", system, err)
	}
	defer rows.Close()

	var out []types.Station
	for rows.Next() {
		st, err := hydrateStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station in %q: %w", system, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations in %q: %w", system, err)
	}
	return out, nil
}

// rowScanner abstracts sql.Row and sql.Rows for the hydrate helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func hydrateSystem(row rowScanner) (types.System, error) {
	var sys types.System
	var addedAt string
	if err := row.Scan(&sys.Name, &sys.X, &sys.Y, &sys.Z, &addedAt); err != nil {
		if err == sql.ErrNoRows {
			return types.System{}, fmt.Errorf("system: %w", types.ErrNotFound)
		}
		return types.System{}, fmt.Errorf("scan system: %w", err)
	}
	sys.AddedAt, _ = time.Parse(time.RFC3339, addedAt)
	return sys, nil
}

func hydrateStation(row rowScanner) (types.Station, error) {
	var st types.Station
	var market, outfitting, shipyard, retired int
	var modified sql.NullString
	if err := row.Scan(
		&st.ID, &st.System, &st.Name, &st.PadSize, &market, &outfitting,
		&shipyard, &st.Type, &st.DockingAccess, &retired, &modified,
	); err != nil {
		return types.Station{}, err
	}
	st.Market = market != 0
	st.Outfitting = outfitting != 0
	st.Shipyard = shipyard != 0
	st.Retired = retired != 0
	st.Modified = parseModified(modified)
	return st, nil
}

func parseModified(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, v.String)
	return t
}
