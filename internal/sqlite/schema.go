// Package sqlite implements the on-disk market data store: the entity
// catalog, the placeholder resolver, schema migrations, correction
// rules, and the read-only query surface consumed by the route
// optimizer. The SQLite file is the single source of persisted state;
// a .bak copy is written before any destructive rebuild.
package sqlite

// Baseline DDL (schema version 1). Stations carry an explicit,
// source-assigned identifier; the table has no surrogate key. Name
// columns collate NOCASE so source spelling differences never split an
// entity in two.
const (
	createSystems = `CREATE TABLE IF NOT EXISTS systems (
    name TEXT PRIMARY KEY COLLATE NOCASE,
    x REAL NOT NULL DEFAULT 0,
    y REAL NOT NULL DEFAULT 0,
    z REAL NOT NULL DEFAULT 0,
    added_at TEXT NOT NULL
);`

	createStations = `CREATE TABLE IF NOT EXISTS stations (
    station_id INTEGER PRIMARY KEY,
    system_name TEXT NOT NULL COLLATE NOCASE,
    name TEXT NOT NULL COLLATE NOCASE,
    pad_size TEXT NOT NULL DEFAULT '',
    market INTEGER NOT NULL DEFAULT 0,
    outfitting INTEGER NOT NULL DEFAULT 0,
    shipyard INTEGER NOT NULL DEFAULT 0,
    modified TEXT,
    FOREIGN KEY (system_name) REFERENCES systems(name)
);`

	createCommodities = `CREATE TABLE IF NOT EXISTS commodities (
    name TEXT PRIMARY KEY COLLATE NOCASE,
    category TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT ''
);`

	createPrices = `CREATE TABLE IF NOT EXISTS prices (
    station_id INTEGER NOT NULL,
    commodity TEXT NOT NULL COLLATE NOCASE,
    buy_price INTEGER NOT NULL DEFAULT 0,
    sell_price INTEGER NOT NULL DEFAULT 0,
    supply INTEGER NOT NULL DEFAULT 0,
    supply_level INTEGER NOT NULL DEFAULT -1,
    demand INTEGER NOT NULL DEFAULT 0,
    demand_level INTEGER NOT NULL DEFAULT -1,
    modified TEXT NOT NULL,
    PRIMARY KEY (station_id, commodity),
    FOREIGN KEY (station_id) REFERENCES stations(station_id),
    FOREIGN KEY (commodity) REFERENCES commodities(name)
);`
)

// Index DDL for the hot lookups: station resolution by (system, name),
// board reads by station, and radius scans over systems.
const (
	idxStationsSystemName = `CREATE INDEX IF NOT EXISTS idx_stations_system_name ON stations(system_name, name);`
	idxStationsName       = `CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(name);`
	idxPricesCommodity    = `CREATE INDEX IF NOT EXISTS idx_prices_commodity ON prices(commodity);`
)

// Carrier metadata columns added in schema version 2. ALTERs are
// tolerated as already-applied when the column exists so migrations stay
// idempotent.
const (
	alterStationsType    = `ALTER TABLE stations ADD COLUMN station_type TEXT NOT NULL DEFAULT '';`
	alterStationsDocking = `ALTER TABLE stations ADD COLUMN carrier_docking_access TEXT NOT NULL DEFAULT 'unknown';`
	alterStationsRetired = `ALTER TABLE stations ADD COLUMN retired INTEGER NOT NULL DEFAULT 0;`
)

// baselineDDL lists the version-1 statements in dependency order.
var baselineDDL = []string{
	createSystems,
	createStations,
	createCommodities,
	createPrices,
	idxStationsSystemName,
	idxStationsName,
	idxPricesCommodity,
}

// carrierDDL lists the version-2 statements.
var carrierDDL = []string{
	alterStationsType,
	alterStationsDocking,
	alterStationsRetired,
}
