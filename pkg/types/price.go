package types

import "time"

// PriceEntry is one (station, commodity) price observation. There is one
// row per pair; refreshes overwrite, they never append. This is the
// highest-churn table in the store.
type PriceEntry struct {
	StationID   int64
	Commodity   string // Normalized symbol.
	BuyPrice    int64  // Credits to buy one unit from the station.
	SellPrice   int64  // Credits received selling one unit to the station.
	Supply      int64  // Units the station has in stock.
	SupplyLevel int64  // Source-provided bracket, -1 when unknown.
	Demand      int64
	DemandLevel int64
	Modified    time.Time // Observation timestamp from the source.
}

// PriceLevel is the optimizer-facing projection of a PriceEntry.
type PriceLevel struct {
	Buy  int64
	Sell int64
}
