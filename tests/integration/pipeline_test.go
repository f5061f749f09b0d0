package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/importer"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/live"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// TestGalaxyImportThenLivePricing walks the canonical path: an
// authoritative galaxy import introduces a station, a live message
// prices it, and the board query sees the result.
func TestGalaxyImportThenLivePricing(t *testing.T) {
	store, _ := openStore(t)

	importGalaxy(t, store, galaxyAndere(time.Now()), importer.Options{}, types.RunSuccess)

	st, err := store.StationByName("Andere", "Kummer City")
	require.NoError(t, err)
	assert.EqualValues(t, 500, st.ID)
	assert.Equal(t, "L", st.PadSize)
	assert.Equal(t, types.DockingAll, st.DockingAccess)

	ingest(t, store, live.Options{}, marketMessage("Andere", "Kummer City", time.Now(),
		`{"name":"Titanium","buyPrice":100,"sellPrice":120,"stock":5000,"stockBracket":2}`))

	board, err := store.PriceBoard("Kummer City")
	require.NoError(t, err)
	require.Contains(t, board, "titanium")
	assert.EqualValues(t, 100, board["titanium"].Buy)
	assert.EqualValues(t, 120, board["titanium"].Sell)
}

// TestLiveMessageBeforeGalaxyImport prices an unknown station: the
// resolver must mint a placeholder and apply the board to it.
func TestLiveMessageBeforeGalaxyImport(t *testing.T) {
	store, _ := openStore(t)

	ingest(t, store, live.Options{}, marketMessage("Andere", "Ghost Outpost", time.Now(),
		`{"name":"Titanium","buyPrice":100,"sellPrice":120}`))

	st, err := store.StationByName("Andere", "Ghost Outpost")
	require.NoError(t, err)
	assert.True(t, st.IsPlaceholder(), "expected a negative placeholder id, got %d", st.ID)

	board, err := store.PriceBoardByID(st.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, board["titanium"].Buy)
}

// TestPlaceholderRetirement feeds prices for a station before its
// galaxy record arrives, then imports the real record: name lookups
// must re-resolve to the real identifier while the retired placeholder
// lingers until a rebuild.
func TestPlaceholderRetirement(t *testing.T) {
	store, _ := openStore(t)

	ingest(t, store, live.Options{}, marketMessage("Andere", "Kummer City", time.Now(),
		`{"name":"Titanium","buyPrice":90,"sellPrice":110}`))

	ph, err := store.StationByName("Andere", "Kummer City")
	require.NoError(t, err)
	require.True(t, ph.IsPlaceholder())

	importGalaxy(t, store, galaxyAndere(time.Now()), importer.Options{}, types.RunSuccess)

	st, err := store.StationByName("Andere", "Kummer City")
	require.NoError(t, err)
	assert.EqualValues(t, 500, st.ID, "lookup must prefer the real station")

	retired, err := store.StationByID(ph.ID)
	require.NoError(t, err)
	assert.True(t, retired.Retired)

	// New prices land on the real station.
	ingest(t, store, live.Options{}, marketMessage("Andere", "Kummer City", time.Now().Add(time.Minute),
		`{"name":"Titanium","buyPrice":100,"sellPrice":120}`))
	board, err := store.PriceBoardByID(500)
	require.NoError(t, err)
	assert.EqualValues(t, 100, board["titanium"].Buy)

	// The rebuild sweeps the retired row and its orphaned board.
	require.NoError(t, store.Rebuild())
	_, err = store.StationByID(ph.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// TestRepeatedImportIsIdempotent applies the same snapshot twice and
// expects identical catalog state and a clean status both times.
func TestRepeatedImportIsIdempotent(t *testing.T) {
	store, _ := openStore(t)
	fixture := galaxyAndere(time.Now())

	importGalaxy(t, store, fixture, importer.Options{}, types.RunSuccess)
	importGalaxy(t, store, fixture, importer.Options{}, types.RunSuccess)

	st, err := store.StationByName("Andere", "Kummer City")
	require.NoError(t, err)
	assert.EqualValues(t, 500, st.ID)
	assert.False(t, st.Retired)
}

// TestMaxAgeDemotesToPartial imports a snapshot whose station record is
// ten days old under a seven-day limit.
func TestMaxAgeDemotesToPartial(t *testing.T) {
	store, _ := openStore(t)

	report := importGalaxy(t, store,
		galaxyAndere(time.Now().AddDate(0, 0, -10)),
		importer.Options{MaxAge: 7}, types.RunPartial)
	assert.EqualValues(t, 1, report.Counts.Stale)

	_, err := store.StationByName("Andere", "Kummer City")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// TestListingsDuplicateBlockLastWins re-declares a station block later
// in one listings pass; the later block must fully replace the earlier.
func TestListingsDuplicateBlockLastWins(t *testing.T) {
	store, _ := openStore(t)
	ts := time.Now().UTC().Format(time.RFC3339)
	galaxy := fmt.Sprintf(`[
  {
    "name": "Andere",
    "coords": {"x": 55.71875, "y": 17.59375, "z": 27.15625},
    "stations": [
      {
        "id": 500,
        "name": "Kummer City",
        "type": "Coriolis Starport",
        "landingPadSize": "L",
        "services": ["Market"],
        "carrierDockingAccess": "all",
        "updateTime": %q
      },
      {
        "id": 501,
        "name": "Maher Stellar Research",
        "type": "Outpost",
        "landingPadSize": "M",
        "services": ["Market"],
        "carrierDockingAccess": "all",
        "updateTime": %q
      }
    ]
  }
]`, ts, ts)
	importGalaxy(t, store, galaxy, importer.Options{}, types.RunSuccess)

	now := time.Now().UTC().Format(time.RFC3339)
	listings := "station_id,commodity,supply,supply_level,buy_price,sell_price,demand,demand_level,collected_at\n" +
		fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", now) +
		fmt.Sprintf("500,Tritium,900,1,50000,51000,0,-1,%s\n", now) +
		fmt.Sprintf("501,Gold,200,1,9000,9400,0,-1,%s\n", now) +
		fmt.Sprintf("500,Titanium,4000,2,110,130,0,-1,%s\n", now)

	report, err := importer.NewRunner(store, importer.Options{
		ListingsPath: writeFile(t, "listings.csv", listings),
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RunSuccess, report.Status)
	assert.EqualValues(t, 1, report.Counts.Duplicates)

	board, err := store.PriceBoardByID(500)
	require.NoError(t, err)
	require.Len(t, board, 1, "second block must replace the first wholesale")
	assert.EqualValues(t, 110, board["titanium"].Buy)
	assert.EqualValues(t, 130, board["titanium"].Sell)
}

// TestIdentityConflictIsPerRecordFatal reuses an explicit station id
// for a different binding: that record is dropped, the run continues,
// and the prior binding survives.
func TestIdentityConflictIsPerRecordFatal(t *testing.T) {
	store, _ := openStore(t)
	importGalaxy(t, store, galaxyAndere(time.Now()), importer.Options{}, types.RunSuccess)

	conflicting := fmt.Sprintf(`[
  {
    "name": "Sol",
    "coords": {"x": 0, "y": 0, "z": 0},
    "stations": [
      {"id": 500, "name": "Abraham Lincoln", "landingPadSize": "L",
       "services": ["Market"], "updateTime": %q}
    ]
  }
]`, time.Now().UTC().Format(time.RFC3339))

	report := importGalaxy(t, store, conflicting, importer.Options{}, types.RunPartial)
	assert.EqualValues(t, 1, report.Counts.Conflicts)

	st, err := store.StationByID(500)
	require.NoError(t, err)
	assert.Equal(t, "Andere", st.System)
	assert.Equal(t, "Kummer City", st.Name)
}
