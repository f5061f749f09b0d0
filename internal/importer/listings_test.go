package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/sqlite"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

const listingsHeader = "station_id,commodity,supply,supply_level,buy_price,sell_price,demand,demand_level,collected_at\n"

// seedStations puts two known stations into the store.
func seedStations(t *testing.T, store *sqlite.Store) {
	t.Helper()
	for _, st := range []types.Station{
		{ID: 500, System: "Andere", Name: "Kummer City", PadSize: "L", Market: true, DockingAccess: types.DockingUnknown},
		{ID: 501, System: "Andere", Name: "Maher Stellar Research", PadSize: "M", Market: true, DockingAccess: types.DockingUnknown},
	} {
		if err := store.UpsertStation(st); err != nil {
			t.Fatalf("seed station: %v", err)
		}
	}
}

func TestListingsImport(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	now := time.Now().UTC().Format(time.RFC3339)
	fixture := listingsHeader +
		fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", now) +
		fmt.Sprintf("500,Tritium,900,1,50000,51000,0,-1,%s\n", now) +
		fmt.Sprintf("501,Titanium,0,-1,0,140,3000,3,%s\n", now)

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status != types.RunSuccess {
		t.Fatalf("status = %q (counts %+v)", report.Status, report.Counts)
	}
	if report.Counts.Prices != 3 {
		t.Errorf("prices = %d, want 3", report.Counts.Prices)
	}

	board, err := store.PriceBoardByID(500)
	if err != nil {
		t.Fatalf("PriceBoardByID: %v", err)
	}
	if got := board["titanium"]; got.Buy != 100 || got.Sell != 120 {
		t.Errorf("titanium = %+v, want buy 100 sell 120", got)
	}
	if got := board["tritium"]; got.Buy != 50000 || got.Sell != 51000 {
		t.Errorf("tritium = %+v", got)
	}
}

func TestListingsDuplicateBlockLastWins(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	now := time.Now().UTC().Format(time.RFC3339)
	fixture := listingsHeader +
		fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", now) +
		fmt.Sprintf("500,Tritium,900,1,50000,51000,0,-1,%s\n", now) +
		fmt.Sprintf("501,Titanium,0,-1,0,140,3000,3,%s\n", now) +
		fmt.Sprintf("500,Titanium,4000,2,110,130,0,-1,%s\n", now)

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Counts.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", report.Counts.Duplicates)
	}
	if report.Status != types.RunSuccess {
		t.Errorf("status = %q, duplicate blocks alone should stay success", report.Status)
	}

	board, err := store.PriceBoardByID(500)
	if err != nil {
		t.Fatalf("PriceBoardByID: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("board has %d entries, want 1 (second block replaces wholesale)", len(board))
	}
	if got := board["titanium"]; got.Buy != 110 || got.Sell != 130 {
		t.Errorf("titanium = %+v, want buy 110 sell 130", got)
	}
}

func TestListingsUnknownStation(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	fixture := listingsHeader + fmt.Sprintf("999,Titanium,100,1,10,12,0,-1,%s\n", now)

	t.Run("aborts without ignoreUnknown", func(t *testing.T) {
		store := newTestStore(t)
		seedStations(t, store)
		runner := NewRunner(store, Options{
			ListingsPath: writeFixture(t, "listings.csv", fixture),
		})
		report, err := runner.Run(context.Background())
		if !errors.Is(err, types.ErrUnresolvedReference) {
			t.Fatalf("Run: got %v, want ErrUnresolvedReference", err)
		}
		if report.Status != types.RunFailed {
			t.Errorf("status = %q, want failed", report.Status)
		}
	})

	t.Run("skipped with ignoreUnknown", func(t *testing.T) {
		store := newTestStore(t)
		seedStations(t, store)
		runner := NewRunner(store, Options{
			ListingsPath:  writeFixture(t, "listings.csv", fixture),
			IgnoreUnknown: true,
		})
		report, err := runner.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if report.Status != types.RunPartial {
			t.Errorf("status = %q, want partial", report.Status)
		}
		if report.Counts.Unresolved != 1 {
			t.Errorf("unresolved = %d, want 1", report.Counts.Unresolved)
		}
	})
}

func TestListingsMaxAge(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	now := time.Now().UTC()
	fixture := listingsHeader +
		fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", now.Format(time.RFC3339)) +
		fmt.Sprintf("500,Tritium,900,1,50000,51000,0,-1,%s\n", now.AddDate(0, 0, -10).Format(time.RFC3339))

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
		MaxAge:       7,
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status != types.RunPartial {
		t.Fatalf("status = %q, want partial", report.Status)
	}
	if report.Counts.Stale != 1 || report.Counts.Prices != 1 {
		t.Errorf("counts = %+v, want 1 stale, 1 price", report.Counts)
	}

	board, err := store.PriceBoardByID(500)
	if err != nil {
		t.Fatalf("PriceBoardByID: %v", err)
	}
	if _, ok := board["tritium"]; ok {
		t.Error("stale row applied to the board")
	}
}

func TestListingsLiveVariantSkipsAgeCheck(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	fixture := listingsHeader + fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", old)

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
		MaxAge:       7,
		LiveListings: true,
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Counts.Stale != 0 || report.Counts.Prices != 1 {
		t.Errorf("counts = %+v, want 0 stale, 1 price", report.Counts)
	}
}

func TestListingsCorrectionRename(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	now := time.Now().UTC().Format(time.RFC3339)
	fixture := listingsHeader + fmt.Sprintf("500,Drones,100,1,101,99,0,-1,%s\n", now)

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Counts.Corrected != 1 {
		t.Errorf("corrected = %d, want 1", report.Counts.Corrected)
	}

	board, err := store.PriceBoardByID(500)
	if err != nil {
		t.Fatalf("PriceBoardByID: %v", err)
	}
	if _, ok := board["drones"]; ok {
		t.Error("retired symbol applied to the board")
	}
	if got := board["limpet"]; got.Buy != 101 || got.Sell != 99 {
		t.Errorf("limpet = %+v, want buy 101 sell 99", got)
	}
}

func TestParseListingRowClassifiesRejections(t *testing.T) {
	store := newTestStore(t)
	runner := NewRunner(store, Options{MaxAge: 7})

	old := time.Now().AddDate(0, 0, -10).UTC().Format(time.RFC3339)
	tests := []struct {
		name      string
		row       []string
		wantStale bool
	}{
		{
			name:      "past age limit",
			row:       []string{"500", "Titanium", "5000", "2", "100", "120", "0", "-1", old},
			wantStale: true,
		},
		{
			name: "short row",
			row:  []string{"500", "Titanium"},
		},
		{
			name: "bad numeric field",
			row:  []string{"500", "Titanium", "zero", "2", "100", "120", "0", "-1", old},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.parseListingRow(tt.row)
			if err == nil {
				t.Fatal("row accepted, want rejection")
			}
			if got := errors.Is(err, types.ErrStaleRecord); got != tt.wantStale {
				t.Errorf("errors.Is(ErrStaleRecord) = %v, want %v (err: %v)", got, tt.wantStale, err)
			}
		})
	}
}

func TestListingsMalformedRows(t *testing.T) {
	store := newTestStore(t)
	seedStations(t, store)

	now := time.Now().UTC().Format(time.RFC3339)
	fixture := listingsHeader +
		fmt.Sprintf("500,Titanium,5000,2,100,120,0,-1,%s\n", now) +
		fmt.Sprintf("501,Titanium,zero,-1,0,140,3000,3,%s\n", now)

	runner := NewRunner(store, Options{
		ListingsPath: writeFixture(t, "listings.csv", fixture),
	})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status != types.RunPartial {
		t.Fatalf("status = %q, want partial", report.Status)
	}
	if report.Counts.Malformed != 1 || report.Counts.Prices != 1 {
		t.Errorf("counts = %+v, want 1 malformed, 1 price", report.Counts)
	}
}
