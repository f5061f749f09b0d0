package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// seedGalaxy builds a small linear map: Sol at the origin, Alpha 4 ly
// out, Beta 8 ly out, each with one orbital station.
func seedGalaxy(t *testing.T, s *Store) {
	t.Helper()
	systems := []types.System{
		{Name: "Sol", X: 0, Y: 0, Z: 0},
		{Name: "Alpha", X: 4, Y: 0, Z: 0},
		{Name: "Beta", X: 8, Y: 0, Z: 0},
	}
	for _, sys := range systems {
		if err := s.UpsertSystem(sys); err != nil {
			t.Fatalf("upsert system %q: %v", sys.Name, err)
		}
	}
	mustUpsertStation(t, s, types.Station{ID: 1, System: "Sol", Name: "Abraham Lincoln", Market: true})
	mustUpsertStation(t, s, types.Station{ID: 2, System: "Alpha", Name: "Hutton Orbital", Market: true})
	mustUpsertStation(t, s, types.Station{ID: 3, System: "Beta", Name: "Far Dock", Market: true})
}

func TestStationByNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	st, err := s.StationByName("sol", "ABRAHAM LINCOLN")
	if err != nil {
		t.Fatalf("StationByName: %v", err)
	}
	if st.ID != 1 {
		t.Errorf("resolved id %d, want 1", st.ID)
	}
}

func TestStationByNameUnknown(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	_, err := s.StationByName("Sol", "No Such Port")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("unknown station: got %v, want ErrNotFound", err)
	}
}

func TestPriceBoard(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	now := time.Now().UTC()
	entries := []types.PriceEntry{
		{StationID: 1, Commodity: "titanium", BuyPrice: 100, SellPrice: 120, Supply: 5000, Modified: now},
		{StationID: 1, Commodity: "tritium", BuyPrice: 50000, SellPrice: 51000, Modified: now},
	}
	if err := s.ReplaceBoard(1, entries); err != nil {
		t.Fatalf("ReplaceBoard: %v", err)
	}

	board, err := s.PriceBoard("Abraham Lincoln")
	if err != nil {
		t.Fatalf("PriceBoard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("board has %d entries, want 2", len(board))
	}
	if got := board["titanium"]; got.Buy != 100 || got.Sell != 120 {
		t.Errorf("titanium = %+v, want buy 100 sell 120", got)
	}
}

func TestNearbyRadiusAndOrdering(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	tests := []struct {
		name    string
		radius  float64
		wantIDs []int64
	}{
		{name: "tight", radius: 1, wantIDs: []int64{1}},
		{name: "one hop", radius: 5, wantIDs: []int64{1, 2}},
		{name: "whole map", radius: 10, wantIDs: []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Nearby("Sol", tt.radius)
			if err != nil {
				t.Fatalf("Nearby: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d stations, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].Station.ID != want {
					t.Errorf("result[%d].ID = %d, want %d", i, got[i].Station.ID, want)
				}
			}
		})
	}
}

func TestNearbyExcludesPrivateCarriers(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	mustUpsertStation(t, s, types.Station{
		ID: 3700000001, System: "Sol", Name: "X9Z-42B", Market: true,
		Type: types.StationTypeFleetCarrier, DockingAccess: types.DockingSquadron,
	})
	mustUpsertStation(t, s, types.Station{
		ID: 3700000002, System: "Sol", Name: "K2F-11A", Market: true,
		Type: types.StationTypeFleetCarrier, DockingAccess: types.DockingAll,
	})
	s.InvalidateQueryCache()

	got, err := s.Nearby("Sol", 1)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	ids := make(map[int64]bool, len(got))
	for _, sd := range got {
		ids[sd.Station.ID] = true
	}
	if ids[3700000001] {
		t.Error("carrier without public docking listed as nearby")
	}
	if !ids[3700000002] {
		t.Error("publicly docked carrier missing from nearby results")
	}
}

func TestNearbyResultsAreIsolatedFromCache(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	first, err := s.Nearby("Sol", 10)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("no nearby results to mutate")
	}
	first[0].Station.Name = "Scribbled Over"
	first[0].DistanceLy = -1

	second, err := s.Nearby("Sol", 10)
	if err != nil {
		t.Fatalf("Nearby (cached): %v", err)
	}
	if second[0].Station.Name == "Scribbled Over" || second[0].DistanceLy < 0 {
		t.Error("mutating a Nearby result leaked into the cached copy")
	}
}

func TestDestinationsResultsAreIsolatedFromCache(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	first, err := s.DestinationsFrom(1, 2, 5)
	if err != nil {
		t.Fatalf("DestinationsFrom: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("no destinations to mutate")
	}
	first[0].Name = "Scribbled Over"

	second, err := s.DestinationsFrom(1, 2, 5)
	if err != nil {
		t.Fatalf("DestinationsFrom (cached): %v", err)
	}
	if second[0].Name == "Scribbled Over" {
		t.Error("mutating a DestinationsFrom result leaked into the cached copy")
	}
}

func TestDestinationsFrom(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	tests := []struct {
		name    string
		jumps   int
		maxLy   float64
		wantIDs []int64
	}{
		{name: "single short jump", jumps: 1, maxLy: 5, wantIDs: []int64{2}},
		{name: "two jumps chain", jumps: 2, maxLy: 5, wantIDs: []int64{2, 3}},
		{name: "range too short", jumps: 3, maxLy: 2, wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.DestinationsFrom(1, tt.jumps, tt.maxLy)
			if err != nil {
				t.Fatalf("DestinationsFrom: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d destinations, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("destination[%d].ID = %d, want %d", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestDestinationsFromUnknownOrigin(t *testing.T) {
	s := newTestStore(t)
	seedGalaxy(t, s)

	_, err := s.DestinationsFrom(9999, 1, 10)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("unknown origin: got %v, want ErrNotFound", err)
	}
}
