package sqlite

import (
	"errors"
	"testing"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

func TestResolveCreatesPlaceholder(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Resolve("Kummerland", "Ghost Outpost", StationHint{PadSize: "M"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id >= 0 {
		t.Fatalf("placeholder id = %d, want negative", id)
	}

	st, err := s.StationByID(id)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if !st.IsPlaceholder() {
		t.Error("created station not recognized as placeholder")
	}
	if st.PadSize != "M" {
		t.Errorf("hint pad size not applied: %q", st.PadSize)
	}
	if !st.Market {
		t.Error("placeholder created without a market flag")
	}
}

func TestResolveIsStableForSameReference(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Resolve("Kummerland", "Ghost Outpost", StationHint{})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := s.Resolve("KUMMERLAND", "ghost outpost", StationHint{})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Errorf("same reference resolved to %d then %d", first, second)
	}
}

func TestResolveAllocatesDecreasingIDs(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Resolve("Kummerland", "Ghost Outpost", StationHint{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := s.Resolve("Kummerland", "Second Ghost", StationHint{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b >= a {
		t.Errorf("ids not strictly decreasing: %d then %d", a, b)
	}
}

func TestResolvePrefersRealStation(t *testing.T) {
	s := newTestStore(t)

	mustUpsertStation(t, s, types.Station{ID: 500, System: "Andere", Name: "Kummer City"})

	id, err := s.Resolve("Andere", "Kummer City", StationHint{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != 500 {
		t.Errorf("Resolve = %d, want existing real id 500", id)
	}
}

func TestResolveExistingUnknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ResolveExisting("Nowhere", "No Port")
	if !errors.Is(err, types.ErrUnresolvedReference) {
		t.Fatalf("ResolveExisting on unknown reference: got %v, want ErrUnresolvedReference", err)
	}
}

func TestPlaceholderCounterSeedsFromStore(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	if err := s.Open(types.Config{DataDir: dir}); err != nil {
		t.Fatalf("open store: %v", err)
	}

	first, err := s.Resolve("Kummerland", "Ghost Outpost", StationHint{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s = NewStore()
	if err := s.Open(types.Config{DataDir: dir}); err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	second, err := s.Resolve("Kummerland", "Second Ghost", StationHint{})
	if err != nil {
		t.Fatalf("Resolve after reopen: %v", err)
	}
	if second >= first {
		t.Errorf("counter not seeded below existing ids: %d then %d", first, second)
	}
}
