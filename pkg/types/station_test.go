package types

import "testing"

func TestStationIsPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "negative id is a placeholder", id: -1, want: true},
		{name: "deeply negative id is a placeholder", id: -99999, want: true},
		{name: "zero id is real", id: 0, want: false},
		{name: "positive id is real", id: 500, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Station{ID: tt.id}
			if got := s.IsPlaceholder(); got != tt.want {
				t.Fatalf("IsPlaceholder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStationTradeable(t *testing.T) {
	tests := []struct {
		name    string
		station Station
		want    bool
	}{
		{
			name:    "ordinary station is tradeable",
			station: Station{ID: 1, Type: "Coriolis"},
			want:    true,
		},
		{
			name:    "retired placeholder is not tradeable",
			station: Station{ID: -2, Retired: true},
			want:    false,
		},
		{
			name:    "public carrier is tradeable",
			station: Station{ID: 3, Type: StationTypeFleetCarrier, DockingAccess: DockingAll},
			want:    true,
		},
		{
			name:    "squadron carrier is not tradeable",
			station: Station{ID: 4, Type: StationTypeFleetCarrier, DockingAccess: DockingSquadron},
			want:    false,
		},
		{
			name:    "carrier with unknown access is not tradeable",
			station: Station{ID: 5, Type: StationTypeFleetCarrier, DockingAccess: DockingUnknown},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.station.Tradeable(); got != tt.want {
				t.Fatalf("Tradeable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeDockingAccess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"all", DockingAll},
		{"All", DockingAll},
		{" ALL ", DockingAll},
		{"squadronfriends", DockingSquadronFriend},
		{"Friends", DockingFriends},
		{"", DockingUnknown},
		{"open-to-some", DockingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeDockingAccess(tt.in); got != tt.want {
				t.Fatalf("NormalizeDockingAccess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
