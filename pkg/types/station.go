package types

import (
	"strings"
	"time"
)

// Docking access values for fleet carriers. Only DockingAll is treated as
// publicly tradeable; everything else is invisible to the route optimizer.
const (
	DockingAll            = "all"
	DockingFriends        = "friends"
	DockingSquadron       = "squadron"
	DockingSquadronFriend = "squadronfriends"
	DockingUnknown        = "unknown"
)

// validDockingAccess is the set of recognized docking-access values.
var validDockingAccess = map[string]bool{
	DockingAll:            true,
	DockingFriends:        true,
	DockingSquadron:       true,
	DockingSquadronFriend: true,
	DockingUnknown:        true,
}

// NormalizeDockingAccess lower-cases a source-provided docking access
// value and maps anything unrecognized to DockingUnknown.
func NormalizeDockingAccess(v string) string {
	lowered := strings.ToLower(strings.TrimSpace(v))
	if validDockingAccess[lowered] {
		return lowered
	}
	return DockingUnknown
}

// Station type reported by data sources for fleet carriers.
const StationTypeFleetCarrier = "FleetCarrier"

// Station is a dockable facility owned by exactly one System.
//
// The primary key is an explicit identifier assigned by the data source;
// the table has no surrogate key, so every insert carries a caller-chosen
// ID. Identifiers from real sources are non-negative; synthetic rows
// created by the placeholder resolver use strictly negative identifiers,
// so the two ranges can never collide.
type Station struct {
	ID            int64  // Explicit identifier; negative for placeholders.
	System        string // Owning system name.
	Name          string // Station name, matched case-insensitively.
	PadSize       string // Largest landing pad: "S", "M", "L", or "".
	Market        bool
	Outfitting    bool
	Shipyard      bool
	Type          string // Source station type, e.g. "FleetCarrier".
	DockingAccess string // One of the Docking* constants.
	Retired       bool   // Superseded placeholder; kept until next rebuild.
	Modified      time.Time
}

// IsPlaceholder reports whether the station is a synthetic row created by
// the placeholder resolver.
func (s Station) IsPlaceholder() bool {
	return s.ID < 0
}

// IsCarrier reports whether the station is a fleet carrier.
func (s Station) IsCarrier() bool {
	return s.Type == StationTypeFleetCarrier
}

// Tradeable reports whether the optimizer may route through this station:
// not a retired placeholder, and if it is a carrier, publicly docked.
func (s Station) Tradeable() bool {
	if s.Retired {
		return false
	}
	if s.IsCarrier() {
		return s.DockingAccess == DockingAll
	}
	return true
}
