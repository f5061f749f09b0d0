package types

import (
	"math"
	"time"
)

// System is a star system. Systems are keyed by name and are immutable
// once created except for coordinate correction by an authoritative
// galaxy-structure import.
type System struct {
	Name    string    // Unique name, matched case-insensitively.
	X, Y, Z float64   // Galactic coordinates in light years.
	AddedAt time.Time // When the row was first created.
}

// DistanceTo returns the straight-line distance to other in light years.
func (s System) DistanceTo(other System) float64 {
	dx := s.X - other.X
	dy := s.Y - other.Y
	dz := s.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
