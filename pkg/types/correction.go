package types

import "strings"

// Correction actions.
const (
	CorrectionDelete = "delete"
	CorrectionRename = "rename"
)

// CorrectionRule is a standing mapping that deletes or rewrites a
// specific known-bad (system, station, commodity) triple encountered
// during import, applied uniformly regardless of source. Empty fields
// act as wildcards for matching; at least one of System, Station, or
// Commodity must be set.
type CorrectionRule struct {
	System    string
	Station   string
	Commodity string
	Action    string // CorrectionDelete or CorrectionRename.
	NewName   string // Replacement name for rename rules.
}

// Matches reports whether the rule applies to the given triple. Names
// are compared case-insensitively; empty rule fields match anything.
func (r CorrectionRule) Matches(system, station, commodity string) bool {
	if r.System != "" && !strings.EqualFold(r.System, system) {
		return false
	}
	if r.Station != "" && !strings.EqualFold(r.Station, station) {
		return false
	}
	if r.Commodity != "" && !strings.EqualFold(r.Commodity, commodity) {
		return false
	}
	return true
}
