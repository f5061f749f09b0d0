package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal status of an ingestion run.
type RunStatus string

const (
	RunSuccess RunStatus = "success" // Every record applied or deliberately filtered.
	RunPartial RunStatus = "partial" // Completed, but some records were skipped or failed.
	RunFailed  RunStatus = "failed"  // The run itself aborted.
)

// Progress is one heartbeat from a running import, emitted every few
// thousand records so external supervision can tell a slow run from a
// hung one.
type Progress struct {
	Records int64
	Elapsed time.Duration
}

// ProgressFunc receives progress heartbeats. Implementations must not
// block; they are called from the apply loop.
type ProgressFunc func(Progress)

// Counts tallies per-record outcomes for one run.
type Counts struct {
	Systems      int64 // Systems created or updated.
	Stations     int64 // Stations created or updated.
	Prices       int64 // Price rows written.
	Placeholders int64 // Synthetic stations created.
	Stale        int64 // Records skipped for exceeding max age.
	Conflicts    int64 // Records dropped for identity conflicts.
	Corrected    int64 // Records rewritten or deleted by correction rules.
	Duplicates   int64 // In-pass duplicate station blocks replaced.
	Unresolved   int64 // Records skipped for unresolvable references.
	Malformed    int64 // Records that failed to parse.
}

// Report is the final status of one ingestion run.
type Report struct {
	RunID    string
	Status   RunStatus
	Counts   Counts
	Started  time.Time
	Finished time.Time
	Err      error // Terminal error for failed runs.
}

// NewRunID returns a fresh identifier for an ingestion run.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// StatusFor derives the terminal status from the run's counts: any
// skipped, conflicting, or malformed records demote success to partial.
func (c Counts) StatusFor() RunStatus {
	if c.Stale > 0 || c.Conflicts > 0 || c.Unresolved > 0 || c.Malformed > 0 {
		return RunPartial
	}
	return RunSuccess
}
