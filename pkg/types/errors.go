package types

import (
	"errors"
	"fmt"
)

// Store lifecycle and per-record errors.
var (
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrStoreCorruption indicates the on-disk store is physically
	// damaged. The bulk importer responds with backup, structural
	// rebuild, and exactly one retry before going fatal.
	ErrStoreCorruption = errors.New("store corruption detected")

	// ErrIdentityConflict indicates an explicit station identifier was
	// reused for a different (system, name) pair. Fatal to that single
	// record, never to the run.
	ErrIdentityConflict = errors.New("station identity conflict")

	// ErrUnresolvedReference indicates a record referenced an entity the
	// catalog could not resolve and placeholder creation was disabled.
	ErrUnresolvedReference = errors.New("unresolved entity reference")

	// ErrStaleRecord marks a source row older than the configured
	// maximum age. Stale rows are skipped and counted, not failed.
	ErrStaleRecord = errors.New("record older than max age")

	// ErrFeedDisconnected indicates the live feed connection dropped.
	// Recoverable: the ingestor reconnects with backoff.
	ErrFeedDisconnected = errors.New("live feed disconnected")

	// ErrNotFound is returned by lookups for unknown entities.
	ErrNotFound = errors.New("not found")
)

// IdentityConflictError carries the colliding identifier and both
// bindings. It unwraps to ErrIdentityConflict.
type IdentityConflictError struct {
	ID               int64
	ExistingSystem   string
	ExistingStation  string
	RequestedSystem  string
	RequestedStation string
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("station id %d already bound to %q/%q, refused rebind to %q/%q",
		e.ID, e.ExistingSystem, e.ExistingStation, e.RequestedSystem, e.RequestedStation)
}

func (e *IdentityConflictError) Unwrap() error { return ErrIdentityConflict }
