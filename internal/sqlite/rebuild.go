// This file implements the two rebuild paths: the reconciling full
// rebuild that drops retired placeholders and their orphaned boards, and
// the structural rebuild that recreates a physically damaged store from
// the seed templates. Both are exclusive: no writer task may overlap
// them, and both write a .bak copy before touching anything.
package sqlite

import (
	"fmt"
	"os"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// Rebuild reconciles the store: retired placeholder stations and any
// price rows still pointing at them are dropped, correction rules are
// re-applied, and the file is compacted. Callers must pause all writer
// tasks first; Rebuild enforces exclusivity through the task lock.
func (s *Store) Rebuild() error {
	s.tasks.Lock()
	defer s.tasks.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	if _, err := backupFile(s.path); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	// Orphaned boards go first so the station foreign key never dangles.
	res, err := tx.Exec(
		`DELETE FROM prices WHERE station_id IN
         (SELECT station_id FROM stations WHERE retired = 1)`,
	)
	if err != nil {
		return fmt.Errorf("drop orphaned boards: %w", err)
	}
	orphans, _ := res.RowsAffected()

	res, err = tx.Exec("DELETE FROM stations WHERE retired = 1")
	if err != nil {
		return fmt.Errorf("drop retired placeholders: %w", err)
	}
	retired, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}

	if err := applyCorrections(s.db, s.rules); err != nil {
		return fmt.Errorf("reapply corrections: %w", err)
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("compact store: %w", err)
	}

	s.qc.Flush()
	logging.L().Infow("store rebuilt",
		"retired_placeholders", retired, "orphaned_prices", orphans)
	return nil
}

// RebuildStructural recreates a physically damaged store from scratch:
// a backup copy is taken, the damaged file is removed, and a fresh
// schema is built from the source-of-truth templates. Catalog contents
// come back with the next imports.
func (s *Store) RebuildStructural() error {
	s.tasks.Lock()
	defer s.tasks.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.ErrStoreClosed
	}

	bakPath, err := backupFile(s.path)
	if err != nil {
		return err
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logging.L().Warnw("closing damaged store", "error", err)
		}
		s.db = nil
	}

	// The WAL and shared-memory sidecars belong to the damaged file.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove damaged store: %w", err)
		}
	}

	if err := s.openDB(); err != nil {
		return err
	}
	if err := s.initSchema(); err != nil {
		return fmt.Errorf("rebuild schema: %w", err)
	}

	s.qc.Flush()
	logging.L().Warnw("store structurally rebuilt after corruption", "backup", bakPath)
	return nil
}
