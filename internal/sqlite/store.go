package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// StoreFileName is the single on-disk relational store file.
const StoreFileName = "tradedb.db"

// BackupSuffix is appended to the store file for the backup copy taken
// before any destructive rebuild.
const BackupSuffix = ".bak"

// Store wraps the SQLite database holding the market catalog.
//
// Concurrency model: any number of reader-class queries may run
// alongside writer-class tasks (bulk import, live ingest); SQLite in WAL
// mode serializes the physical writes. Writer tasks hold the task lock
// shared; a full structural rebuild holds it exclusively, so no writer
// can overlap a rebuild.
type Store struct {
	mu     sync.RWMutex // guards open/close state
	tasks  sync.RWMutex // shared: writer task; exclusive: rebuild
	open   bool
	config types.Config
	db     *sql.DB
	path   string

	// Placeholder allocator state, seeded from store contents at Open.
	phMu            sync.Mutex
	nextPlaceholder int64

	rules []types.CorrectionRule
	qc    *cache.Cache // radius/destination query cache
}

// NewStore creates an unopened Store; call Open with a Config.
func NewStore() *Store {
	return &Store{
		rules: defaultCorrections,
		qc:    cache.New(time.Minute, 5*time.Minute),
	}
}

// Open initializes the store: creates DataDir if needed, opens (or
// creates) the store file, runs an integrity check, applies schema
// migrations and correction rules, and seeds the placeholder allocator.
//
// A physically damaged store fails with ErrStoreCorruption but keeps
// the handle open so callers that want the backup+rebuild+retry
// behavior (the bulk importer) can respond with RebuildStructural.
// Everything else on such a store is undefined until it is rebuilt or
// closed.
func (s *Store) Open(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	s.config = config
	s.path = filepath.Join(config.DataDir, StoreFileName)

	if err := s.openDB(); err != nil {
		if errors.Is(err, types.ErrStoreCorruption) {
			s.open = true
			return err
		}
		return err
	}

	if err := s.initSchema(); err != nil {
		if errors.Is(err, types.ErrStoreCorruption) {
			s.open = true
			return err
		}
		s.db.Close()
		s.db = nil
		return err
	}

	s.open = true
	return nil
}

// openDB opens the store file and applies connection pragmas. WAL keeps
// readers consistent while writers commit; the busy timeout resolves
// writer-writer contention by waiting instead of failing.
func (s *Store) openDB() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			if isCorruptionErr(err) {
				return fmt.Errorf("apply %q: %w", pragma, types.ErrStoreCorruption)
			}
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s.db = db
	return nil
}

// initSchema runs the integrity check, migrations, seed templates, the
// correction rules, and the placeholder allocator seeding. Split from
// Open so a structural rebuild can reuse it.
func (s *Store) initSchema() error {
	if err := checkIntegrity(s.db); err != nil {
		return err
	}
	if err := applyMigrations(s.db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := seedCommodities(s.db); err != nil {
		return fmt.Errorf("seed commodities: %w", err)
	}
	if err := applyCorrections(s.db, s.rules); err != nil {
		return fmt.Errorf("apply corrections: %w", err)
	}
	if err := s.seedPlaceholderCounter(); err != nil {
		return fmt.Errorf("seed placeholder counter: %w", err)
	}
	return nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}

	s.open = false
	return nil
}

// Path returns the store file location.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return 0, types.ErrStoreClosed
	}
	return schemaVersion(s.db)
}

// Check runs a quick integrity check against the open store.
func (s *Store) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}
	if s.db == nil {
		// Degraded-open state after a failed Open.
		return types.ErrStoreCorruption
	}
	return checkIntegrity(s.db)
}

// BeginTask marks the start of a writer-class task (bulk import or live
// ingest). Tasks share the lock with each other but exclude a rebuild.
// The returned release function must be called when the task ends.
func (s *Store) BeginTask() (release func()) {
	s.tasks.RLock()
	return s.tasks.RUnlock
}

// InvalidateQueryCache drops all cached radius and destination results.
// Called after galaxy-structure imports change the map.
func (s *Store) InvalidateQueryCache() {
	s.qc.Flush()
}

// Optimize compacts the store file. Expensive; only run when asked.
func (s *Store) Optimize() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.ErrStoreClosed
	}
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum store: %w", err)
	}
	return nil
}

// checkIntegrity maps a failed quick_check to ErrStoreCorruption.
func checkIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA quick_check(1)").Scan(&result); err != nil {
		if isCorruptionErr(err) {
			return fmt.Errorf("quick_check: %w", types.ErrStoreCorruption)
		}
		return fmt.Errorf("quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check reported %q: %w", result, types.ErrStoreCorruption)
	}
	return nil
}

// tagCorruption attaches ErrStoreCorruption to driver errors caused by
// physical store damage, so write paths surface it through their usual
// wrapping and the importer can trigger its backup-and-rebuild retry.
// Other errors pass through unchanged.
func tagCorruption(err error) error {
	if isCorruptionErr(err) {
		return fmt.Errorf("%v: %w", err, types.ErrStoreCorruption)
	}
	return err
}

// isCorruptionErr recognizes the driver messages that indicate physical
// store damage.
func isCorruptionErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "malformed database schema")
}

// backupFile copies the store file to path+BackupSuffix, replacing any
// prior backup.
func backupFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open store for backup: %w", err)
	}
	defer src.Close()

	bakPath := path + BackupSuffix
	dst, err := os.Create(bakPath)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return "", fmt.Errorf("sync backup: %w", err)
	}

	logging.L().Infow("store backup written", "path", bakPath)
	return bakPath, nil
}
