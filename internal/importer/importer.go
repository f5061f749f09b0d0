// Package importer merges bulk snapshot dumps into the local store:
// galaxy-structure snapshots (systems, stations, services, carrier
// docking access) and community price listings. Dumps are streamed a
// record at a time and may be gzip-compressed; the whole file is never
// held in memory.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/sqlite"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// progressEvery is the default heartbeat interval in records.
const progressEvery = 5000

// Options configures one import run.
type Options struct {
	// GalaxyPath is a galaxy-structure snapshot to merge, empty to skip.
	GalaxyPath string
	// ListingsPath is a price-listings dump to merge, empty to skip.
	ListingsPath string
	// IgnoreUnknown skips records referencing unknown entities instead
	// of aborting the run.
	IgnoreUnknown bool
	// MaxAge rejects source rows older than this many days. Zero
	// disables the age check.
	MaxAge int
	// Force skips the pre-run integrity check.
	Force bool
	// Optimize compacts the store after a successful run.
	Optimize bool
	// LiveListings marks the listings dump as the fast-changing live
	// variant, which carries no age filtering.
	LiveListings bool
	// Progress, when set, receives a heartbeat every ProgressEvery
	// records.
	Progress types.ProgressFunc
	// ProgressEvery overrides the heartbeat interval. Zero means the
	// default.
	ProgressEvery int
}

// Runner executes import runs against one store.
type Runner struct {
	store *sqlite.Store
	opts  Options

	// pass performs one full pass over the configured inputs. Defaults
	// to runOnce; recovery tests substitute failing passes here.
	pass func(context.Context, *zap.SugaredLogger) error

	counts types.Counts
	seen   int64
	start  time.Time
}

// NewRunner returns a Runner for the given store and options.
func NewRunner(store *sqlite.Store, opts Options) *Runner {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = progressEvery
	}
	r := &Runner{store: store, opts: opts}
	r.pass = r.runOnce
	return r
}

// Run executes the import described by the Runner's options and returns
// a report. The returned error is non-nil only when the run itself
// failed; per-record problems are counted and demote the status to
// partial instead.
func (r *Runner) Run(ctx context.Context) (types.Report, error) {
	report := types.Report{
		RunID:   types.NewRunID(),
		Started: time.Now().UTC(),
	}
	r.counts = types.Counts{}
	r.seen = 0
	r.start = report.Started

	log := logging.L().With("run_id", report.RunID)
	log.Infow("import starting",
		"galaxy", r.opts.GalaxyPath, "listings", r.opts.ListingsPath,
		"max_age_days", r.opts.MaxAge, "corrections", len(r.store.Rules()))

	if !r.opts.Force {
		if err := r.preflight(log); err != nil {
			return r.finish(report, err, log), err
		}
	}

	err := r.pass(ctx, log)
	if errors.Is(err, types.ErrStoreCorruption) {
		// One recovery attempt: back up, rebuild the structure from the
		// seed templates, and retry the whole run. A second corruption
		// failure is fatal; the backup stays on disk.
		log.Warnw("store corruption mid-run, rebuilding", "error", err)
		if rbErr := r.store.RebuildStructural(); rbErr != nil {
			return r.finish(report, rbErr, log), rbErr
		}
		r.counts = types.Counts{}
		r.seen = 0
		err = r.pass(ctx, log)
	}
	if err != nil {
		return r.finish(report, err, log), err
	}

	if r.opts.Optimize {
		if err := r.store.Optimize(); err != nil {
			log.Warnw("post-import optimize failed", "error", err)
		}
	}

	return r.finish(report, nil, log), nil
}

// preflight verifies store integrity before the run touches anything.
// A corrupt store gets one backup-and-rebuild attempt.
func (r *Runner) preflight(log *zap.SugaredLogger) error {
	err := r.store.Check()
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrStoreCorruption) {
		return err
	}
	log.Warnw("store corruption detected before import, rebuilding", "error", err)
	return r.store.RebuildStructural()
}

// runOnce performs a single pass over the configured inputs.
func (r *Runner) runOnce(ctx context.Context, log *zap.SugaredLogger) error {
	release := r.store.BeginTask()
	defer release()

	if r.opts.GalaxyPath != "" {
		if err := r.importGalaxy(ctx, log); err != nil {
			return err
		}
		r.store.InvalidateQueryCache()
	}
	if r.opts.ListingsPath != "" {
		if err := r.importListings(ctx, log); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) finish(report types.Report, err error, log *zap.SugaredLogger) types.Report {
	report.Finished = time.Now().UTC()
	report.Counts = r.counts
	if err != nil {
		report.Status = types.RunFailed
		report.Err = err
		log.Errorw("import failed", "error", err, "elapsed", report.Finished.Sub(report.Started))
		return report
	}
	report.Status = r.counts.StatusFor()
	log.Infow("import finished",
		"status", report.Status,
		"systems", r.counts.Systems,
		"stations", r.counts.Stations,
		"prices", r.counts.Prices,
		"placeholders", r.counts.Placeholders,
		"stale", r.counts.Stale,
		"conflicts", r.counts.Conflicts,
		"corrected", r.counts.Corrected,
		"duplicates", r.counts.Duplicates,
		"unresolved", r.counts.Unresolved,
		"malformed", r.counts.Malformed,
		"elapsed", report.Finished.Sub(report.Started))
	return report
}

// tick advances the record counter, emitting a heartbeat when due.
func (r *Runner) tick() {
	r.seen++
	if r.opts.Progress != nil && r.seen%int64(r.opts.ProgressEvery) == 0 {
		r.opts.Progress(types.Progress{
			Records: r.seen,
			Elapsed: time.Since(r.start),
		})
	}
}

// tooOld reports whether a source timestamp exceeds the configured max
// age. Live-variant listings are never age-filtered.
func (r *Runner) tooOld(modified time.Time) bool {
	if r.opts.MaxAge <= 0 || r.opts.LiveListings {
		return false
	}
	if modified.IsZero() {
		return false
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -r.opts.MaxAge)
	return modified.Before(cutoff)
}

// openDump opens a dump file, transparently unwrapping gzip when the
// magic bytes say so.
func openDump(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}

	br := bufio.NewReaderSize(f, 1<<16)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("read dump header: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip dump: %w", err)
		}
		return &gzipDump{gz: gz, f: f}, nil
	}
	return &plainDump{r: br, f: f}, nil
}

type gzipDump struct {
	gz *gzip.Reader
	f  *os.File
}

func (d *gzipDump) Read(p []byte) (int, error) { return d.gz.Read(p) }

func (d *gzipDump) Close() error {
	gzErr := d.gz.Close()
	if err := d.f.Close(); err != nil {
		return err
	}
	return gzErr
}

type plainDump struct {
	r *bufio.Reader
	f *os.File
}

func (d *plainDump) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *plainDump) Close() error { return d.f.Close() }

// pipeline runs a parse stage and an apply stage as a two-goroutine
// errgroup over a records channel. Cancellation is cooperative at
// record boundaries: the parse stage checks the context before every
// send and the apply stage before every record.
func pipeline[T any](ctx context.Context, parse func(ctx context.Context, out chan<- T) error, apply func(rec T) error) error {
	grp, ctx := errgroup.WithContext(ctx)
	records := make(chan T, 256)

	grp.Go(func() error {
		defer close(records)
		return parse(ctx, records)
	})
	grp.Go(func() error {
		for rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := apply(rec); err != nil {
				return err
			}
		}
		return nil
	})
	return grp.Wait()
}

// recordSkip counts a skipped record with a metrics label.
func recordSkip(source, reason string) {
	metrics.RecordsSkipped.WithLabelValues(source, reason).Inc()
}
