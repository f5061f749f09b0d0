// This file implements the ingestor loop: pull messages from the feed,
// resolve the station, and apply each message as one atomic board
// replacement. The loop runs until its context is canceled and supports
// a pause handshake so an exclusive store rebuild can run underneath it.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/sqlite"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// Options configures message filtering.
type Options struct {
	// CarrierOnly ingests only fleet carrier messages.
	CarrierOnly bool
	// PublicOnly drops carrier messages whose docking access is not
	// public.
	PublicOnly bool
}

// Stats counts ingestor outcomes since start.
type Stats struct {
	Received  int64
	Applied   int64
	Filtered  int64 // Dropped by CarrierOnly/PublicOnly or corrections.
	Stale     int64 // Older than the station's last applied message.
	Malformed int64
}

// Ingestor applies live feed messages to the store.
type Ingestor struct {
	store *sqlite.Store
	feed  Feed
	opts  Options

	mu     sync.Mutex
	paused bool
	gate   chan struct{}
	stats  Stats

	// lastApplied is the per-station dedupe horizon: messages at or
	// before a station's last applied timestamp are ignored.
	lastApplied map[int64]time.Time
}

// NewIngestor returns an Ingestor reading from feed into store.
func NewIngestor(store *sqlite.Store, feed Feed, opts Options) *Ingestor {
	return &Ingestor{
		store:       store,
		feed:        feed,
		opts:        opts,
		lastApplied: make(map[int64]time.Time),
	}
}

// Run pulls and applies messages until ctx is canceled. Feed trouble is
// handled inside the feed; nothing short of cancellation or a store
// failure stops the loop.
func (i *Ingestor) Run(ctx context.Context) error {
	log := logging.L()
	log.Infow("live ingest starting",
		"carrier_only", i.opts.CarrierOnly, "public_only", i.opts.PublicOnly)

	for {
		if err := i.waitIfPaused(ctx); err != nil {
			return i.stopReason(err)
		}

		line, err := i.feed.Next(ctx)
		if err != nil {
			return i.stopReason(err)
		}

		if err := i.apply(line, log); err != nil {
			return err
		}
	}
}

// stopReason maps context cancellation to a clean stop.
func (i *Ingestor) stopReason(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logging.L().Infow("live ingest stopping", "stats", i.Stats())
		return nil
	}
	return err
}

// apply processes one feed line.
func (i *Ingestor) apply(line []byte, log *zap.SugaredLogger) error {
	i.mu.Lock()
	i.stats.Received++
	i.mu.Unlock()

	msg, err := parseMessage(line)
	if err != nil {
		i.count(func(s *Stats) { s.Malformed++ })
		metrics.RecordsSkipped.WithLabelValues("live", "malformed").Inc()
		log.Debugw("malformed feed message", "error", err)
		return nil
	}

	if i.opts.CarrierOnly && !msg.IsCarrier() {
		i.count(func(s *Stats) { s.Filtered++ })
		metrics.RecordsSkipped.WithLabelValues("live", "filtered").Inc()
		return nil
	}
	if i.opts.PublicOnly && msg.IsCarrier() &&
		types.NormalizeDockingAccess(msg.CarrierDockingAccess) != types.DockingAll {
		i.count(func(s *Stats) { s.Filtered++ })
		metrics.RecordsSkipped.WithLabelValues("live", "filtered").Inc()
		return nil
	}

	system, station, _, drop := i.store.CorrectRecord(msg.SystemName, msg.StationName, "")
	if drop {
		i.count(func(s *Stats) { s.Filtered++ })
		metrics.RecordsSkipped.WithLabelValues("live", "corrected").Inc()
		return nil
	}

	// One shared writer task per message; a rebuild waiting on the
	// exclusive lock gets its window between messages.
	release := i.store.BeginTask()
	defer release()

	stationID, err := i.store.Resolve(system, station, sqlite.StationHint{
		Type:          msg.StationType,
		DockingAccess: msg.CarrierDockingAccess,
	})
	if err != nil {
		return err
	}

	ts := msg.Time()
	i.mu.Lock()
	last := i.lastApplied[stationID]
	i.mu.Unlock()
	if !ts.IsZero() && !ts.After(last) {
		i.count(func(s *Stats) { s.Stale++ })
		metrics.RecordsSkipped.WithLabelValues("live", "stale").Inc()
		log.Debugw("feed message at or behind last applied, ignoring",
			"station_id", stationID, "timestamp", ts)
		return nil
	}

	entries := i.correctedBoard(msg, stationID)
	if err := i.store.ReplaceBoard(stationID, entries); err != nil {
		return err
	}

	if msg.CarrierDockingAccess != "" {
		if err := i.store.SetDockingAccess(stationID, msg.CarrierDockingAccess); err != nil {
			return err
		}
	}

	i.mu.Lock()
	if !ts.IsZero() {
		i.lastApplied[stationID] = ts
	}
	i.stats.Applied++
	i.mu.Unlock()
	metrics.MessagesApplied.Inc()
	log.Debugw("feed message applied",
		"system", system, "station", station,
		"station_id", stationID, "commodities", len(entries))
	return nil
}

// correctedBoard converts message commodities to price entries, running
// each through the correction rules.
func (i *Ingestor) correctedBoard(msg Message, stationID int64) []types.PriceEntry {
	raw := msg.board(stationID)
	entries := raw[:0]
	for _, e := range raw {
		_, _, commodity, drop := i.store.CorrectRecord(msg.SystemName, msg.StationName, e.Commodity)
		if drop {
			continue
		}
		e.Commodity = commodity
		entries = append(entries, e)
	}
	return entries
}

// count mutates the stats under the lock.
func (i *Ingestor) count(f func(*Stats)) {
	i.mu.Lock()
	f(&i.stats)
	i.mu.Unlock()
}

// Stats returns a snapshot of the ingestor counters.
func (i *Ingestor) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

// Pause blocks the loop before its next message. It does not interrupt
// a message already being applied; callers pairing Pause with an
// exclusive rebuild are covered because the rebuild itself waits for
// in-flight writer tasks.
func (i *Ingestor) Pause() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.paused {
		i.paused = true
		i.gate = make(chan struct{})
	}
}

// Resume releases a paused loop.
func (i *Ingestor) Resume() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.paused {
		i.paused = false
		close(i.gate)
	}
}

// waitIfPaused blocks while the ingestor is paused.
func (i *Ingestor) waitIfPaused(ctx context.Context) error {
	i.mu.Lock()
	paused, gate := i.paused, i.gate
	i.mu.Unlock()
	if !paused {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
