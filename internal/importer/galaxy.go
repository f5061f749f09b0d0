// This file implements the galaxy-structure import: a JSON array of
// system records, streamed one element at a time through a token loop.
// Galaxy snapshots are authoritative for coordinates, services, pad
// sizes, and carrier docking access.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// galaxySystem is one element of a galaxy-structure snapshot.
type galaxySystem struct {
	Name     string          `json:"name"`
	Coords   galaxyCoords    `json:"coords"`
	Stations []galaxyStation `json:"stations"`
}

type galaxyCoords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type galaxyStation struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	LandingPadSize       string   `json:"landingPadSize"`
	Services             []string `json:"services"`
	CarrierDockingAccess string   `json:"carrierDockingAccess"`
	UpdateTime           string   `json:"updateTime"`
}

// importGalaxy streams a galaxy-structure snapshot into the catalog.
func (r *Runner) importGalaxy(ctx context.Context, log *zap.SugaredLogger) error {
	in, err := openDump(r.opts.GalaxyPath)
	if err != nil {
		return err
	}
	defer in.Close()

	dec := json.NewDecoder(in)

	// The parse stage only splits the stream; decoding happens in the
	// apply stage so all count bookkeeping stays on one goroutine.
	parse := func(ctx context.Context, out chan<- json.RawMessage) error {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read galaxy snapshot: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("galaxy snapshot is not a JSON array (got %v)", tok)
		}

		for dec.More() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("read galaxy record: %w", err)
			}
			select {
			case out <- raw:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("read galaxy snapshot close: %w", err)
		}
		return nil
	}

	apply := func(raw json.RawMessage) error {
		var rec galaxySystem
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Name == "" {
			r.tick()
			r.counts.Malformed++
			recordSkip("galaxy", "malformed")
			return nil
		}
		return r.applyGalaxySystem(rec, log)
	}

	return pipeline(ctx, parse, apply)
}

// applyGalaxySystem merges one system record and its stations.
func (r *Runner) applyGalaxySystem(rec galaxySystem, log *zap.SugaredLogger) error {
	r.tick()

	err := r.store.UpsertSystem(types.System{
		Name: rec.Name,
		X:    rec.Coords.X,
		Y:    rec.Coords.Y,
		Z:    rec.Coords.Z,
	})
	if err != nil {
		return err
	}
	r.counts.Systems++
	metrics.RecordsImported.WithLabelValues("galaxy").Inc()

	for _, gs := range rec.Stations {
		if gs.Name == "" {
			r.counts.Malformed++
			recordSkip("galaxy", "malformed")
			continue
		}

		modified := parseSourceTime(gs.UpdateTime)
		if r.tooOld(modified) {
			r.counts.Stale++
			recordSkip("galaxy", "stale")
			continue
		}

		system, station, _, drop := r.store.CorrectRecord(rec.Name, gs.Name, "")
		if drop {
			r.counts.Corrected++
			recordSkip("galaxy", "corrected")
			continue
		}
		if system != rec.Name || station != gs.Name {
			r.counts.Corrected++
		}

		st := types.Station{
			ID:            gs.ID,
			System:        system,
			Name:          station,
			PadSize:       strings.ToUpper(strings.TrimSpace(gs.LandingPadSize)),
			Market:        hasService(gs.Services, "market"),
			Outfitting:    hasService(gs.Services, "outfitting"),
			Shipyard:      hasService(gs.Services, "shipyard"),
			Type:          gs.Type,
			DockingAccess: types.NormalizeDockingAccess(gs.CarrierDockingAccess),
			Modified:      modified,
		}
		if err := r.store.UpsertStation(st); err != nil {
			if errors.Is(err, types.ErrIdentityConflict) {
				r.counts.Conflicts++
				recordSkip("galaxy", "conflict")
				log.Warnw("station identity conflict", "error", err)
				continue
			}
			return err
		}
		r.counts.Stations++
		metrics.RecordsImported.WithLabelValues("galaxy").Inc()
	}
	return nil
}

// hasService reports whether the service list names the given service,
// case-insensitively.
func hasService(services []string, name string) bool {
	for _, s := range services {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// sourceTimeLayouts are the timestamp shapes seen across snapshot
// producers.
var sourceTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// parseSourceTime parses a source timestamp, returning the zero time
// for anything unrecognized.
func parseSourceTime(s string) time.Time {
	s = strings.TrimSuffix(strings.TrimSpace(s), "+00")
	for _, layout := range sourceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
