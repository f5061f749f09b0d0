// This file implements the price-listings import: a CSV dump of
// station boards, one row per (station, commodity) observation, grouped
// into per-station blocks. A block replaces the station's whole board;
// a later block for the same station within one pass replaces the
// earlier one with a diagnostic.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/metrics"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// listingsColumns is the expected CSV shape:
// station_id,commodity,supply,supply_level,buy_price,sell_price,demand,demand_level,collected_at
const listingsColumns = 9

// importListings streams a price-listings dump into the store.
func (r *Runner) importListings(ctx context.Context, log *zap.SugaredLogger) error {
	in, err := openDump(r.opts.ListingsPath)
	if err != nil {
		return err
	}
	defer in.Close()

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	parse := func(ctx context.Context, out chan<- []string) error {
		header := true
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := cr.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read listings row: %w", err)
			}
			if header {
				header = false
				if len(row) > 0 && row[0] == "station_id" {
					continue
				}
			}
			select {
			case out <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Rows arrive grouped by station; a station change flushes the
	// accumulated block as one wholesale board replacement.
	var (
		blockID      int64
		block        []types.PriceEntry
		seenStations = make(map[int64]bool)
	)

	flush := func() error {
		if blockID == 0 {
			return nil
		}
		err := r.flushBoard(blockID, block, seenStations, log)
		blockID = 0
		block = nil
		return err
	}

	apply := func(row []string) error {
		r.tick()

		entry, err := r.parseListingRow(row)
		if err != nil {
			if errors.Is(err, types.ErrStaleRecord) {
				r.counts.Stale++
				recordSkip("listings", "stale")
			} else {
				r.counts.Malformed++
				recordSkip("listings", "malformed")
				log.Debugw("malformed listings row", "error", err)
			}
			return nil
		}

		if entry.StationID != blockID {
			if err := flush(); err != nil {
				return err
			}
			blockID = entry.StationID
		}
		block = append(block, entry)
		return nil
	}

	if err := pipeline(ctx, parse, apply); err != nil {
		return err
	}
	return flush()
}

// parseListingRow converts one CSV row into a PriceEntry. Rejected rows
// come back as an error: ErrStaleRecord for rows past the age limit,
// anything else for a malformed row.
func (r *Runner) parseListingRow(row []string) (types.PriceEntry, error) {
	if len(row) != listingsColumns {
		return types.PriceEntry{}, fmt.Errorf("expected %d columns, got %d", listingsColumns, len(row))
	}

	stationID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil || stationID == 0 {
		return types.PriceEntry{}, fmt.Errorf("bad station id %q", row[0])
	}

	nums := make([]int64, 6)
	for i, field := range row[2:8] {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return types.PriceEntry{}, fmt.Errorf("bad numeric field %q", field)
		}
		nums[i] = n
	}

	modified := parseSourceTime(row[8])
	if r.tooOld(modified) {
		return types.PriceEntry{}, fmt.Errorf("collected %s: %w", row[8], types.ErrStaleRecord)
	}

	return types.PriceEntry{
		StationID:   stationID,
		Commodity:   types.NormalizeSymbol(row[1]),
		Supply:      nums[0],
		SupplyLevel: nums[1],
		BuyPrice:    nums[2],
		SellPrice:   nums[3],
		Demand:      nums[4],
		DemandLevel: nums[5],
		Modified:    modified,
	}, nil
}

// flushBoard applies one accumulated station block.
func (r *Runner) flushBoard(stationID int64, block []types.PriceEntry, seen map[int64]bool, log *zap.SugaredLogger) error {
	if seen[stationID] {
		r.counts.Duplicates++
		log.Infow("duplicate station block, replacing earlier one", "station_id", stationID)
	}
	seen[stationID] = true

	st, err := r.store.StationByID(stationID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		if !r.opts.IgnoreUnknown {
			return fmt.Errorf("station %d: %w", stationID, types.ErrUnresolvedReference)
		}
		r.counts.Unresolved++
		recordSkip("listings", "unresolved")
		return nil
	}

	entries := block[:0]
	for _, e := range block {
		_, _, commodity, drop := r.store.CorrectRecord(st.System, st.Name, e.Commodity)
		if drop {
			r.counts.Corrected++
			recordSkip("listings", "corrected")
			continue
		}
		if commodity != e.Commodity {
			r.counts.Corrected++
			e.Commodity = commodity
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil
	}

	if err := r.store.ReplaceBoard(stationID, entries); err != nil {
		return err
	}
	r.counts.Prices += int64(len(entries))
	metrics.RecordsImported.WithLabelValues("listings").Add(float64(len(entries)))
	return nil
}
