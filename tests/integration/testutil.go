// Package integration exercises the full ingestion pipeline: store
// lifecycle, bulk imports, live feed application, and recovery paths,
// through the same package APIs the CLI uses.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/importer"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/live"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/sqlite"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// openStore opens a store in a fresh temp directory.
func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := sqlite.NewStore()
	require.NoError(t, s.Open(types.Config{DataDir: dir}))
	t.Cleanup(func() { s.Close() })
	return s, dir
}

// writeFile drops fixture content into a temp file and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// galaxyAndere is a one-system galaxy snapshot: Andere with Kummer City
// (id 500, pad L, publicly docked).
func galaxyAndere(updateTime time.Time) string {
	return fmt.Sprintf(`[
  {
    "name": "Andere",
    "coords": {"x": 55.71875, "y": 17.59375, "z": 27.15625},
    "stations": [
      {
        "id": 500,
        "name": "Kummer City",
        "type": "Coriolis Starport",
        "landingPadSize": "L",
        "services": ["Market", "Outfitting", "Shipyard"],
        "carrierDockingAccess": "all",
        "updateTime": %q
      }
    ]
  }
]`, updateTime.UTC().Format(time.RFC3339))
}

// importGalaxy runs a galaxy import and requires the expected status.
func importGalaxy(t *testing.T, store *sqlite.Store, fixture string, opts importer.Options, want types.RunStatus) types.Report {
	t.Helper()
	opts.GalaxyPath = writeFile(t, "galaxy.json", fixture)
	report, err := importer.NewRunner(store, opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, report.Status, "counts: %+v", report.Counts)
	return report
}

// marketMessage builds one live feed line for a station board.
func marketMessage(system, station string, ts time.Time, commodities string) string {
	return fmt.Sprintf(`{"timestamp":%q,"systemName":%q,"stationName":%q,"commodities":[%s]}`,
		ts.UTC().Format(time.RFC3339), system, station, commodities)
}

// ingest replays feed lines through an Ingestor until they are
// exhausted.
func ingest(t *testing.T, store *sqlite.Store, opts live.Options, lines ...string) *live.Ingestor {
	t.Helper()
	feed := &replayFeed{lines: lines}
	ing := live.NewIngestor(store, feed, opts)
	require.NoError(t, ing.Run(context.Background()))
	return ing
}

// replayFeed serves fixed lines, then reports cancellation.
type replayFeed struct {
	lines []string
	idx   int
}

func (f *replayFeed) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.idx >= len(f.lines) {
		return nil, context.Canceled
	}
	line := f.lines[f.idx]
	f.idx++
	return []byte(line), nil
}

func (f *replayFeed) Close() error { return nil }
