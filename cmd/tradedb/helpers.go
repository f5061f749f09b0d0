// Shared helpers for tradedb CLI commands.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

// progressRound is the display granularity for import heartbeats.
const progressRound = 100 * time.Millisecond

// newTable returns a tabwriter for aligned column output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// orDash substitutes a dash for empty values in detail output.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printReport summarizes an import run on stdout.
func printReport(r types.Report) {
	fmt.Printf("run %s: %s in %s\n", r.RunID, r.Status, r.Finished.Sub(r.Started).Round(progressRound))
	fmt.Printf("  systems %d, stations %d, prices %d, placeholders %d\n",
		r.Counts.Systems, r.Counts.Stations, r.Counts.Prices, r.Counts.Placeholders)
	if r.Counts.Stale+r.Counts.Conflicts+r.Counts.Corrected+r.Counts.Duplicates+
		r.Counts.Unresolved+r.Counts.Malformed > 0 {
		fmt.Printf("  stale %d, conflicts %d, corrected %d, duplicates %d, unresolved %d, malformed %d\n",
			r.Counts.Stale, r.Counts.Conflicts, r.Counts.Corrected,
			r.Counts.Duplicates, r.Counts.Unresolved, r.Counts.Malformed)
	}
	if r.Err != nil {
		fmt.Printf("  error: %v\n", r.Err)
	}
}
