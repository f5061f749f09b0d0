// The import command merges bulk snapshot dumps into the store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/importer"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

var (
	importGalaxyFlag    string
	importListingsFlag  string
	importIgnoreUnknown bool
	importMaxAge        int
	importForce         bool
	importOptimize      bool
	importLiveListings  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bulk snapshot dumps",
	Long: `Import merges a galaxy-structure snapshot and/or a price-listings dump
into the store. Dumps are streamed record at a time and may be
gzip-compressed.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importGalaxyFlag, "galaxy", "", "galaxy-structure snapshot (JSON, optionally gzipped)")
	importCmd.Flags().StringVar(&importListingsFlag, "listings", "", "price-listings dump (CSV, optionally gzipped)")
	importCmd.Flags().BoolVar(&importIgnoreUnknown, "ignore-unknown", false, "skip records referencing unknown entities instead of aborting")
	importCmd.Flags().IntVar(&importMaxAge, "max-age", 0, "reject source rows older than this many days (0 disables)")
	importCmd.Flags().BoolVar(&importForce, "force", false, "skip the pre-run integrity check")
	importCmd.Flags().BoolVar(&importOptimize, "optimize", false, "compact the store after the import")
	importCmd.Flags().BoolVar(&importLiveListings, "listings-live", false, "treat the listings dump as the live variant (no age filtering)")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importGalaxyFlag == "" && importListingsFlag == "" {
		return fmt.Errorf("nothing to import: pass --galaxy and/or --listings")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := importer.NewRunner(store, importer.Options{
		GalaxyPath:    importGalaxyFlag,
		ListingsPath:  importListingsFlag,
		IgnoreUnknown: importIgnoreUnknown,
		MaxAge:        importMaxAge,
		Force:         importForce,
		Optimize:      importOptimize,
		LiveListings:  importLiveListings,
		Progress: func(p types.Progress) {
			fmt.Fprintf(os.Stderr, "  %d records (%s)\n", p.Records, p.Elapsed.Round(progressRound))
		},
	})

	report, err := runner.Run(ctx)
	printReport(report)
	return err
}
