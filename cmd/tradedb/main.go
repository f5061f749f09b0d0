// Package main provides the tradedb CLI: a local market data store for
// route optimization, fed by bulk snapshot imports and a live market
// feed.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/sqlite"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/pkg/types"
)

var (
	// Flags shared by every command.
	configDirFlag string
	dataDirFlag   string
	verboseFlag   bool

	// store is the global store handle, opened on startup.
	store *sqlite.Store

	// appConfig is the effective configuration loaded on startup.
	appConfig types.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradedb",
	Short: "tradedb is a local market data store",
	Long: `Tradedb maintains a local relational store of star systems, stations,
commodities, and live market prices. Bulk snapshot dumps and a live
market feed keep the store current; query commands serve the route
optimizer on top of it.`,
	PersistentPreRunE: initStore,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config", "", "config directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory holding the store file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(nearbyCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(stationCmd)
	rootCmd.AddCommand(destinationsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tradedb v0.1.0")
	},
}

// initStore loads config, sets up logging, and opens the store.
func initStore(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if err := logging.Init(verboseFlag); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	cfg, err := loadConfig(configDirFlag, dataDirFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appConfig = cfg

	s := sqlite.NewStore()
	if err := s.Open(cfg); err != nil {
		// A damaged store stays open in a degraded state; the import
		// command recovers it with a backup and structural rebuild.
		if errors.Is(err, types.ErrStoreCorruption) && cmd.Name() == "import" {
			logging.L().Warnw("store damaged, import will rebuild it", "error", err)
			store = s
			return nil
		}
		return fmt.Errorf("open store: %w", err)
	}

	store = s
	return nil
}

// closeStore releases the store and flushes logging.
func closeStore() error {
	defer logging.Close()
	if store != nil {
		return store.Close()
	}
	return nil
}
