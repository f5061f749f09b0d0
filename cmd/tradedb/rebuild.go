// The rebuild command reconciles the store offline.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Run a full store rebuild",
	Long: `Rebuild takes a backup copy, drops retired placeholder stations and
any price rows still pointing at them, re-applies the correction rules,
and compacts the store file. The rebuild holds the store exclusively;
run it while no import or live ingest is active, or use the live
command's --rebuild-interval, which pauses its own ingestor first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Rebuild(); err != nil {
			return err
		}
		fmt.Println("store rebuilt")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check store integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Check(); err != nil {
			return err
		}
		version, err := store.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("store ok (schema v%d, %s)\n", version, store.Path())
		return nil
	},
}
