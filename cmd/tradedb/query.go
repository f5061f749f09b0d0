// Query commands serving the route-optimizer surface.
package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	nearbyRadiusFlag float64
	destJumpsFlag    int
	destRangeFlag    float64
)

func init() {
	nearbyCmd.Flags().Float64Var(&nearbyRadiusFlag, "radius", 20, "search radius in light years")
	destinationsCmd.Flags().IntVar(&destJumpsFlag, "jumps", 2, "maximum jumps per hop")
	destinationsCmd.Flags().Float64Var(&destRangeFlag, "ly", 15, "maximum light years per jump")
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby <system>",
	Short: "List tradeable stations near a system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := store.Nearby(args[0], nearbyRadiusFlag)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "DIST (LY)\tSYSTEM\tSTATION\tPAD\tID")
		for _, r := range results {
			fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%d\n",
				r.DistanceLy, r.Station.System, r.Station.Name, r.Station.PadSize, r.Station.ID)
		}
		return w.Flush()
	},
}

var marketCmd = &cobra.Command{
	Use:   "market <station>",
	Short: "Show a station's price board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		board, err := store.PriceBoard(args[0])
		if err != nil {
			return err
		}

		commodities := make([]string, 0, len(board))
		for name := range board {
			commodities = append(commodities, name)
		}
		sort.Strings(commodities)

		w := newTable()
		fmt.Fprintln(w, "COMMODITY\tBUY\tSELL")
		for _, name := range commodities {
			level := board[name]
			fmt.Fprintf(w, "%s\t%d\t%d\n", name, level.Buy, level.Sell)
		}
		return w.Flush()
	},
}

var stationCmd = &cobra.Command{
	Use:   "station <system> <name>",
	Short: "Show station details",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.StationByName(args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("%s / %s (id %d)\n", st.System, st.Name, st.ID)
		fmt.Printf("  pad size:       %s\n", orDash(st.PadSize))
		fmt.Printf("  market:         %t\n", st.Market)
		fmt.Printf("  outfitting:     %t\n", st.Outfitting)
		fmt.Printf("  shipyard:       %t\n", st.Shipyard)
		fmt.Printf("  type:           %s\n", orDash(st.Type))
		fmt.Printf("  docking access: %s\n", st.DockingAccess)
		fmt.Printf("  placeholder:    %t\n", st.IsPlaceholder())
		if !st.Modified.IsZero() {
			fmt.Printf("  modified:       %s\n", st.Modified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var destinationsCmd = &cobra.Command{
	Use:   "destinations <station-id>",
	Short: "List stations reachable from an origin station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		originID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("station id %q: %w", args[0], err)
		}

		stations, err := store.DestinationsFrom(originID, destJumpsFlag, destRangeFlag)
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "SYSTEM\tSTATION\tPAD\tID")
		for _, st := range stations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", st.System, st.Name, st.PadSize, st.ID)
		}
		return w.Flush()
	},
}
