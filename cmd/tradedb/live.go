// The live command runs the real-time feed ingestor, optionally with a
// periodic store rebuild and a Prometheus metrics endpoint.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/live"
	"github.com/Magic-Cooki3/Better-Trade-Dangerous/internal/logging"
)

var (
	liveAddrFlag        string
	liveCarrierOnly     bool
	livePublicOnly      bool
	liveMetricsAddr     string
	liveRebuildInterval time.Duration
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run the live market feed ingestor",
	Long: `Live connects to the market feed relay and applies each message as an
atomic price board replacement, creating placeholder stations for
references the catalog cannot resolve. Runs until interrupted.`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&liveAddrFlag, "addr", "", "feed relay address (default: feed_addr from config)")
	liveCmd.Flags().BoolVar(&liveCarrierOnly, "carrier-only", false, "ingest only fleet carrier messages")
	liveCmd.Flags().BoolVar(&livePublicOnly, "public-only", false, "drop carrier messages without public docking access")
	liveCmd.Flags().StringVar(&liveMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (empty disables)")
	liveCmd.Flags().DurationVar(&liveRebuildInterval, "rebuild-interval", 0, "run a full store rebuild this often (0 disables)")
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := liveAddrFlag
	if addr == "" {
		addr = appConfig.FeedAddr
	}

	feed := live.Dial(addr)
	defer feed.Close()

	ingestor := live.NewIngestor(store, feed, live.Options{
		CarrierOnly: liveCarrierOnly,
		PublicOnly:  livePublicOnly,
	})

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return ingestor.Run(ctx) })

	if liveMetricsAddr != "" {
		grp.Go(func() error { return serveMetrics(ctx, liveMetricsAddr) })
	}
	if liveRebuildInterval > 0 {
		grp.Go(func() error { return rebuildLoop(ctx, ingestor) })
	}

	return grp.Wait()
}

// rebuildLoop runs a periodic full rebuild, pausing the ingestor for
// the duration so the exclusive store lock is never contended by a
// stream of writer tasks.
func rebuildLoop(ctx context.Context, ingestor *live.Ingestor) error {
	ticker := time.NewTicker(liveRebuildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		ingestor.Pause()
		err := store.Rebuild()
		ingestor.Resume()
		if err != nil {
			return err
		}
	}
}

// serveMetrics exposes the Prometheus registry until ctx is canceled.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.L().Infow("metrics listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		return err
	}
}
