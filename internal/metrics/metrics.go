// Package metrics defines Prometheus instrumentation for the ingestion
// pipelines. Counters are registered once at package init through
// promauto; both the bulk importer and the live ingestor record into
// them, and the CLI can expose them on demand.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsImported counts applied records by source ("galaxy",
	// "listings"). Live messages are counted by MessagesApplied.
	RecordsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedb_records_imported_total",
			Help: "Records applied to the catalog by source",
		},
		[]string{"source"},
	)

	// RecordsSkipped counts skipped records by source and reason
	// ("stale", "conflict", "malformed", "filtered", "unresolved").
	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradedb_records_skipped_total",
			Help: "Records skipped during ingestion by source and reason",
		},
		[]string{"source", "reason"},
	)

	// PlaceholdersCreated counts synthetic stations minted by the
	// placeholder resolver.
	PlaceholdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedb_placeholders_created_total",
			Help: "Synthetic placeholder stations created",
		},
	)

	// FeedReconnects counts live feed reconnect attempts.
	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedb_feed_reconnects_total",
			Help: "Live feed reconnect attempts",
		},
	)

	// FeedConnected is 1 while the live feed is connected, 0 otherwise.
	FeedConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradedb_feed_connected",
			Help: "Whether the live feed is currently connected",
		},
	)

	// MessagesApplied counts live messages applied to the store.
	MessagesApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradedb_live_messages_applied_total",
			Help: "Live market messages applied",
		},
	)
)
