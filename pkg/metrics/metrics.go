// Package metrics exposes Prometheus instrumentation for feed ingestion and
// the comparison engine. Collectors register on the default registry; the
// HTTP server serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFilesProcessed counts feed files fully processed and archived,
	// labeled by feed kind ("store" or "price").
	FeedFilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_feed_files_processed_total",
		Help: "Feed files fully processed and archived.",
	}, []string{"kind"})

	// FeedFilesSkipped counts permanently skipped feed files, labeled by
	// skip reason ("branch_unknown", "bad_filename").
	FeedFilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_feed_files_skipped_total",
		Help: "Feed files archived unprocessed as permanent skips.",
	}, []string{"reason"})

	// FeedFilesFailed counts feed files left in place for retry after an
	// unrecoverable error, labeled by feed kind.
	FeedFilesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_feed_files_failed_total",
		Help: "Feed files that failed and were left for retry.",
	}, []string{"kind"})

	// FeedRecordsUpserted counts catalog upserts performed during ingestion,
	// labeled by record kind ("chain", "sub_chain", "branch", "item_price").
	FeedRecordsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_feed_records_upserted_total",
		Help: "Catalog rows upserted from feed records.",
	}, []string{"kind"})

	// FeedRecordsSkipped counts individual malformed or failed records that
	// were dropped without aborting their file.
	FeedRecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_feed_records_skipped_total",
		Help: "Feed records dropped due to per-record failures.",
	}, []string{"kind"})

	// ComparisonRequests counts comparison computations by outcome
	// ("ok", "error").
	ComparisonRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecart_comparison_requests_total",
		Help: "List price comparisons computed.",
	}, []string{"outcome"})
)
