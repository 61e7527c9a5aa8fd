package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_archive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_archive_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_archive_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"}, // "commit" or "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_archive_db_rows_affected",
			Help:    "Rows affected by database write operations",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_archive_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Query engine metrics
var (
	QueryParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_query_parse_total",
			Help: "Total number of query parses by outcome",
		},
		[]string{"status"}, // "success", "syntax_error"
	)

	PlanCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_plan_cache_lookups_total",
			Help: "Total number of query plan cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	PlanCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_plan_cache_entries",
			Help: "Number of live entries in the query plan cache",
		},
	)

	QueryNoResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_archive_query_contradictions_total",
			Help: "Total number of queries short-circuited because their predicates contradict",
		},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_archive_search_duration_seconds",
			Help:    "Hash search duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"}, // "search", "count"
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_archive_search_results",
			Help:    "Number of hashes returned by a search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Tag graph metrics
var (
	TagGraphMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_tag_graph_mutations_total",
			Help: "Total number of tag graph edge mutations",
		},
		[]string{"operation", "status"},
	)

	TagGraphCycleRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_archive_tag_graph_cycle_rejections_total",
			Help: "Total number of parent edges rejected because they would create a cycle",
		},
	)

	TagGraphClosureSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_archive_tag_graph_closure_size",
			Help:    "Number of descendants found per closure computation",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

// Suggestion metrics
var (
	SuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_archive_suggestions_total",
			Help: "Total number of autocomplete requests",
		},
		[]string{"mode"}, // "exact", "partial"
	)

	SuggestionResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_archive_suggestion_results",
			Help:    "Number of tags returned per autocomplete request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
)

// Library metrics
var (
	LibraryHashesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_archive_hashes_total",
			Help: "Total number of hashes by repository",
		},
		[]string{"repository"},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_tags_total",
			Help: "Total number of tags",
		},
	)

	LibraryNamespacesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_namespaces_total",
			Help: "Total number of namespaces",
		},
	)

	LibraryMappingsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_mappings_total",
			Help: "Total number of hash to tag mappings",
		},
	)

	LibraryParentEdgesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_tag_parents_total",
			Help: "Total number of tag parent edges",
		},
	)

	LibrarySiblingEdgesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_archive_tag_siblings_total",
			Help: "Total number of tag sibling aliases",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_archive_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
