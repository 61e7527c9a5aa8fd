// Package metrics provides Prometheus instrumentation for the media-archive
// server.
//
// All metrics are prefixed with "media_archive_" to avoid naming collisions
// with other applications, and are registered with the default registry via
// promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal / DBQueryDuration: per-operation query outcomes and latency
//   - DBTransactionDuration: transaction duration by outcome (commit/rollback)
//   - DBRowsAffected: rows written per operation
//   - DBConnectionsOpen: open connections in the pool
//   - DBSizeBytes: database file sizes (main, WAL, SHM)
//
// ## Query Engine Metrics
//
//   - QueryParseTotal: parses by outcome (success/syntax_error)
//   - PlanCacheLookups: plan cache hits and misses
//   - PlanCacheEntries: live plan cache entries
//   - QueryNoResultsTotal: queries short-circuited by contradictory predicates
//   - SearchDuration: search and count latency
//   - SearchResults: result set sizes
//
// ## Tag Graph Metrics
//
//   - TagGraphMutationsTotal: parent/sibling edge mutations by operation and status
//   - TagGraphCycleRejections: parent edges refused because they would form a cycle
//   - TagGraphClosureSize: descendants found per closure computation
//
// ## Suggestion Metrics
//
//   - SuggestionsTotal: autocomplete requests by mode (exact/partial)
//   - SuggestionResults: tags returned per request
//
// ## Library Metrics
//
// Exported periodically by the [Collector] from a [StatsProvider]:
//   - LibraryHashesTotal: hashes by repository (inbox/archive/trash)
//   - LibraryTagsTotal, LibraryNamespacesTotal, LibraryMappingsTotal
//   - LibraryParentEdgesTotal, LibrarySiblingEdgesTotal
//
// # Collector
//
//	collector := metrics.NewCollector(db, dbPath, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Plan cache hit rate:
//
//	rate(media_archive_plan_cache_lookups_total{result="hit"}[5m]) /
//	sum(rate(media_archive_plan_cache_lookups_total[5m]))
//
// P95 search latency:
//
//	histogram_quantile(0.95, sum(rate(media_archive_search_duration_seconds_bucket[5m])) by (le, operation))
//
// Syntax error rate:
//
//	rate(media_archive_query_parse_total{status="syntax_error"}[5m])
package metrics
