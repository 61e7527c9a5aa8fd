// Package startup handles configuration loading and startup/shutdown logging
// for the archive server.
//
// # Configuration
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory, via [LoadConfig]:
//
//   - DATABASE_DIR: Directory holding archive.db (default: /database)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - PLAN_CACHE_TTL: Lifetime of cached query plans; 0 disables the cache (default: 5m)
//   - PLAN_CACHE_SIZE: Maximum cached query plans (default: 1024)
//   - QUERY_DEFAULT_LIMIT: Page size when a query names none (default: 100)
//   - QUERY_MAX_LIMIT: Largest page size a client may request (default: 1000)
//   - STATS_INTERVAL: How often library totals are exported (default: 1m)
//   - MEMORY_LIMIT: Container memory limit in bytes; sets GOMEMLIMIT when given
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap (default: 0.85)
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogDatabaseInit], [LogQueryEngineInit], [LogHTTPRoutes],
// [LogServerStarted], [LogShutdownInitiated] and [LogShutdownComplete] print
// the sectioned startup and shutdown log.
package startup
