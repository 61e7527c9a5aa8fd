// Package main provides the entry point for the Media Archive server.
//
// Media Archive stores file hashes and the tags mapped to them, and answers
// tag queries over that library: conjunctions of tags, negations, OR groups,
// namespace and subtag wildcards, with parent implications expanded so that
// a query for a parent tag also finds files tagged with any of its
// descendants.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads .env and environment variables, prepares DATABASE_DIR
//  2. Database Initialization: Opens SQLite in WAL mode and applies migrations
//  3. Component Initialization:
//     - Metrics Collector: Exports library totals every STATS_INTERVAL
//     - Tag Graph: Parent implications and sibling aliases
//     - Query Service: Parser, planner with shared plan cache, reducer and searcher
//     - Suggestion Finder: Tag autocomplete
//  4. HTTP Server Setup: Registers routes and middleware, starts servers
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - File queries and counts (/api/files/query, /api/files/query/count)
//     - Tag assignment and repository moves
//     - Tag autocomplete, parents, descendants, siblings
//     - Health and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the servers stop accepting requests (30s timeout),
// the metrics collector stops and the database is closed.
//
// # Build Requirements
//
// CGO is required for SQLite:
//
//	go build -o media-archive ./cmd/media-archive
//
// # Related Packages
//
//   - [media-archive/internal/query]: Query parsing, planning and reduction
//   - [media-archive/internal/taggraph]: Parent and sibling relations
//   - [media-archive/internal/search]: Hash search, suggestions and the query service
//   - [media-archive/internal/database]: SQLite storage
//   - [media-archive/internal/handlers]: HTTP request handlers
//   - [media-archive/internal/middleware]: HTTP logging and metrics
//   - [media-archive/internal/startup]: Configuration and initialization
package main
