// Package handlers provides the HTTP handlers of the archive API.
//
// It includes handlers for:
//   - Tag queries over hashes, with pagination and counts
//   - Tag assignment and repository moves for a hash
//   - Tag autocomplete
//   - Parent implications and sibling aliases between tags
//   - Health checks, version info and Prometheus metrics
package handlers
