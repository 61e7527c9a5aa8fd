// Package memory sets the Go runtime memory limit from a container memory
// limit.
//
// GOMAXPROCS follows cgroup CPU limits automatically, but GOMEMLIMIT does
// not. [Apply] derives it from MEMORY_LIMIT (typically passed through the
// Kubernetes Downward API) and MEMORY_RATIO, unless GOMEMLIMIT is already set.
package memory
