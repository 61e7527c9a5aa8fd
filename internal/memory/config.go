package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-archive/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap. The
// remainder covers SQLite's page cache and memory-mapped I/O, which live
// outside the heap.
const DefaultRatio = 0.85

// Result describes what Apply did.
type Result struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a Go memory limit is in effect.
func (r Result) Configured() bool {
	return r.GoMemLimit > 0
}

// Apply sets the Go memory limit to ratio of containerLimit. An explicit
// GOMEMLIMIT in the environment always wins, and a zero containerLimit leaves
// the runtime default in place. Call it before significant allocations.
func Apply(containerLimit int64, ratio float64) (Result, error) {
	if os.Getenv("GOMEMLIMIT") != "" {
		result := Result{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		logging.Info("  GOMEMLIMIT set via environment: %s", FormatBytes(result.GoMemLimit))
		return result, nil
	}

	if containerLimit == 0 {
		logging.Debug("  MEMORY_LIMIT not set, leaving the Go memory limit alone")
		return Result{Source: "none"}, nil
	}
	if containerLimit < 0 {
		return Result{}, fmt.Errorf("memory limit must be positive, got %d", containerLimit)
	}
	if ratio <= 0 || ratio > 1 {
		return Result{}, fmt.Errorf("memory ratio must be in (0, 1], got %v", ratio)
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("  Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(containerLimit))

	return Result{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}, nil
}

// FormatBytes renders b with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
