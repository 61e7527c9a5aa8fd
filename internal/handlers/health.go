package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"media-archive/internal/logging"
	"media-archive/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// readinessTimeout bounds the database probe behind the health endpoints.
const readinessTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Ready         bool   `json:"ready"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	Error         string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Library summary
	Hashes map[string]int `json:"hashes,omitempty"`
	Tags   int            `json:"tags"`
}

// HealthCheck reports build, runtime and library information. It returns
// 503 when the database cannot be read.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	version, err := h.db.SchemaVersion(ctx)
	if err == nil {
		response.SchemaVersion = version
		stats, statsErr := h.db.LibraryStats(ctx)
		if statsErr == nil {
			response.Hashes = stats.HashesByRepository
			response.Tags = stats.Tags
		}
		err = statsErr
	}

	statusCode := http.StatusOK
	if err != nil {
		logging.Warn("health check failed: %v", err)
		response.Status = statusUnhealthy
		response.Ready = false
		response.Error = err.Error()
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, response, statusCode)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// HEAD gets headers only
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the database answers queries.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if _, err := h.db.SchemaVersion(ctx); err != nil {
		logging.Warn("readiness check failed: %v", err)
		writeJSONResponse(w, map[string]string{"status": "not_ready"}, http.StatusServiceUnavailable)
		return
	}
	writeJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
}
