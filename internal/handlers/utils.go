package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-archive/internal/database"
	"media-archive/internal/logging"
	"media-archive/internal/query"
	"media-archive/internal/taggraph"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are only logged; the status line has already gone out.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONResponse writes v as JSON with the given status code.
func writeJSONResponse(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, map[string]string{"error": message}, statusCode)
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID reads a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// parseTagKeys parses literal tags, failing on the first malformed one.
func parseTagKeys(tags []string) ([]query.TagKey, error) {
	keys := make([]query.TagKey, 0, len(tags))
	for _, tag := range tags {
		key, err := query.ParseTagKey(tag)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// writeError maps an error from the query engine, tag graph or store onto
// an HTTP status and writes it.
func writeError(w http.ResponseWriter, operation string, err error) {
	var cycle *taggraph.CycleDetectedError
	switch {
	case errors.Is(err, query.ErrSyntax),
		errors.Is(err, taggraph.ErrSelfParent),
		errors.Is(err, taggraph.ErrSelfSibling):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &cycle):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		logging.Debug("%s: client went away: %v", operation, err)
		writeJSONError(w, "request cancelled", http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		logging.Warn("%s: timed out: %v", operation, err)
		writeJSONError(w, "request timed out", http.StatusGatewayTimeout)
	default:
		logging.Error("%s failed: %v", operation, err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
