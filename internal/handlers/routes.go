package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the health, version and API routes on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/files/query", h.QueryFiles).Methods(http.MethodPost).Name("query")
	api.HandleFunc("/files/query/count", h.CountFiles).Methods(http.MethodPost).Name("count")
	api.HandleFunc("/files/{id:[0-9]+}/tags", h.GetFileTags).Methods(http.MethodGet)
	api.HandleFunc("/files/{id:[0-9]+}/repository", h.SetFileRepository).Methods(http.MethodPut)

	api.HandleFunc("/tags", h.UpdateTags).Methods(http.MethodPost)
	api.HandleFunc("/tags/autocomplete", h.Autocomplete).Methods(http.MethodGet).Name("autocomplete")
	api.HandleFunc("/tags/parents", h.AddParent).Methods(http.MethodPost)
	api.HandleFunc("/tags/parents", h.RemoveParent).Methods(http.MethodDelete)
	api.HandleFunc("/tags/descendants", h.GetDescendants).Methods(http.MethodPost)
	api.HandleFunc("/tags/siblings", h.AddSibling).Methods(http.MethodPost)
	api.HandleFunc("/tags/siblings", h.RemoveSibling).Methods(http.MethodDelete)
	api.HandleFunc("/tags/resolve", h.ResolveTags).Methods(http.MethodPost)
}
