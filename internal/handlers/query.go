package handlers

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"media-archive/internal/database"
	"media-archive/internal/query"
	"media-archive/internal/search"
)

// QueryRequest is the body of a file query.
type QueryRequest struct {
	Queries      []string `json:"queries"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
	Repositories []string `json:"repositories,omitempty"`
}

// HashResponse is one matching hash.
type HashResponse struct {
	ID         int64  `json:"id"`
	Hash       string `json:"hash"`
	Repository string `json:"repository"`
}

// QueryResponse is a page of matching hashes plus the total match count.
type QueryResponse struct {
	Items      []HashResponse `json:"items"`
	TotalItems int            `json:"totalItems"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// CountResponse is the number of hashes matching a query.
type CountResponse struct {
	Count int `json:"count"`
}

// QueryFiles returns one page of the hashes matching the request's tag
// query together with the total match count.
func (h *Handlers) QueryFiles(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := h.searchRequest(body)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		items []database.HashItem
		total int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		items, err = h.service.Query(ctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.service.Count(ctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, "query files", err)
		return
	}

	response := QueryResponse{
		Items:      make([]HashResponse, 0, len(items)),
		TotalItems: total,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	for _, item := range items {
		response.Items = append(response.Items, hashResponse(item))
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, response, http.StatusOK)
}

// CountFiles returns the number of hashes matching the request's tag query.
func (h *Handlers) CountFiles(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := h.searchRequest(body)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, err := h.service.Count(r.Context(), req)
	if err != nil {
		writeError(w, "count files", err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, CountResponse{Count: count}, http.StatusOK)
}

// searchRequest validates pagination and repositories. A zero limit takes
// the default page size; larger limits are capped at the maximum.
func (h *Handlers) searchRequest(body QueryRequest) (search.Request, error) {
	if body.Limit < 0 {
		return search.Request{}, fmt.Errorf("limit must not be negative")
	}
	if body.Offset < 0 {
		return search.Request{}, fmt.Errorf("offset must not be negative")
	}

	limit := body.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	repos := make([]query.RepositoryType, 0, len(body.Repositories))
	for _, name := range body.Repositories {
		repo, err := query.ParseRepositoryType(name)
		if err != nil {
			return search.Request{}, err
		}
		repos = append(repos, repo)
	}

	return search.Request{
		Clauses:      body.Queries,
		Limit:        limit,
		Offset:       body.Offset,
		Repositories: repos,
	}, nil
}

func hashResponse(item database.HashItem) HashResponse {
	return HashResponse{
		ID:         item.ID,
		Hash:       hex.EncodeToString(item.Hash),
		Repository: item.Repository.String(),
	}
}
