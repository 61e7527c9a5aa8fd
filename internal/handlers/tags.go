package handlers

import (
	"net/http"
	"strconv"

	"media-archive/internal/database"
	"media-archive/internal/query"
)

// TagResponse describes a tag. Display is the sibling-resolved form shown to
// users; it equals Tag when the tag has no alias.
type TagResponse struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	Subtag    string `json:"subtag"`
	Tag       string `json:"tag"`
	Display   string `json:"display,omitempty"`
}

// UpdateTagsRequest adds and removes tags on one hash.
type UpdateTagsRequest struct {
	HashID       int64    `json:"hashId"`
	TagsToAdd    []string `json:"tagsToAdd"`
	TagsToRemove []string `json:"tagsToRemove"`
}

// RepositoryRequest moves a hash to another repository.
type RepositoryRequest struct {
	Repository string `json:"repository"`
}

func tagResponses(tags []database.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{
			ID:        tag.ID,
			Namespace: tag.Namespace,
			Subtag:    tag.Subtag,
			Tag:       tag.Key().String(),
		})
	}
	return out
}

// GetFileTags returns the tags mapped to a hash with their display forms.
func (h *Handlers) GetFileTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.db.GetHash(ctx, id); err != nil {
		writeError(w, "get file tags", err)
		return
	}

	tags, err := h.db.GetTagsForHash(ctx, id)
	if err != nil {
		writeError(w, "get file tags", err)
		return
	}

	keys := make([]query.TagKey, len(tags))
	for i, tag := range tags {
		keys[i] = tag.Key()
	}
	display, err := h.graph.ResolveSiblings(ctx, keys)
	if err != nil {
		writeError(w, "get file tags", err)
		return
	}

	response := tagResponses(tags)
	for i := range response {
		response[i].Display = display[keys[i]].String()
	}
	writeJSONResponse(w, response, http.StatusOK)
}

// SetFileRepository moves a hash into the named repository.
func (h *Handlers) SetFileRepository(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req RepositoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	repo, err := query.ParseRepositoryType(req.Repository)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.SetRepository(r.Context(), id, repo); err != nil {
		writeError(w, "set repository", err)
		return
	}
	writeJSONStatus(w, "ok")
}

// UpdateTags applies tag additions and removals to a hash atomically.
func (h *Handlers) UpdateTags(w http.ResponseWriter, r *http.Request) {
	var req UpdateTagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.HashID <= 0 {
		writeJSONError(w, "hashId is required", http.StatusBadRequest)
		return
	}

	add, err := parseTagKeys(req.TagsToAdd)
	if err != nil {
		writeError(w, "update tags", err)
		return
	}
	remove, err := parseTagKeys(req.TagsToRemove)
	if err != nil {
		writeError(w, "update tags", err)
		return
	}

	if err := h.db.UpdateTags(r.Context(), req.HashID, add, remove); err != nil {
		writeError(w, "update tags", err)
		return
	}
	writeJSONStatus(w, "ok")
}

// Autocomplete suggests tags for a partially typed term. The exact flag
// disables wildcard matching.
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	exact := false
	if raw := r.URL.Query().Get("exact"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, "invalid exact flag", http.StatusBadRequest)
			return
		}
		exact = parsed
	}

	tags, err := h.suggester.GetAutocompleteTagIDs(r.Context(), term, exact)
	if err != nil {
		writeError(w, "autocomplete", err)
		return
	}
	writeJSONResponse(w, tagResponses(tags), http.StatusOK)
}
