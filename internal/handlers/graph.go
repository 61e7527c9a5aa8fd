package handlers

import (
	"net/http"

	"media-archive/internal/query"
)

// ParentRequest names a parent implication: anything tagged Child also
// satisfies Parent.
type ParentRequest struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

// SiblingRequest names a sibling alias: NonIdeal displays as Ideal.
type SiblingRequest struct {
	NonIdeal string `json:"nonIdeal"`
	Ideal    string `json:"ideal"`
}

// DescendantsRequest names the tag whose descendants are wanted.
type DescendantsRequest struct {
	Tag string `json:"tag"`
}

// ResolveRequest lists tags to map onto their ideal forms.
type ResolveRequest struct {
	Tags []string `json:"tags"`
}

// ResolvedTag pairs a tag with its ideal form.
type ResolvedTag struct {
	Tag   string `json:"tag"`
	Ideal string `json:"ideal"`
}

// decodePair decodes a two-tag request body and parses both tags.
func decodePair(w http.ResponseWriter, r *http.Request, v interface{}, first, second func() string) (a, b query.TagKey, ok bool) {
	if err := decodeJSON(w, r, v); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return a, b, false
	}
	keys, err := parseTagKeys([]string{first(), second()})
	if err != nil {
		writeError(w, "parse tags", err)
		return a, b, false
	}
	return keys[0], keys[1], true
}

// AddParent records that child implies parent. Creating a cycle is rejected
// with 409 Conflict.
func (h *Handlers) AddParent(w http.ResponseWriter, r *http.Request) {
	var req ParentRequest
	child, parent, ok := decodePair(w, r, &req,
		func() string { return req.Child },
		func() string { return req.Parent })
	if !ok {
		return
	}

	if err := h.graph.AddParent(r.Context(), child, parent); err != nil {
		writeError(w, "add parent", err)
		return
	}
	writeJSONResponse(w, map[string]string{"status": "created"}, http.StatusCreated)
}

// RemoveParent deletes a parent implication. Removing a missing edge is not
// an error.
func (h *Handlers) RemoveParent(w http.ResponseWriter, r *http.Request) {
	var req ParentRequest
	child, parent, ok := decodePair(w, r, &req,
		func() string { return req.Child },
		func() string { return req.Parent })
	if !ok {
		return
	}

	if err := h.graph.RemoveParent(r.Context(), child, parent); err != nil {
		writeError(w, "remove parent", err)
		return
	}
	writeJSONStatus(w, "ok")
}

// GetDescendants lists every tag that implies the requested tag.
func (h *Handlers) GetDescendants(w http.ResponseWriter, r *http.Request) {
	var req DescendantsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	key, err := query.ParseTagKey(req.Tag)
	if err != nil {
		writeError(w, "descendants", err)
		return
	}

	tags, err := h.graph.DescendantTags(r.Context(), key)
	if err != nil {
		writeError(w, "descendants", err)
		return
	}
	writeJSONResponse(w, tagResponses(tags), http.StatusOK)
}

// AddSibling aliases nonIdeal to ideal.
func (h *Handlers) AddSibling(w http.ResponseWriter, r *http.Request) {
	var req SiblingRequest
	nonIdeal, ideal, ok := decodePair(w, r, &req,
		func() string { return req.NonIdeal },
		func() string { return req.Ideal })
	if !ok {
		return
	}

	if err := h.graph.AddSibling(r.Context(), nonIdeal, ideal); err != nil {
		writeError(w, "add sibling", err)
		return
	}
	writeJSONResponse(w, map[string]string{"status": "created"}, http.StatusCreated)
}

// RemoveSibling deletes a sibling alias.
func (h *Handlers) RemoveSibling(w http.ResponseWriter, r *http.Request) {
	var req SiblingRequest
	nonIdeal, ideal, ok := decodePair(w, r, &req,
		func() string { return req.NonIdeal },
		func() string { return req.Ideal })
	if !ok {
		return
	}

	if err := h.graph.RemoveSibling(r.Context(), nonIdeal, ideal); err != nil {
		writeError(w, "remove sibling", err)
		return
	}
	writeJSONStatus(w, "ok")
}

// ResolveTags maps each tag onto its ideal form, in request order.
func (h *Handlers) ResolveTags(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	keys, err := parseTagKeys(req.Tags)
	if err != nil {
		writeError(w, "resolve tags", err)
		return
	}

	resolved, err := h.graph.ResolveSiblings(r.Context(), keys)
	if err != nil {
		writeError(w, "resolve tags", err)
		return
	}

	response := make([]ResolvedTag, len(keys))
	for i, key := range keys {
		response[i] = ResolvedTag{Tag: key.String(), Ideal: resolved[key].String()}
	}
	writeJSONResponse(w, response, http.StatusOK)
}
