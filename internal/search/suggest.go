package search

import (
	"context"
	"errors"
	"strings"

	"media-archive/internal/database"
	"media-archive/internal/metrics"
	"media-archive/internal/query"
)

// SuggestionFinder turns a partially typed term into candidate tags.
type SuggestionFinder struct {
	store Store
}

// NewSuggestionFinder creates a SuggestionFinder.
func NewSuggestionFinder(store Store) *SuggestionFinder {
	return &SuggestionFinder{store: store}
}

// GetAutocompleteTagIDs returns the tags matching term, ordered by id.
//
// The term splits like a query tag. In exact mode a wildcard anywhere yields
// no suggestions. The namespace half selects a scope: "*" is every namespace,
// a wildcarded half substring-matches namespace values, an empty half
// searches globally and any other half must match one namespace exactly. The
// subtag half "*" returns every tag in scope; otherwise subtags are
// substring-matched within the scope.
func (f *SuggestionFinder) GetAutocompleteTagIDs(ctx context.Context, term string, exact bool) (tags []database.Tag, err error) {
	mode := "partial"
	if exact {
		mode = "exact"
	}
	metrics.SuggestionsTotal.WithLabelValues(mode).Inc()
	defer func() {
		metrics.SuggestionResults.Observe(float64(len(tags)))
	}()

	term = strings.Join(strings.Fields(term), " ")
	namespace, subtag, err := query.SplitTag(term)
	if errors.Is(err, query.ErrTooManyDelimiters) {
		return []database.Tag{}, nil
	}
	if err != nil {
		return nil, err
	}
	if subtag == "" {
		return []database.Tag{}, nil
	}
	if exact && (query.HasWildcard(namespace) || query.HasWildcard(subtag)) {
		return []database.Tag{}, nil
	}

	scope, ok, err := f.namespaceScope(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []database.Tag{}, nil
	}

	match := database.Contains(query.StripWildcards(subtag))
	if query.IsFullWildcard(subtag) {
		match = database.Any()
	}
	return f.store.FindTagsInNamespaces(ctx, scope, match)
}

// namespaceScope resolves the namespace half into namespace ids. A nil scope
// means every namespace. ok is false when an exact namespace does not exist.
func (f *SuggestionFinder) namespaceScope(ctx context.Context, namespace string) (scope []int64, ok bool, err error) {
	switch {
	case namespace == "" || query.IsFullWildcard(namespace):
		return nil, true, nil

	case query.HasWildcard(namespace):
		ids, err := f.store.FindNamespaceIDs(ctx, database.Contains(query.StripWildcards(namespace)))
		if err != nil {
			return nil, false, err
		}
		if len(ids) == 0 {
			// No namespace matched: fall back to a global subtag search
			return nil, true, nil
		}
		return ids, true, nil

	default:
		ids, err := f.store.FindNamespaceIDs(ctx, database.Exact(namespace))
		if err != nil {
			return nil, false, err
		}
		if len(ids) == 0 {
			return nil, false, nil
		}
		return ids, true, nil
	}
}
