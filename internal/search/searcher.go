package search

import (
	"context"
	"time"

	"media-archive/internal/database"
	"media-archive/internal/logging"
	"media-archive/internal/metrics"
	"media-archive/internal/query"
	"media-archive/internal/taggraph"
)

// Store is the subset of the database the search components need.
type Store interface {
	FindTags(ctx context.Context, keys []query.TagKey) (map[query.TagKey]database.Tag, error)
	FindNamespaceIDs(ctx context.Context, m database.TextMatch) ([]int64, error)
	FindTagsInNamespaces(ctx context.Context, namespaceIDs []int64, subtag database.TextMatch) ([]database.Tag, error)
	SearchHashes(ctx context.Context, f database.HashFilter) ([]database.HashItem, error)
	CountHashes(ctx context.Context, f database.HashFilter) (int, error)
}

// Closure loads the parent graph used to expand tags to their descendants.
type Closure interface {
	Snapshot(ctx context.Context) (*taggraph.Index, error)
}

// Searcher evaluates decomposed queries against the store.
type Searcher struct {
	store   Store
	closure Closure
}

// NewSearcher creates a Searcher.
func NewSearcher(store Store, closure Closure) *Searcher {
	return &Searcher{store: store, closure: closure}
}

// Search returns the hashes matching q in ascending id order, with q.Offset
// and q.Limit applied.
func (s *Searcher) Search(ctx context.Context, q *query.DecomposedQuery) ([]database.HashItem, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	}()

	filter, ok, err := s.buildFilter(ctx, q)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.SearchResults.Observe(0)
		return []database.HashItem{}, nil
	}
	filter.Limit = q.Limit
	filter.Offset = q.Offset

	items, err := s.store.SearchHashes(ctx, filter)
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.Observe(float64(len(items)))
	return items, nil
}

// Count returns the number of hashes matching q, ignoring pagination.
func (s *Searcher) Count(ctx context.Context, q *query.DecomposedQuery) (int, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("count").Observe(time.Since(start).Seconds())
	}()

	filter, ok, err := s.buildFilter(ctx, q)
	if err != nil || !ok {
		return 0, err
	}
	return s.store.CountHashes(ctx, filter)
}

// buildFilter translates q into a store filter. ok is false when q can be
// proven to match nothing without touching the hashes table.
func (s *Searcher) buildFilter(ctx context.Context, q *query.DecomposedQuery) (f database.HashFilter, ok bool, err error) {
	if q == nil {
		q = query.NewDecomposedQuery()
	}
	if q.NoResults {
		return f, false, nil
	}

	f.Repositories = q.RepositoryFilters

	for _, sp := range q.SystemPredicates {
		switch p := sp.(type) {
		case query.EverythingPredicate:
		case query.FilesizePredicate:
			logging.Debug("system:filesize %q is not evaluated", p.Expression)
		case query.DimensionsPredicate:
			logging.Debug("system:dimensions %q is not evaluated", p.Expression)
		case query.UnknownSystemPredicate:
			logging.Debug("Unknown system predicate %q ignored", p.Name)
		}
	}

	if q.IsEmpty() {
		return f, true, nil
	}

	include := q.TagsToInclude.Sorted()
	exclude := q.TagsToExclude.Sorted()

	keys := make([]query.TagKey, 0, len(include)+len(exclude))
	keys = append(keys, include...)
	keys = append(keys, exclude...)
	for _, group := range q.OrGroups {
		keys = append(keys, group.Tags.Sorted()...)
	}

	var found map[query.TagKey]database.Tag
	var ix *taggraph.Index
	if len(keys) > 0 {
		if found, err = s.store.FindTags(ctx, keys); err != nil {
			return f, false, err
		}

		for _, k := range include {
			if _, known := found[k]; !known {
				logging.Debug("Included tag %s does not exist", k)
				return f, false, nil
			}
		}

		if len(found) > 0 {
			if ix, err = s.closure.Snapshot(ctx); err != nil {
				return f, false, err
			}
		}
	}

	for _, k := range include {
		f.RequireAll = append(f.RequireAll, expand(ix, found[k].ID))
	}
	f.Forbid = expandAll(ix, exclude, found)

	for _, group := range q.OrGroups {
		alt := database.TagAlternatives{
			TagIDs:   expandAll(ix, group.Tags.Sorted(), found),
			Patterns: patterns(group.Patterns),
		}
		if len(alt.TagIDs) == 0 && len(alt.Patterns) == 0 {
			logging.Debug("No member of OR group %v exists", group.Tags.Sorted())
			return f, false, nil
		}
		f.RequireAnyOf = append(f.RequireAnyOf, alt)
	}

	f.RequireAnyPattern = patterns(q.WildcardNamespacesToInclude, q.WildcardSubtagsToInclude, q.WildcardDoublesToInclude)
	f.ForbidPattern = patterns(q.WildcardNamespacesToExclude, q.WildcardSubtagsToExclude, q.WildcardDoublesToExclude)

	return f, true, nil
}

// expand returns id followed by its descendants.
func expand(ix *taggraph.Index, id int64) []int64 {
	descendants := ix.Descendants(id)
	metrics.TagGraphClosureSize.Observe(float64(len(descendants)))
	return append([]int64{id}, descendants...)
}

// expandAll returns the union of the expansions of every known key.
func expandAll(ix *taggraph.Index, keys []query.TagKey, found map[query.TagKey]database.Tag) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, k := range keys {
		tag, ok := found[k]
		if !ok {
			continue
		}
		for _, id := range expand(ix, tag.ID) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func patterns(sets ...query.PatternSet) []database.TagPattern {
	var out []database.TagPattern
	for _, set := range sets {
		for _, p := range set.Sorted() {
			out = append(out, database.TagPattern{
				Namespace: namespaceMatch(p.Namespace),
				Subtag:    textMatch(p.Subtag),
			})
		}
	}
	return out
}

// namespaceMatch is textMatch except that an empty namespace matches every
// namespace.
func namespaceMatch(pattern string) database.TextMatch {
	if pattern == "" {
		return database.Any()
	}
	return textMatch(pattern)
}

func textMatch(pattern string) database.TextMatch {
	switch {
	case query.IsFullWildcard(pattern):
		return database.Any()
	case query.HasWildcard(pattern):
		return database.Contains(query.StripWildcards(pattern))
	default:
		return database.Exact(pattern)
	}
}
