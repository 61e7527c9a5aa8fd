package taggraph

import (
	"context"
	"errors"
	"fmt"

	"media-archive/internal/database"
	"media-archive/internal/logging"
	"media-archive/internal/metrics"
	"media-archive/internal/query"
)

var (
	// ErrSelfParent is returned when a tag is made its own parent.
	ErrSelfParent = errors.New("a tag cannot be its own parent")

	// ErrSelfSibling is returned when a tag is made an alias of itself.
	ErrSelfSibling = errors.New("a tag cannot be its own sibling")
)

// CycleDetectedError is returned by AddParent when the new edge would make a
// tag imply itself. Nothing is written when it is returned.
type CycleDetectedError struct {
	Child  query.TagKey
	Parent query.TagKey
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("adding parent %s to %s would create a cycle", e.Parent, e.Child)
}

// Store is the subset of the database the graph needs.
type Store interface {
	FindTags(ctx context.Context, keys []query.TagKey) (map[query.TagKey]database.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []int64) ([]database.Tag, error)
	ParentEdges(ctx context.Context) ([]database.TagEdge, error)
	IdealTags(ctx context.Context, tagIDs []int64) (map[int64]int64, error)
	WithTx(ctx context.Context, operation string, fn func(tx *database.Tx) error) error
}

// Graph manages parent implications and sibling aliases between tags.
type Graph struct {
	store Store
}

// New creates a Graph over store.
func New(store Store) *Graph {
	return &Graph{store: store}
}

// AddParent records that anything tagged child also satisfies parent. Both
// tags are created if needed. The cycle check and the insert run in the same
// transaction; adding an existing edge is a no-op.
func (g *Graph) AddParent(ctx context.Context, child, parent query.TagKey) (err error) {
	defer func() { recordMutation("add_parent", err) }()

	if child == parent {
		return ErrSelfParent
	}

	return g.store.WithTx(ctx, "add_parent", func(tx *database.Tx) error {
		childTag, err := tx.GetOrCreateTag(child)
		if err != nil {
			return err
		}
		parentTag, err := tx.GetOrCreateTag(parent)
		if err != nil {
			return err
		}

		edges, err := tx.ParentEdges()
		if err != nil {
			return err
		}
		// The new edge closes a cycle when parent already implies child.
		if NewIndex(edges).Implies(parentTag.ID, childTag.ID) {
			metrics.TagGraphCycleRejections.Inc()
			logging.Debug("Rejected parent %s -> %s: cycle", child, parent)
			return &CycleDetectedError{Child: child, Parent: parent}
		}

		inserted, err := tx.InsertParent(childTag.ID, parentTag.ID)
		if err != nil {
			return err
		}
		if inserted {
			logging.Debug("Added parent %s -> %s", child, parent)
		}
		return nil
	})
}

// RemoveParent deletes the child->parent edge. Removing an edge that does not
// exist, or naming an unknown tag, is a no-op.
func (g *Graph) RemoveParent(ctx context.Context, child, parent query.TagKey) (err error) {
	defer func() { recordMutation("remove_parent", err) }()

	return g.store.WithTx(ctx, "remove_parent", func(tx *database.Tx) error {
		childTag, parentTag, ok, err := findPair(tx, child, parent)
		if err != nil || !ok {
			return err
		}
		_, err = tx.DeleteParent(childTag.ID, parentTag.ID)
		return err
	})
}

// Descendants returns every tag id that implies one of tagIDs, ordered by id
// and excluding tagIDs themselves.
func (g *Graph) Descendants(ctx context.Context, tagIDs []int64) ([]int64, error) {
	ix, err := g.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	closure := ix.Descendants(tagIDs...)
	metrics.TagGraphClosureSize.Observe(float64(len(closure)))
	return closure, nil
}

// DescendantTags returns the tags that imply key, ordered by id. An unknown
// tag has no descendants.
func (g *Graph) DescendantTags(ctx context.Context, key query.TagKey) ([]database.Tag, error) {
	found, err := g.store.FindTags(ctx, []query.TagKey{key})
	if err != nil {
		return nil, err
	}
	tag, ok := found[key]
	if !ok {
		return []database.Tag{}, nil
	}

	ids, err := g.Descendants(ctx, []int64{tag.ID})
	if err != nil {
		return nil, err
	}
	return g.store.GetTagsByIDs(ctx, ids)
}

// Snapshot loads the current parent graph into an Index. Callers expanding
// many tags should take one snapshot rather than calling Descendants per tag.
func (g *Graph) Snapshot(ctx context.Context) (*Index, error) {
	edges, err := g.store.ParentEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent edges: %w", err)
	}
	return NewIndex(edges), nil
}

// ResolveSiblings maps each key to its ideal tag, following one alias hop.
// Keys without an alias, including unknown tags, map to themselves.
func (g *Graph) ResolveSiblings(ctx context.Context, keys []query.TagKey) (map[query.TagKey]query.TagKey, error) {
	resolved := make(map[query.TagKey]query.TagKey, len(keys))
	for _, k := range keys {
		resolved[k] = k
	}
	if len(keys) == 0 {
		return resolved, nil
	}

	found, err := g.store.FindTags(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return resolved, nil
	}

	ids := make([]int64, 0, len(found))
	keyByID := make(map[int64]query.TagKey, len(found))
	for k, tag := range found {
		ids = append(ids, tag.ID)
		keyByID[tag.ID] = k
	}

	ideals, err := g.store.IdealTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(ideals) == 0 {
		return resolved, nil
	}

	idealIDs := make([]int64, 0, len(ideals))
	for _, ideal := range ideals {
		idealIDs = append(idealIDs, ideal)
	}
	idealTags, err := g.store.GetTagsByIDs(ctx, idealIDs)
	if err != nil {
		return nil, err
	}
	idealByID := make(map[int64]query.TagKey, len(idealTags))
	for _, tag := range idealTags {
		idealByID[tag.ID] = tag.Key()
	}

	for nonIdeal, ideal := range ideals {
		if key, ok := idealByID[ideal]; ok {
			resolved[keyByID[nonIdeal]] = key
		}
	}
	return resolved, nil
}

// AddSibling makes ideal the display form of nonIdeal, creating both tags if
// needed. An existing alias of nonIdeal is replaced.
func (g *Graph) AddSibling(ctx context.Context, nonIdeal, ideal query.TagKey) (err error) {
	defer func() { recordMutation("add_sibling", err) }()

	if nonIdeal == ideal {
		return ErrSelfSibling
	}

	return g.store.WithTx(ctx, "add_sibling", func(tx *database.Tx) error {
		nonIdealTag, err := tx.GetOrCreateTag(nonIdeal)
		if err != nil {
			return err
		}
		idealTag, err := tx.GetOrCreateTag(ideal)
		if err != nil {
			return err
		}
		return tx.SetSibling(nonIdealTag.ID, idealTag.ID)
	})
}

// RemoveSibling deletes the nonIdeal->ideal alias. Removing an alias that does
// not exist is a no-op.
func (g *Graph) RemoveSibling(ctx context.Context, nonIdeal, ideal query.TagKey) (err error) {
	defer func() { recordMutation("remove_sibling", err) }()

	return g.store.WithTx(ctx, "remove_sibling", func(tx *database.Tx) error {
		nonIdealTag, idealTag, ok, err := findPair(tx, nonIdeal, ideal)
		if err != nil || !ok {
			return err
		}
		_, err = tx.DeleteSibling(nonIdealTag.ID, idealTag.ID)
		return err
	})
}

// findPair looks up both tags inside tx. ok is false when either is unknown.
func findPair(tx *database.Tx, a, b query.TagKey) (tagA, tagB *database.Tag, ok bool, err error) {
	tagA, err = tx.FindTag(a)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	tagB, err = tx.FindTag(b)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return tagA, tagB, true, nil
}

func recordMutation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.TagGraphMutationsTotal.WithLabelValues(operation, status).Inc()
}
