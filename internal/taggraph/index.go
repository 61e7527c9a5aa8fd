package taggraph

import (
	"sort"

	"media-archive/internal/database"
)

// Index is an in-memory snapshot of the parent graph. Tag ids are mapped to
// dense slots so adjacency lives in plain slices.
type Index struct {
	slot     map[int64]int
	ids      []int64
	children [][]int
	parents  [][]int
}

// NewIndex builds an index from a full edge set.
func NewIndex(edges []database.TagEdge) *Index {
	ix := &Index{slot: make(map[int64]int, len(edges))}
	for _, e := range edges {
		child := ix.intern(e.ChildID)
		parent := ix.intern(e.ParentID)
		ix.children[parent] = append(ix.children[parent], child)
		ix.parents[child] = append(ix.parents[child], parent)
	}
	return ix
}

func (ix *Index) intern(id int64) int {
	if s, ok := ix.slot[id]; ok {
		return s
	}
	s := len(ix.ids)
	ix.slot[id] = s
	ix.ids = append(ix.ids, id)
	ix.children = append(ix.children, nil)
	ix.parents = append(ix.parents, nil)
	return s
}

// Descendants returns every tag that implies one of roots, directly or
// transitively, ordered by id. Roots themselves are never included. A nil
// Index has no edges.
func (ix *Index) Descendants(roots ...int64) []int64 {
	if ix == nil {
		return nil
	}
	isRoot := make(map[int64]bool, len(roots))
	for _, r := range roots {
		isRoot[r] = true
	}

	visited := make([]bool, len(ix.ids))
	queue := make([]int, 0, len(roots))
	for _, r := range roots {
		if s, ok := ix.slot[r]; ok && !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}

	var out []int64
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range ix.children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			queue = append(queue, child)
			if !isRoot[ix.ids[child]] {
				out = append(out, ix.ids[child])
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Implies reports whether from reaches to by following child->parent edges.
// A tag does not imply itself.
func (ix *Index) Implies(from, to int64) bool {
	if ix == nil {
		return false
	}
	start, ok := ix.slot[from]
	if !ok {
		return false
	}
	target, ok := ix.slot[to]
	if !ok {
		return false
	}

	visited := make([]bool, len(ix.ids))
	stack := []int{start}
	visited[start] = true
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, parent := range ix.parents[current] {
			if parent == target {
				return true
			}
			if !visited[parent] {
				visited[parent] = true
				stack = append(stack, parent)
			}
		}
	}
	return false
}
