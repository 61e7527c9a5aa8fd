package query

import (
	"fmt"
	"sort"
	"strings"
)

// RepositoryType identifies the repository a hash currently sits in. Values
// match the seeded rows of the repositories table.
type RepositoryType int

const (
	RepositoryInbox   RepositoryType = 1
	RepositoryArchive RepositoryType = 2
	RepositoryTrash   RepositoryType = 3
)

// String returns the lowercase repository name.
func (r RepositoryType) String() string {
	switch r {
	case RepositoryInbox:
		return "inbox"
	case RepositoryArchive:
		return "archive"
	case RepositoryTrash:
		return "trash"
	default:
		return fmt.Sprintf("repository(%d)", int(r))
	}
}

// ParseRepositoryType converts a repository name into its RepositoryType.
func ParseRepositoryType(s string) (RepositoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbox":
		return RepositoryInbox, nil
	case "archive":
		return RepositoryArchive, nil
	case "trash":
		return RepositoryTrash, nil
	default:
		return 0, fmt.Errorf("unknown repository %q", s)
	}
}

// TagSet is a set of tags keyed by value.
type TagSet map[TagKey]struct{}

// Add inserts k.
func (s TagSet) Add(k TagKey) { s[k] = struct{}{} }

// Sorted returns the members ordered by namespace, then subtag.
func (s TagSet) Sorted() []TagKey {
	out := make([]TagKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Subtag < out[j].Subtag
	})
	return out
}

func (s TagSet) union(other TagSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// PatternSet is a set of wildcard patterns keyed by value.
type PatternSet map[WildcardPattern]struct{}

// Add inserts p.
func (s PatternSet) Add(p WildcardPattern) { s[p] = struct{}{} }

// Sorted returns the members ordered by namespace, then subtag.
func (s PatternSet) Sorted() []WildcardPattern {
	out := make([]WildcardPattern, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Subtag < out[j].Subtag
	})
	return out
}

func (s PatternSet) union(other PatternSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// OrGroup holds the positive members of one OR group. A hash satisfies the
// group by carrying any of Tags (or a descendant of one) or any tag matching
// one of Patterns.
type OrGroup struct {
	Tags     TagSet
	Patterns PatternSet
}

// DecomposedQuery is the flattened, engine-ready form of a query plan.
//
// TagsToInclude are ANDed: a hash must carry every one of them (or a
// descendant of each). Each of OrGroups must be satisfied on its own. Wildcard
// include sets are unioned and required; every exclude set is unioned and
// forbidden.
type DecomposedQuery struct {
	SystemPredicates []SystemPredicate

	TagsToInclude TagSet
	TagsToExclude TagSet
	OrGroups      []OrGroup

	// WildcardNamespaces patterns have a wildcarded namespace and an exact
	// subtag, WildcardSubtags the reverse, WildcardDoubles both wildcarded.
	// An empty namespace on a WildcardSubtags pattern matches any namespace.
	WildcardNamespacesToInclude PatternSet
	WildcardNamespacesToExclude PatternSet
	WildcardSubtagsToInclude    PatternSet
	WildcardSubtagsToExclude    PatternSet
	WildcardDoublesToInclude    PatternSet
	WildcardDoublesToExclude    PatternSet

	// RepositoryFilters restricts results to the listed repositories. When
	// empty, every repository except Trash is searched.
	RepositoryFilters []RepositoryType

	// Limit caps the number of results; 0 means no limit.
	Limit  int
	Offset int

	// NoResults short-circuits the search: the query matches nothing.
	NoResults bool
}

// NewDecomposedQuery returns a query with every set allocated.
func NewDecomposedQuery() *DecomposedQuery {
	return &DecomposedQuery{
		TagsToInclude:               TagSet{},
		TagsToExclude:               TagSet{},
		WildcardNamespacesToInclude: PatternSet{},
		WildcardNamespacesToExclude: PatternSet{},
		WildcardSubtagsToInclude:    PatternSet{},
		WildcardSubtagsToExclude:    PatternSet{},
		WildcardDoublesToInclude:    PatternSet{},
		WildcardDoublesToExclude:    PatternSet{},
	}
}

// IsEmpty reports whether the query places no tag or system restriction.
func (q *DecomposedQuery) IsEmpty() bool {
	return len(q.TagsToInclude) == 0 &&
		len(q.TagsToExclude) == 0 &&
		len(q.OrGroups) == 0 &&
		len(q.WildcardNamespacesToInclude) == 0 &&
		len(q.WildcardNamespacesToExclude) == 0 &&
		len(q.WildcardSubtagsToInclude) == 0 &&
		len(q.WildcardSubtagsToExclude) == 0 &&
		len(q.WildcardDoublesToInclude) == 0 &&
		len(q.WildcardDoublesToExclude) == 0 &&
		len(q.SystemPredicates) == 0
}

// Reduce flattens a plan into a DecomposedQuery. Pagination and repository
// filters are left for the caller to set.
func Reduce(plan *QueryPlan) *DecomposedQuery {
	q := NewDecomposedQuery()
	if plan == nil {
		return q
	}
	if plan.NoResults {
		q.NoResults = true
		return q
	}

	for _, pred := range plan.Predicates {
		switch p := pred.(type) {
		case TagPredicate:
			routeTag(p, q.TagsToInclude, q.TagsToExclude, q)
		case OrPredicate:
			reduceOr(p, q)
		case SystemPredicate:
			q.SystemPredicates = append(q.SystemPredicates, p)
		default:
			panic(fmt.Sprintf("query: unhandled predicate type %T", pred))
		}
	}
	return q
}

// reduceOr reduces an OR group into local sets. Its positive members,
// specific or wildcard, become one OrGroup of q; its negated members join q's
// exclude sets.
func reduceOr(or OrPredicate, q *DecomposedQuery) {
	local := NewDecomposedQuery()
	collectOr(or, local)

	group := OrGroup{Tags: local.TagsToInclude, Patterns: PatternSet{}}
	group.Patterns.union(local.WildcardNamespacesToInclude)
	group.Patterns.union(local.WildcardSubtagsToInclude)
	group.Patterns.union(local.WildcardDoublesToInclude)
	if len(group.Tags) > 0 || len(group.Patterns) > 0 {
		q.OrGroups = append(q.OrGroups, group)
	}

	q.TagsToExclude.union(local.TagsToExclude)
	q.WildcardNamespacesToExclude.union(local.WildcardNamespacesToExclude)
	q.WildcardSubtagsToExclude.union(local.WildcardSubtagsToExclude)
	q.WildcardDoublesToExclude.union(local.WildcardDoublesToExclude)
	q.SystemPredicates = append(q.SystemPredicates, local.SystemPredicates...)
}

func collectOr(or OrPredicate, local *DecomposedQuery) {
	for _, member := range or.Predicates {
		switch p := member.(type) {
		case TagPredicate:
			routeTag(p, local.TagsToInclude, local.TagsToExclude, local)
		case OrPredicate:
			collectOr(p, local)
		case SystemPredicate:
			local.SystemPredicates = append(local.SystemPredicates, p)
		default:
			panic(fmt.Sprintf("query: unhandled predicate type %T", member))
		}
	}
}

// routeTag files a tag predicate into the specific-tag sets or the wildcard
// bucket matching which half carries the wildcard.
func routeTag(p TagPredicate, include, exclude TagSet, q *DecomposedQuery) {
	if p.IsSpecificTag() {
		if p.IsExclusive {
			exclude.Add(p.Tag())
		} else {
			include.Add(p.Tag())
		}
		return
	}

	pattern := WildcardPattern{Namespace: p.NamespacePattern, Subtag: p.SubtagPattern}
	nsWild := HasWildcard(p.NamespacePattern)
	subWild := HasWildcard(p.SubtagPattern)

	var bucket PatternSet
	switch {
	case nsWild && subWild:
		bucket = pick(p.IsExclusive, q.WildcardDoublesToInclude, q.WildcardDoublesToExclude)
	case nsWild:
		bucket = pick(p.IsExclusive, q.WildcardNamespacesToInclude, q.WildcardNamespacesToExclude)
	default:
		bucket = pick(p.IsExclusive, q.WildcardSubtagsToInclude, q.WildcardSubtagsToExclude)
	}
	bucket.Add(pattern)
}

func pick(exclusive bool, include, exclude PatternSet) PatternSet {
	if exclusive {
		return exclude
	}
	return include
}
