package database

import (
	"errors"
	"time"

	"media-archive/internal/query"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

type Tag struct {
	ID          int64  `json:"id"`
	NamespaceID int64  `json:"-"`
	SubtagID    int64  `json:"-"`
	Namespace   string `json:"namespace"`
	Subtag      string `json:"subtag"`
}

// Key returns the tag's natural key.
func (t Tag) Key() query.TagKey {
	return query.TagKey{Namespace: t.Namespace, Subtag: t.Subtag}
}

type HashItem struct {
	ID         int64                `json:"id"`
	Hash       []byte               `json:"hash"`
	Repository query.RepositoryType `json:"repository"`
	DeletedAt  *time.Time           `json:"deletedAt,omitempty"`
}

// TagEdge is a parent implication: anything tagged ChildID satisfies ParentID.
type TagEdge struct {
	ChildID  int64
	ParentID int64
}

// MatchMode selects how a TextMatch compares a column value.
type MatchMode int

const (
	// MatchAny places no condition on the value.
	MatchAny MatchMode = iota
	// MatchExact requires equality.
	MatchExact
	// MatchSubstring requires the value to contain Text.
	MatchSubstring
)

// TextMatch is a single condition on a namespace or subtag value.
type TextMatch struct {
	Mode MatchMode
	Text string
}

// Any matches every value.
func Any() TextMatch { return TextMatch{Mode: MatchAny} }

// Exact matches values equal to s.
func Exact(s string) TextMatch { return TextMatch{Mode: MatchExact, Text: s} }

// Contains matches values containing s. An empty s matches every value.
func Contains(s string) TextMatch {
	if s == "" {
		return Any()
	}
	return TextMatch{Mode: MatchSubstring, Text: s}
}

// TagPattern matches tags by namespace and subtag value.
type TagPattern struct {
	Namespace TextMatch
	Subtag    TextMatch
}

// TagAlternatives is satisfied by a hash mapped to any of TagIDs or carrying
// a tag that matches any of Patterns.
type TagAlternatives struct {
	TagIDs   []int64
	Patterns []TagPattern
}

// HashFilter describes a hash search. Every populated field narrows the
// result; an empty filter returns every hash outside Trash.
type HashFilter struct {
	// Repositories to search. Empty means every repository except Trash.
	Repositories []query.RepositoryType

	// RequireAll holds groups of tag ids; a hash must be mapped to at least
	// one id of every group. An empty group matches nothing.
	RequireAll [][]int64

	// Forbid lists tag ids no returned hash may be mapped to.
	Forbid []int64

	// RequireAnyOf holds OR groups; a hash must satisfy at least one
	// alternative of every group. A group with no alternatives matches nothing.
	RequireAnyOf []TagAlternatives

	// RequireAnyPattern: a hash must carry a tag matching at least one pattern.
	RequireAnyPattern []TagPattern

	// ForbidPattern: a hash must carry no tag matching any pattern.
	ForbidPattern []TagPattern

	// Limit caps the result size; 0 means no limit.
	Limit  int
	Offset int
}
