package query

import "strings"

// Characters with special meaning inside a query clause.
const (
	NamespaceDelimiter = ':'
	Wildcard           = '*'
	Negation           = '-'
	OrSeparator        = " OR "

	systemPrefix = "system:"
	orPrefix     = "or:"
)

// Predicate is one parsed clause of a tag query.
//
// This is a sealed interface: only types in this package implement it, so a
// type switch over the concrete predicates below is exhaustive.
//
// Predicate types:
//   - TagPredicate: a (possibly negated, possibly wildcarded) namespace:subtag
//   - OrPredicate: a group of predicates of which any may match
//   - EverythingPredicate, FilesizePredicate, DimensionsPredicate,
//     UnknownSystemPredicate: "system:" clauses
type Predicate interface {
	predicateNode()
}

// SystemPredicate is the subset of predicates parsed from "system:" clauses.
type SystemPredicate interface {
	Predicate
	systemNode()
}

// TagPredicate matches hashes by tag.
type TagPredicate struct {
	NamespacePattern string
	SubtagPattern    string
	IsExclusive      bool
}

// IsWildcard reports whether either half of the predicate contains a wildcard.
func (p TagPredicate) IsWildcard() bool {
	return strings.ContainsRune(p.NamespacePattern, Wildcard) ||
		strings.ContainsRune(p.SubtagPattern, Wildcard)
}

// IsSpecificTag reports whether the predicate names exactly one tag.
func (p TagPredicate) IsSpecificTag() bool {
	return !p.IsWildcard()
}

// Negated returns the same predicate with the opposite sign.
func (p TagPredicate) Negated() TagPredicate {
	p.IsExclusive = !p.IsExclusive
	return p
}

// Tag returns the namespace/subtag pair the predicate names.
func (p TagPredicate) Tag() TagKey {
	return TagKey{Namespace: p.NamespacePattern, Subtag: p.SubtagPattern}
}

// String renders the predicate back into clause form.
func (p TagPredicate) String() string {
	var b strings.Builder
	if p.IsExclusive {
		b.WriteRune(Negation)
	}
	if p.NamespacePattern != "" {
		b.WriteString(p.NamespacePattern)
		b.WriteRune(NamespaceDelimiter)
	}
	b.WriteString(p.SubtagPattern)
	return b.String()
}

// OrPredicate matches when any of its members match. It owns its member list;
// members are never shared between groups.
type OrPredicate struct {
	Predicates []Predicate
}

// EverythingPredicate ("system:everything") places no restriction on results.
type EverythingPredicate struct{}

// FilesizePredicate is parsed from "system:filesize ..." but not yet evaluated.
type FilesizePredicate struct {
	Expression string
}

// DimensionsPredicate is parsed from "system:dimensions ..." but not yet evaluated.
type DimensionsPredicate struct {
	Expression string
}

// UnknownSystemPredicate holds a "system:" clause this package does not
// recognise. It contributes no restriction to a search.
type UnknownSystemPredicate struct {
	Name string
}

func (TagPredicate) predicateNode()           {}
func (OrPredicate) predicateNode()            {}
func (EverythingPredicate) predicateNode()    {}
func (FilesizePredicate) predicateNode()      {}
func (DimensionsPredicate) predicateNode()    {}
func (UnknownSystemPredicate) predicateNode() {}

func (EverythingPredicate) systemNode()    {}
func (FilesizePredicate) systemNode()      {}
func (DimensionsPredicate) systemNode()    {}
func (UnknownSystemPredicate) systemNode() {}

// TagKey is the natural key of a tag: its namespace and subtag values.
type TagKey struct {
	Namespace string `json:"namespace"`
	Subtag    string `json:"subtag"`
}

// String renders the key as "namespace:subtag", or just the subtag when the
// namespace is empty.
func (k TagKey) String() string {
	if k.Namespace == "" {
		return k.Subtag
	}
	return k.Namespace + string(NamespaceDelimiter) + k.Subtag
}

// WildcardPattern is a namespace/subtag pattern pair with at least one half
// containing a wildcard.
type WildcardPattern struct {
	Namespace string
	Subtag    string
}

// StripWildcards removes every wildcard character from a pattern, leaving the
// text used for substring matching.
func StripWildcards(pattern string) string {
	return strings.ReplaceAll(pattern, string(Wildcard), "")
}

// IsFullWildcard reports whether the pattern is exactly "*".
func IsFullWildcard(pattern string) bool {
	return pattern == string(Wildcard)
}

// HasWildcard reports whether the pattern contains a wildcard character.
func HasWildcard(pattern string) bool {
	return strings.ContainsRune(pattern, Wildcard)
}
