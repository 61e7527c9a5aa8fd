package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduceClauses(t *testing.T, clauses ...string) *DecomposedQuery {
	t.Helper()

	predicates, err := Parse(clauses)
	require.NoError(t, err)
	return Reduce(NewPlanner(nil).Plan(predicates))
}

func key(ns, sub string) TagKey {
	return TagKey{Namespace: ns, Subtag: sub}
}

func TestReduceSpecificTags(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "character:mario", "-stage:castle", "peach")

	assert.Equal(t, []TagKey{key("", "peach"), key("character", "mario")}, q.TagsToInclude.Sorted())
	assert.Equal(t, []TagKey{key("stage", "castle")}, q.TagsToExclude.Sorted())
	assert.Empty(t, q.OrGroups)
	assert.False(t, q.NoResults)
	assert.False(t, q.IsEmpty())
}

func TestReduceRoutesWildcards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		clause string
		bucket func(q *DecomposedQuery) PatternSet
		want   WildcardPattern
	}{
		{
			"*:mario",
			func(q *DecomposedQuery) PatternSet { return q.WildcardNamespacesToInclude },
			WildcardPattern{Namespace: "*", Subtag: "mario"},
		},
		{
			"-*char*:mario",
			func(q *DecomposedQuery) PatternSet { return q.WildcardNamespacesToExclude },
			WildcardPattern{Namespace: "*char*", Subtag: "mario"},
		},
		{
			"character:*mar*",
			func(q *DecomposedQuery) PatternSet { return q.WildcardSubtagsToInclude },
			WildcardPattern{Namespace: "character", Subtag: "*mar*"},
		},
		{
			"-character:*",
			func(q *DecomposedQuery) PatternSet { return q.WildcardSubtagsToExclude },
			WildcardPattern{Namespace: "character", Subtag: "*"},
		},
		{
			"*mar*",
			func(q *DecomposedQuery) PatternSet { return q.WildcardSubtagsToInclude },
			WildcardPattern{Namespace: "", Subtag: "*mar*"},
		},
		{
			"*char*:*mar*",
			func(q *DecomposedQuery) PatternSet { return q.WildcardDoublesToInclude },
			WildcardPattern{Namespace: "*char*", Subtag: "*mar*"},
		},
		{
			"-*:*",
			func(q *DecomposedQuery) PatternSet { return q.WildcardDoublesToExclude },
			WildcardPattern{Namespace: "*", Subtag: "*"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.clause, func(t *testing.T) {
			t.Parallel()

			q := reduceClauses(t, tt.clause)
			assert.Equal(t, []WildcardPattern{tt.want}, tt.bucket(q).Sorted())
			assert.Empty(t, q.TagsToInclude)
			assert.Empty(t, q.TagsToExclude)
		})
	}
}

func TestReduceOrGroupUnionsMembers(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "or:character:mario OR character:luigi", "stage:castle")

	require.Len(t, q.OrGroups, 1)
	assert.Equal(t, []TagKey{key("character", "luigi"), key("character", "mario")}, q.OrGroups[0].Tags.Sorted())
	assert.Empty(t, q.OrGroups[0].Patterns)
	assert.Equal(t, []TagKey{key("stage", "castle")}, q.TagsToInclude.Sorted())
}

func TestReduceKeepsOrGroupsSeparate(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "or:character:luigi OR character:mario", "or:stage:desert OR landscape")

	require.Len(t, q.OrGroups, 2)
	groups := map[TagKey][]TagKey{}
	for _, g := range q.OrGroups {
		members := g.Tags.Sorted()
		groups[members[0]] = members
	}
	assert.Equal(t, []TagKey{key("character", "luigi"), key("character", "mario")}, groups[key("character", "luigi")])
	assert.Equal(t, []TagKey{key("", "landscape"), key("stage", "desert")}, groups[key("", "landscape")])
	assert.Empty(t, q.TagsToInclude)
}

func TestReduceOrGroupRoutesNegatedAndWildcardMembers(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "or:character:mario OR -character:bowser OR stage:*castle*")

	require.Len(t, q.OrGroups, 1)
	assert.Equal(t, []TagKey{key("character", "mario")}, q.OrGroups[0].Tags.Sorted())
	assert.Equal(t, []WildcardPattern{{Namespace: "stage", Subtag: "*castle*"}}, q.OrGroups[0].Patterns.Sorted())
	assert.Equal(t, []TagKey{key("character", "bowser")}, q.TagsToExclude.Sorted())
	assert.Empty(t, q.WildcardSubtagsToInclude, "wildcard members stay inside their group")
}

func TestReduceOrGroupOfNegationsOnlyExcludes(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "or:-character:bowser OR -stage:*lava*")

	assert.Empty(t, q.OrGroups)
	assert.Equal(t, []TagKey{key("character", "bowser")}, q.TagsToExclude.Sorted())
	assert.Equal(t, []WildcardPattern{{Namespace: "stage", Subtag: "*lava*"}}, q.WildcardSubtagsToExclude.Sorted())
}

func TestReduceNestedOrWithoutPlanning(t *testing.T) {
	t.Parallel()

	plan := &QueryPlan{Predicates: []Predicate{
		anyOf(tag("character", "mario"), anyOf(tag("stage", "a"), notTag("stage", "b"))),
	}}
	q := Reduce(plan)

	require.Len(t, q.OrGroups, 1)
	assert.Equal(t, []TagKey{key("character", "mario"), key("stage", "a")}, q.OrGroups[0].Tags.Sorted())
	assert.Equal(t, []TagKey{key("stage", "b")}, q.TagsToExclude.Sorted())
}

func TestReduceSystemPredicates(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "system:everything")
	assert.Equal(t, []SystemPredicate{EverythingPredicate{}}, q.SystemPredicates)
	assert.False(t, q.IsEmpty())

	q = reduceClauses(t, "system:filesize > 1mb", "system:archived")
	assert.Equal(t, []SystemPredicate{
		FilesizePredicate{Expression: "> 1mb"},
		UnknownSystemPredicate{Name: "archived"},
	}, q.SystemPredicates)
}

func TestReduceNoResultsPlan(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t, "character:mario", "-character:mario")
	assert.True(t, q.NoResults)
	assert.Empty(t, q.TagsToInclude)
	assert.Empty(t, q.TagsToExclude)
}

func TestReduceEmptyPlan(t *testing.T) {
	t.Parallel()

	q := reduceClauses(t)
	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.RepositoryFilters)
	assert.Zero(t, q.Limit)
	assert.Zero(t, q.Offset)

	assert.True(t, Reduce(nil).IsEmpty())
}

func TestRepositoryType(t *testing.T) {
	t.Parallel()

	for _, repo := range []RepositoryType{RepositoryInbox, RepositoryArchive, RepositoryTrash} {
		parsed, err := ParseRepositoryType(repo.String())
		require.NoError(t, err)
		assert.Equal(t, repo, parsed)
	}

	parsed, err := ParseRepositoryType(" Trash ")
	require.NoError(t, err)
	assert.Equal(t, RepositoryTrash, parsed)

	_, err = ParseRepositoryType("recycle bin")
	assert.Error(t, err)
	assert.Equal(t, "repository(9)", RepositoryType(9).String())
}
