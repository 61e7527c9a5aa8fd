package query

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRules(t *testing.T) {
	t.Parallel()

	mario := tag("character", "mario")
	luigi := tag("character", "luigi")
	castle := tag("stage", "castle")

	tests := []struct {
		name      string
		input     []Predicate
		want      []Predicate
		noResults bool
	}{
		{
			name:  "empty input",
			input: nil,
			want:  []Predicate{},
		},
		{
			name:  "removes duplicates keeping first position",
			input: []Predicate{mario, castle, mario},
			want:  []Predicate{mario, castle},
		},
		{
			name:      "tag and its negation match nothing",
			input:     []Predicate{mario, notTag("character", "mario")},
			noResults: true,
		},
		{
			name:  "negation of a different tag is kept",
			input: []Predicate{mario, notTag("character", "luigi")},
			want:  []Predicate{mario, notTag("character", "luigi")},
		},
		{
			name:  "flattens nested or groups",
			input: []Predicate{anyOf(mario, anyOf(luigi, castle))},
			want:  []Predicate{anyOf(mario, luigi, castle)},
		},
		{
			name:  "removes duplicate or members",
			input: []Predicate{anyOf(mario, luigi, mario)},
			want:  []Predicate{anyOf(mario, luigi)},
		},
		{
			name:  "unwraps single member or group",
			input: []Predicate{anyOf(mario, mario), castle},
			want:  []Predicate{mario, castle},
		},
		{
			name:  "unwrapped or member is deduplicated against top level",
			input: []Predicate{mario, anyOf(mario)},
			want:  []Predicate{mario},
		},
		{
			name:      "unwrapped or member can contradict",
			input:     []Predicate{anyOf(notTag("character", "mario")), mario},
			noResults: true,
		},
		{
			name:  "or groups equal regardless of member order",
			input: []Predicate{anyOf(mario, luigi), anyOf(luigi, mario)},
			want:  []Predicate{anyOf(mario, luigi)},
		},
		{
			name:  "drops everything alongside other predicates",
			input: []Predicate{EverythingPredicate{}, mario},
			want:  []Predicate{mario},
		},
		{
			name:  "keeps everything on its own",
			input: []Predicate{EverythingPredicate{}, EverythingPredicate{}},
			want:  []Predicate{EverythingPredicate{}},
		},
		{
			name:  "keeps other system predicates",
			input: []Predicate{FilesizePredicate{Expression: "> 1mb"}, UnknownSystemPredicate{Name: "inbox"}},
			want:  []Predicate{FilesizePredicate{Expression: "> 1mb"}, UnknownSystemPredicate{Name: "inbox"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := NewPlanner(nil).Plan(tt.input)
			require.NotNil(t, plan)
			assert.Equal(t, tt.noResults, plan.NoResults)
			assert.Equal(t, CacheKey(tt.input), plan.Key)
			if tt.noResults {
				assert.Empty(t, plan.Predicates)
				return
			}
			assert.Equal(t, tt.want, plan.Predicates)
		})
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	mario := tag("character", "mario")
	luigi := tag("character", "luigi")

	assert.Equal(t, CacheKey([]Predicate{mario, luigi}), CacheKey([]Predicate{luigi, mario}),
		"key should not depend on predicate order")
	assert.Equal(t,
		CacheKey([]Predicate{anyOf(mario, luigi)}),
		CacheKey([]Predicate{anyOf(luigi, mario)}),
		"key should not depend on or member order")

	assert.NotEqual(t, CacheKey([]Predicate{mario}), CacheKey([]Predicate{mario.Negated()}))
	assert.NotEqual(t, CacheKey([]Predicate{mario}), CacheKey([]Predicate{tag("", "character:mario")}))
	assert.NotEqual(t, CacheKey([]Predicate{mario, luigi}), CacheKey([]Predicate{anyOf(mario, luigi)}))
	assert.NotEqual(t,
		CacheKey([]Predicate{FilesizePredicate{Expression: "1"}}),
		CacheKey([]Predicate{DimensionsPredicate{Expression: "1"}}))
}

func TestPlannerReusesCachedPlan(t *testing.T) {
	t.Parallel()

	cache := NewPlanCache(16, time.Minute)
	planner := NewPlanner(cache)

	first := planner.Plan([]Predicate{tag("character", "mario"), tag("stage", "castle")})
	second := planner.Plan([]Predicate{tag("stage", "castle"), tag("character", "mario")})

	assert.Same(t, first, second, "structurally equal predicate sets should share one plan")
	assert.Equal(t, 1, cache.Len())

	planner.Plan([]Predicate{tag("character", "luigi")})
	assert.Equal(t, 2, cache.Len())
}

func TestPlannerConcurrentMissesShareOnePlan(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(NewPlanCache(16, time.Minute))
	input := []Predicate{tag("character", "mario"), anyOf(tag("stage", "a"), tag("stage", "b"))}

	const workers = 32
	plans := make([]*QueryPlan, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plans[i] = planner.Plan(input)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, plans[0], plans[i])
	}
}

func TestPlanCacheSlidingExpiration(t *testing.T) {
	t.Parallel()

	cache := NewPlanCache(16, 200*time.Millisecond)
	plan := &QueryPlan{Key: "k"}
	cache.Add("k", plan)

	// Each hit pushes the expiry out again.
	for i := 0; i < 3; i++ {
		time.Sleep(120 * time.Millisecond)
		got, ok := cache.Get("k")
		require.True(t, ok, "entry should survive while it keeps being used (iteration %d)", i)
		assert.Same(t, plan, got)
	}

	time.Sleep(400 * time.Millisecond)
	_, ok := cache.Get("k")
	assert.False(t, ok, "entry should expire once unused for longer than the ttl")
}

func TestPlanCachePurge(t *testing.T) {
	t.Parallel()

	cache := NewPlanCache(0, time.Minute)
	cache.Add("a", &QueryPlan{})
	cache.Add("b", &QueryPlan{})
	assert.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}
