package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"media-archive/internal/logging"
	"media-archive/internal/metrics"
)

// QueryPlan is an optimised, deduplicated predicate list ready for reduction.
// Plans are shared through the plan cache and must not be modified.
type QueryPlan struct {
	Predicates []Predicate
	Key        string

	// NoResults is set when the predicates contradict each other, e.g. a tag
	// and its negation. Such a plan matches nothing.
	NoResults bool
}

// Planner optimises predicate lists, caching the result by structural key.
type Planner struct {
	cache PlanCache
	group singleflight.Group
}

// NewPlanner creates a planner backed by cache. A nil cache disables caching.
func NewPlanner(cache PlanCache) *Planner {
	return &Planner{cache: cache}
}

// Plan returns the optimised plan for predicates. Identical predicate sets
// reuse the cached plan; concurrent misses for the same key are computed once.
func (p *Planner) Plan(predicates []Predicate) *QueryPlan {
	key := CacheKey(predicates)

	if p.cache == nil {
		return optimize(key, predicates)
	}

	if plan, ok := p.cache.Get(key); ok {
		metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
		return plan
	}
	metrics.PlanCacheLookups.WithLabelValues("miss").Inc()

	v, _, _ := p.group.Do(key, func() (interface{}, error) {
		if plan, ok := p.cache.Get(key); ok {
			return plan, nil
		}
		plan := optimize(key, predicates)
		p.cache.Add(key, plan)
		logging.Debug("Cached query plan %s (%d predicates, noResults=%v)", shortKey(key), len(plan.Predicates), plan.NoResults)
		return plan, nil
	})
	return v.(*QueryPlan)
}

// CacheKey builds the structural cache key for a predicate list: the hash of
// each predicate, sorted ascending and joined.
func CacheKey(predicates []Predicate) string {
	hashes := make([]uint64, len(predicates))
	for i, pred := range predicates {
		hashes[i] = xxhash.Sum64String(canonical(pred))
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	parts := make([]string, len(hashes))
	for i, h := range hashes {
		parts[i] = strconv.FormatUint(h, 16)
	}
	return strings.Join(parts, "|")
}

// canonical encodes a predicate so that structurally equal predicates encode
// identically. OR members are encoded order-independently.
func canonical(p Predicate) string {
	switch v := p.(type) {
	case TagPredicate:
		return fmt.Sprintf("tag(%t,%q,%q)", v.IsExclusive, v.NamespacePattern, v.SubtagPattern)
	case OrPredicate:
		members := make([]string, len(v.Predicates))
		for i, m := range v.Predicates {
			members[i] = canonical(m)
		}
		sort.Strings(members)
		return "or(" + strings.Join(members, ",") + ")"
	case EverythingPredicate:
		return "system(everything)"
	case FilesizePredicate:
		return fmt.Sprintf("system(filesize,%q)", v.Expression)
	case DimensionsPredicate:
		return fmt.Sprintf("system(dimensions,%q)", v.Expression)
	case UnknownSystemPredicate:
		return fmt.Sprintf("system(unknown,%q)", v.Name)
	default:
		panic(fmt.Sprintf("query: unhandled predicate type %T", p))
	}
}

// optimize applies the planner's rewrite rules:
//   - OR groups nested in OR groups are flattened into their parent
//   - duplicate predicates are removed, at top level and within OR groups
//   - an OR group with a single member is replaced by that member
//   - system:everything is dropped when other predicates are present
//   - a tag predicate alongside its exact negation yields a NoResults plan
func optimize(key string, predicates []Predicate) *QueryPlan {
	seen := make(map[string]bool, len(predicates))
	out := make([]Predicate, 0, len(predicates))

	for _, pred := range predicates {
		if or, ok := pred.(OrPredicate); ok {
			pred = simplifyOr(or)
		}
		c := canonical(pred)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, pred)
	}

	if len(out) > 1 {
		kept := out[:0]
		for _, pred := range out {
			if _, ok := pred.(EverythingPredicate); ok {
				continue
			}
			kept = append(kept, pred)
		}
		out = kept
	}

	for _, pred := range out {
		tag, ok := pred.(TagPredicate)
		if !ok {
			continue
		}
		if seen[canonical(tag.Negated())] {
			return &QueryPlan{Key: key, NoResults: true}
		}
	}

	return &QueryPlan{Predicates: out, Key: key}
}

func simplifyOr(or OrPredicate) Predicate {
	seen := make(map[string]bool)
	var members []Predicate

	var collect func(p Predicate)
	collect = func(p Predicate) {
		if nested, ok := p.(OrPredicate); ok {
			for _, m := range nested.Predicates {
				collect(m)
			}
			return
		}
		c := canonical(p)
		if seen[c] {
			return
		}
		seen[c] = true
		members = append(members, p)
	}
	for _, m := range or.Predicates {
		collect(m)
	}

	if len(members) == 1 {
		return members[0]
	}
	return OrPredicate{Predicates: members}
}

func shortKey(key string) string {
	if len(key) > 32 {
		return key[:32] + "..."
	}
	return key
}
