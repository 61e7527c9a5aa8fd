// Package query turns free-text tag queries into an engine-ready filter.
//
// A query is a list of clauses, each one of:
//   - a tag: "character:mario", "mario", negated with a leading "-"
//   - a wildcard tag: "character:*mar*", "*:mario"
//   - an OR group: "or:character:mario OR (or:stage:a OR stage:b)"
//   - a system predicate: "system:everything"
//
// Clauses pass through three stages:
//
//	predicates, err := query.Parse(clauses) // []Predicate, *SyntaxError
//	plan := planner.Plan(predicates)        // deduplicated, cached *QueryPlan
//	q := query.Reduce(plan)                 // *DecomposedQuery
//
// The Planner is backed by a process-wide PlanCache. Plans are keyed by the
// structure of their predicates, never change once cached, and are evicted
// only when unused for the cache TTL.
package query
