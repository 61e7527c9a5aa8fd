package search

import (
	"context"
	"errors"

	"media-archive/internal/database"
	"media-archive/internal/logging"
	"media-archive/internal/metrics"
	"media-archive/internal/query"
)

// Request is a raw query as received from a client.
type Request struct {
	Clauses      []string
	Limit        int
	Offset       int
	Repositories []query.RepositoryType
}

// Service runs the full pipeline: parse, plan, reduce, then search or count.
type Service struct {
	planner  *query.Planner
	searcher *Searcher
	cache    *query.ExpiringPlanCache
}

// NewService creates a Service. cache may be nil to plan every query afresh.
func NewService(searcher *Searcher, cache *query.ExpiringPlanCache) *Service {
	var planCache query.PlanCache
	if cache != nil {
		planCache = cache
	}
	return &Service{
		planner:  query.NewPlanner(planCache),
		searcher: searcher,
		cache:    cache,
	}
}

// Query returns the hashes matching req.
func (s *Service) Query(ctx context.Context, req Request) ([]database.HashItem, error) {
	q, err := s.decompose(req)
	if err != nil {
		return nil, err
	}
	return s.searcher.Search(ctx, q)
}

// Count returns the number of hashes matching req, ignoring pagination.
func (s *Service) Count(ctx context.Context, req Request) (int, error) {
	q, err := s.decompose(req)
	if err != nil {
		return 0, err
	}
	return s.searcher.Count(ctx, q)
}

// Decompose parses, plans and reduces req without searching.
func (s *Service) Decompose(req Request) (*query.DecomposedQuery, error) {
	return s.decompose(req)
}

func (s *Service) decompose(req Request) (*query.DecomposedQuery, error) {
	predicates, err := query.Parse(req.Clauses)
	if err != nil {
		if errors.Is(err, query.ErrSyntax) {
			metrics.QueryParseTotal.WithLabelValues("syntax_error").Inc()
		}
		return nil, err
	}
	metrics.QueryParseTotal.WithLabelValues("success").Inc()

	plan := s.planner.Plan(predicates)
	if s.cache != nil {
		metrics.PlanCacheEntries.Set(float64(s.cache.Len()))
	}
	if plan.NoResults {
		metrics.QueryNoResultsTotal.Inc()
		logging.Debug("Query %v contradicts itself", req.Clauses)
	}

	q := query.Reduce(plan)
	q.RepositoryFilters = req.Repositories
	q.Limit = req.Limit
	q.Offset = req.Offset
	return q, nil
}
