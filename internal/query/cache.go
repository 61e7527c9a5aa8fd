package query

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default plan cache settings.
const (
	DefaultPlanCacheTTL  = 5 * time.Minute
	DefaultPlanCacheSize = 1024
)

// PlanCache stores optimised plans by cache key. Plans are immutable once
// added; implementations never update an entry in place.
type PlanCache interface {
	Get(key string) (*QueryPlan, bool)
	Add(key string, plan *QueryPlan)
}

// ExpiringPlanCache is a PlanCache with sliding expiration: every hit pushes
// the entry's expiry out by the full TTL. It is created once per process and
// is safe for concurrent use.
type ExpiringPlanCache struct {
	lru *expirable.LRU[string, *QueryPlan]
}

// NewPlanCache creates a plan cache holding at most size plans (0 for no
// limit) that each expire ttl after their last use.
func NewPlanCache(size int, ttl time.Duration) *ExpiringPlanCache {
	if size < 0 {
		size = DefaultPlanCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	return &ExpiringPlanCache{
		lru: expirable.NewLRU[string, *QueryPlan](size, nil, ttl),
	}
}

// Get returns the cached plan for key and refreshes its expiry.
func (c *ExpiringPlanCache) Get(key string) (*QueryPlan, bool) {
	plan, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	// Re-adding the same immutable plan only moves the expiry forward.
	c.lru.Add(key, plan)
	return plan, true
}

// Add stores plan under key.
func (c *ExpiringPlanCache) Add(key string, plan *QueryPlan) {
	c.lru.Add(key, plan)
}

// Len returns the number of live entries.
func (c *ExpiringPlanCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *ExpiringPlanCache) Purge() {
	c.lru.Purge()
}
