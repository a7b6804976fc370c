package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iconidentify/newsreel/internal/domain"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsreel_feed_cache_hits_total",
		Help: "Feed cache hits by backend.",
	}, []string{"backend"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsreel_feed_cache_misses_total",
		Help: "Feed cache misses by backend.",
	}, []string{"backend"})
)

// LRUCache is a per-instance in-memory feed cache with TTL.
type LRUCache struct {
	lru *expirable.LRU[string, *domain.FeedPage]
}

// NewLRUCache creates a cache holding at most size pages, each for ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, *domain.FeedPage](size, nil, ttl)}
}

// Get implements FeedCache.
func (c *LRUCache) Get(_ context.Context, key string) (*domain.FeedPage, bool, error) {
	page, ok := c.lru.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues("memory").Inc()
		return page, true, nil
	}
	cacheMissesTotal.WithLabelValues("memory").Inc()
	return nil, false, nil
}

// Set implements FeedCache.
func (c *LRUCache) Set(_ context.Context, key string, page *domain.FeedPage) error {
	c.lru.Add(key, page)
	return nil
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}
