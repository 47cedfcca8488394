package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/metrics"
)

// CacheService in-process LRU with per-entry TTL
type CacheService struct {
	lru    *expirable.LRU[string, []models.AddressResult]
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService size <= 0 means unbounded, ttl <= 0 means no expiry
func NewCacheService(size int, ttl time.Duration) *CacheService {
	return &CacheService{
		lru: expirable.NewLRU[string, []models.AddressResult](size, nil, ttl),
		ttl: ttl,
	}
}

func (cs *CacheService) Get(ctx context.Context, key string) ([]models.AddressResult, bool, error) {
	results, ok := cs.lru.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	return results, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, results []models.AddressResult) error {
	cs.lru.Add(key, results)
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.lru.Remove(key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.lru.Purge()
	return nil
}

func (cs *CacheService) Size() int {
	return cs.lru.Len()
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Tier:       "memory",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.lru.Len()),
	}, nil
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return cs.lru.Contains(key), nil
}

// Close nothing to release for an in-memory cache
func (cs *CacheService) Close() error {
	return nil
}
