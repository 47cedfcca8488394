package services

import (
	"context"

	"github.com/KonghaYao/text2location/app/models"
)

// CacheStats cache counters
type CacheStats struct {
	Tier       string  `json:"tier"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService result cache keyed by normalized query and limit
type ICacheService interface {
	Get(ctx context.Context, key string) ([]models.AddressResult, bool, error)
	Set(ctx context.Context, key string, results []models.AddressResult) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry, used after weights change or a rebuild
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*CacheStats, error)
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
