package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/models"
)

// HybridCacheService in-process LRU (L1) in front of a shared cache (L2, Redis)
type HybridCacheService struct {
	local  *CacheService
	shared ICacheService
	logger *zap.Logger
}

func NewHybridCacheService(local *CacheService, shared ICacheService, logger *zap.Logger) *HybridCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridCacheService{local: local, shared: shared, logger: logger}
}

// Get reads L1 first. An L2 hit is copied back into L1. An L2 error is logged
// and reported as a miss so search keeps working without Redis.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) ([]models.AddressResult, bool, error) {
	if results, ok, _ := hcs.local.Get(ctx, key); ok {
		return results, true, nil
	}

	results, ok, err := hcs.shared.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Shared cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	_ = hcs.local.Set(ctx, key, results)
	return results, true, nil
}

// Set writes both tiers. L1 always succeeds, so only the L2 error is returned.
func (hcs *HybridCacheService) Set(ctx context.Context, key string, results []models.AddressResult) error {
	_ = hcs.local.Set(ctx, key, results)
	if err := hcs.shared.Set(ctx, key, results); err != nil {
		hcs.logger.Warn("Shared cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return errors.Join(hcs.local.Delete(ctx, key), hcs.shared.Delete(ctx, key))
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	err := errors.Join(hcs.local.Clear(ctx), hcs.shared.Clear(ctx))
	if err == nil {
		hcs.logger.Info("Cleared hybrid cache")
	}
	return err
}

// GetStats sums both tiers. Item count comes from L2, which holds the superset.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	local, _ := hcs.local.GetStats(ctx)
	shared, err := hcs.shared.GetStats(ctx)
	if err != nil {
		hcs.logger.Warn("Shared cache stats failed", zap.Error(err))
		local.Tier = "hybrid"
		return local, nil
	}

	hits := local.TotalHits + shared.TotalHits
	// an L1 miss that hits L2 is not a miss overall
	misses := shared.TotalMiss
	return &CacheStats{
		Tier:       "hybrid",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: shared.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := hcs.local.Exists(ctx, key); ok {
		return true, nil
	}
	return hcs.shared.Exists(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hcs.local.Clear(ctx)
	return hcs.shared.Close()
}
