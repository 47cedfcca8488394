package services

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/metrics"
	"github.com/KonghaYao/text2location/internal/search"
)

// SearchOutcome one answered search
type SearchOutcome struct {
	Query           string
	NormalizedQuery string
	Results         []models.AddressResult
	CacheHit        bool
	ProcessingTime  time.Duration
}

// AddressService answers address queries from the current index, with a result cache in front
type AddressService struct {
	mu           sync.RWMutex
	index        *search.SearchIndex
	cache        ICacheService
	cacheGen     atomic.Uint64 // bumped on every invalidation
	defaultLimit int
	logger       *zap.Logger
	startTime    time.Time
}

// NewAddressService cache may be nil
func NewAddressService(index *search.SearchIndex, cache ICacheService, defaultLimit int, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLimit <= 0 {
		defaultLimit = search.DefaultLimit
	}
	return &AddressService{
		index:        index,
		cache:        cache,
		defaultLimit: defaultLimit,
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Index currently served index
func (as *AddressService) Index() *search.SearchIndex {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.index
}

// SwapIndex serves next from now on, drops cached results and returns the previous index.
func (as *AddressService) SwapIndex(ctx context.Context, next *search.SearchIndex) *search.SearchIndex {
	as.mu.Lock()
	prev := as.index
	as.index = next
	as.mu.Unlock()

	as.InvalidateCache(ctx)
	return prev
}

func cacheKey(normalized string, limit int) string {
	return normalized + "|" + strconv.Itoa(limit)
}

// Search ranked matches for q. limit <= 0 uses the configured default.
func (as *AddressService) Search(ctx context.Context, q string, limit int) (*SearchOutcome, error) {
	return as.search(ctx, "search", q, limit)
}

// SearchFirst best match for q, nil when nothing matches.
func (as *AddressService) SearchFirst(ctx context.Context, q string) (*models.AddressResult, *SearchOutcome, error) {
	out, err := as.search(ctx, "first", q, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(out.Results) == 0 {
		return nil, out, nil
	}
	return &out.Results[0], out, nil
}

func (as *AddressService) search(ctx context.Context, endpoint, q string, limit int) (*SearchOutcome, error) {
	start := time.Now()
	metrics.SearchRequestsTotal.WithLabelValues(endpoint).Inc()
	defer func() {
		metrics.SearchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if limit <= 0 {
		limit = as.defaultLimit
	}
	// Read before the index so a concurrent swap or reweight is always observed.
	gen := as.cacheGen.Load()
	index := as.Index()
	out := &SearchOutcome{Query: q, NormalizedQuery: index.Normalize(q)}
	key := cacheKey(out.NormalizedQuery, limit)

	if as.cache != nil && out.NormalizedQuery != "" {
		cached, ok, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			// Cached under the normalized query; similarity belongs to the raw one.
			out.Results = index.Rescore(q, cached)
			out.CacheHit = true
			out.ProcessingTime = time.Since(start)
			return out, nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	results, err := index.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		metrics.SearchEmptyTotal.Inc()
	}
	out.Results = results

	if as.cache != nil && out.NormalizedQuery != "" {
		as.storeResults(ctx, gen, key, results)
	}
	out.ProcessingTime = time.Since(start)
	return out, nil
}

// storeResults caches results computed under generation gen. Results that an
// invalidation overtook are never left behind.
func (as *AddressService) storeResults(ctx context.Context, gen uint64, key string, results []models.AddressResult) {
	if as.cacheGen.Load() != gen {
		return
	}
	if err := as.cache.Set(ctx, key, results); err != nil {
		as.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if as.cacheGen.Load() != gen {
		if err := as.cache.Delete(ctx, key); err != nil {
			as.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (as *AddressService) Normalize(q string) string {
	return as.Index().Normalize(q)
}

func (as *AddressService) Weights() search.FieldWeights {
	return as.Index().Weights()
}

// SetWeights applies w to the served index and drops cached rankings.
func (as *AddressService) SetWeights(ctx context.Context, w search.FieldWeights) error {
	if err := as.Index().SetWeights(w); err != nil {
		return err
	}
	as.InvalidateCache(ctx)
	return nil
}

func (as *AddressService) InvalidateCache(ctx context.Context) {
	as.cacheGen.Add(1)
	if as.cache == nil {
		return
	}
	if err := as.cache.Clear(ctx); err != nil {
		as.logger.Warn("Cache clear failed", zap.Error(err))
	}
}

func (as *AddressService) CacheStats(ctx context.Context) (*CacheStats, error) {
	if as.cache == nil {
		return nil, nil
	}
	return as.cache.GetStats(ctx)
}

func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}
