package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/metrics"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/resolver"
	"github.com/KonghaYao/text2location/internal/search"
)

// ErrExportDisabled no Meilisearch exporter configured
var ErrExportDisabled = errors.New("meilisearch export is not configured")

// SourceOpener opens the region source for one pipeline run.
type SourceOpener func(ctx context.Context) (regions.Source, error)

// AdminOptions wiring for AdminService
type AdminOptions struct {
	OpenSource SourceOpener
	Resolve    resolver.Options
	BatchSize  int
	// Index options for rebuilt indexes. Rebuilds are always in memory, Path is ignored.
	Index    search.Options
	Exporter *search.MeiliExporter
}

// RebuildResult summary of the last rebuild
type RebuildResult struct {
	Documents  int       `json:"documents"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// SystemStats admin stats payload
type SystemStats struct {
	Documents     uint64                 `json:"documents"`
	State         string                 `json:"state"`
	Strategy      string                 `json:"strategy"`
	Weights       search.FieldWeights    `json:"weights"`
	Cache         *CacheStats            `json:"cache,omitempty"`
	Uptime        string                 `json:"uptime"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	MemoryUsage   map[string]interface{} `json:"memory_usage"`
	LastRebuild   *RebuildResult         `json:"last_rebuild,omitempty"`
}

// AdminService index maintenance: rebuild, export and stats
type AdminService struct {
	addresses *AddressService
	opts      AdminOptions
	logger    *zap.Logger

	mu          sync.Mutex // one pipeline run at a time
	lastRebuild atomic.Pointer[RebuildResult]
}

func NewAdminService(addresses *AddressService, opts AdminOptions, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{addresses: addresses, opts: opts, logger: logger}
}

// Rebuild reloads the region source into a fresh index with the current
// weights, swaps it in and closes the old one. Searches keep hitting the old
// index until the swap.
func (as *AdminService) Rebuild(ctx context.Context) (*RebuildResult, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	start := time.Now()

	addrs, err := as.loadAddresses(ctx)
	if err != nil {
		return nil, err
	}

	opts := as.opts.Index
	opts.Path = ""
	opts.Strategy = as.addresses.Index().Strategy()
	next, err := search.NewWithWeights(as.addresses.Weights(), opts)
	if err != nil {
		return nil, err
	}
	if err := IndexAddresses(next, addrs, as.opts.BatchSize); err != nil {
		_ = next.Close()
		return nil, err
	}

	prev := as.addresses.SwapIndex(ctx, next)
	if prev != nil {
		if err := prev.Close(); err != nil {
			as.logger.Warn("Closing previous index failed", zap.Error(err))
		}
	}
	metrics.IndexedDocuments.Set(float64(len(addrs)))

	result := &RebuildResult{
		Documents:  len(addrs),
		DurationMs: time.Since(start).Milliseconds(),
		FinishedAt: time.Now(),
	}
	as.lastRebuild.Store(result)
	as.logger.Info("Index rebuilt",
		zap.Int("documents", result.Documents),
		zap.Int64("duration_ms", result.DurationMs))
	return result, nil
}

// ExportMeili pushes the resolved addresses to Meilisearch.
func (as *AdminService) ExportMeili(ctx context.Context) (int, error) {
	if as.opts.Exporter == nil {
		return 0, ErrExportDisabled
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	addrs, err := as.loadAddresses(ctx)
	if err != nil {
		return 0, err
	}
	return as.opts.Exporter.Export(ctx, addrs)
}

func (as *AdminService) loadAddresses(ctx context.Context) ([]models.ResolvedAddress, error) {
	if as.opts.OpenSource == nil {
		return nil, errors.New("no region source configured")
	}
	src, err := as.opts.OpenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("open region source: %w", err)
	}
	defer src.Close()
	return LoadAddresses(ctx, src, as.opts.Resolve, as.logger)
}

func (as *AdminService) Stats(ctx context.Context) (*SystemStats, error) {
	index := as.addresses.Index()
	count, err := index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(as.addresses.GetStartTime())
	stats := &SystemStats{
		Documents:     count,
		State:         index.State().String(),
		Strategy:      string(index.Strategy()),
		Weights:       index.Weights(),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	cache, err := as.addresses.CacheStats(ctx)
	if err != nil {
		as.logger.Warn("Cache stats failed", zap.Error(err))
	}
	stats.Cache = cache

	stats.LastRebuild = as.lastRebuild.Load()
	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
