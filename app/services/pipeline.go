package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/resolver"
	"github.com/KonghaYao/text2location/internal/search"
)

// LoadAddresses loads the region table and resolves every region into an
// address. Regions without an external code cannot be indexed and are skipped.
func LoadAddresses(ctx context.Context, src regions.Source, opts resolver.Options, logger *zap.Logger) ([]models.ResolvedAddress, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	list, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	regionMap, err := regions.BuildRegionMap(list)
	if err != nil {
		return nil, err
	}

	addrs, _, err := resolver.NewHierarchyResolver(regionMap, opts, logger).ResolveAll(ctx, list)
	if err != nil {
		return nil, err
	}

	kept := addrs[:0]
	skipped := 0
	for _, a := range addrs {
		if strings.TrimSpace(a.AddressCode) == "" {
			skipped++
			continue
		}
		kept = append(kept, a)
	}
	if skipped > 0 {
		logger.Warn("Skipped regions without address code", zap.Int("count", skipped))
	}
	return kept, nil
}

// IndexAddresses adds addrs in batches of batchSize, then publishes them.
func IndexAddresses(si *search.SearchIndex, addrs []models.ResolvedAddress, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(addrs)
	}
	for start := 0; start < len(addrs); start += batchSize {
		end := start + batchSize
		if end > len(addrs) {
			end = len(addrs)
		}
		if err := si.Add(addrs[start:end]); err != nil {
			return fmt.Errorf("index addresses %d-%d: %w", start, end, err)
		}
	}
	return si.CommitAndReload()
}

// IndexOptions search options and weights from cfg.
func IndexOptions(cfg config.Config, tokenizer normalizer.Tokenizer, logger *zap.Logger) (search.Options, search.FieldWeights, error) {
	strategy, err := search.ParseStrategy(cfg.Index.Strategy)
	if err != nil {
		return search.Options{}, search.FieldWeights{}, err
	}
	similarity := search.Similarity{JWWeight: cfg.Similarity.JWWeight, LevWeight: cfg.Similarity.LevWeight}
	opts := search.Options{
		Path:       cfg.Index.Path,
		Strategy:   strategy,
		Tokenizer:  tokenizer,
		Similarity: &similarity,
		Logger:     logger,
	}
	return opts, search.WeightsFromConfig(cfg.Index.Weights), nil
}

// ResolveOptions resolver options from cfg.
func ResolveOptions(cfg config.Config) resolver.Options {
	return resolver.Options{Workers: cfg.Resolve.Workers, ChunkSize: cfg.Resolve.ChunkSize}
}

// OpenOrBuildIndex opens the index described by cfg. An in-memory, new or
// empty durable index is filled from the configured region source and published.
func OpenOrBuildIndex(ctx context.Context, cfg config.Config, tokenizer normalizer.Tokenizer, logger *zap.Logger) (*search.SearchIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, weights, err := IndexOptions(cfg, tokenizer, logger)
	if err != nil {
		return nil, err
	}
	si, err := search.NewWithWeights(weights, opts)
	if err != nil {
		return nil, err
	}
	if si.Queryable() {
		return si, nil
	}

	src, err := regions.NewSource(ctx, cfg.Source)
	if err != nil {
		_ = si.Close()
		return nil, fmt.Errorf("open region source: %w", err)
	}
	defer src.Close()

	addrs, err := LoadAddresses(ctx, src, ResolveOptions(cfg), logger)
	if err != nil {
		_ = si.Close()
		return nil, err
	}
	if err := IndexAddresses(si, addrs, cfg.Index.BatchSize); err != nil {
		_ = si.Close()
		return nil, err
	}
	logger.Info("Index built",
		zap.String("source", cfg.Source.Type),
		zap.Int("documents", len(addrs)),
		zap.String("strategy", string(si.Strategy())))
	return si, nil
}
