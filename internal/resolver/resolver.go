// Package resolver assembles four-level addresses by walking region parent links.
package resolver

import (
	"context"
	"fmt"

	"github.com/KonghaYao/text2location/app/models"
	"github.com/KonghaYao/text2location/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnomalyKind classifies a data-integrity problem found while walking a chain.
type AnomalyKind string

const (
	AnomalyCycle       AnomalyKind = "cycle"
	AnomalyBrokenChain AnomalyKind = "broken_chain"
)

// ResolutionAnomaly is non-fatal: the region still resolves with whatever was filled.
type ResolutionAnomaly struct {
	RegionID  uint64
	MissingID uint64 // parent id that was not found, broken_chain only
	Kind      AnomalyKind
	Hops      int
}

func (a *ResolutionAnomaly) Error() string {
	if a.Kind == AnomalyBrokenChain {
		return fmt.Sprintf("region %d: parent %d not found after %d hops", a.RegionID, a.MissingID, a.Hops)
	}
	return fmt.Sprintf("region %d: parent chain exceeds %d hops", a.RegionID, a.Hops)
}

// Options for bulk resolution.
type Options struct {
	Workers   int
	ChunkSize int
}

// HierarchyResolver resolves regions against a fixed RegionMap.
type HierarchyResolver struct {
	regions models.RegionMap
	opts    Options
	logger  *zap.Logger
}

// NewHierarchyResolver creates a resolver. The map must not be mutated afterwards.
func NewHierarchyResolver(regions models.RegionMap, opts Options, logger *zap.Logger) *HierarchyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1024
	}
	return &HierarchyResolver{regions: regions, opts: opts, logger: logger}
}

// Resolve walks from leaf to the root. The walk is bounded by the region count,
// so a cyclic chain terminates with AnomalyCycle.
func (hr *HierarchyResolver) Resolve(leaf models.Region) (models.ResolvedAddress, *ResolutionAnomaly) {
	out := models.ResolvedAddress{AddressCode: leaf.ExtID}

	// every region on an acyclic chain is visited at most once
	limit := len(hr.regions)
	if _, ok := hr.regions[leaf.ID]; !ok {
		limit++
	}

	current := leaf
	for hops := 0; ; hops++ {
		if hops >= limit {
			return out, &ResolutionAnomaly{RegionID: leaf.ID, Kind: AnomalyCycle, Hops: hops}
		}

		assign(&out, current)

		if current.PID == 0 {
			return out, nil
		}
		parent, ok := hr.regions[current.PID]
		if !ok {
			return out, &ResolutionAnomaly{RegionID: leaf.ID, MissingID: current.PID, Kind: AnomalyBrokenChain, Hops: hops + 1}
		}
		current = parent
	}
}

// assign fills the slot for r.Deep. Deeper subdivisions are ignored.
func assign(out *models.ResolvedAddress, r models.Region) {
	switch r.Deep {
	case models.LevelProvince:
		out.Province = r.ExtName
	case models.LevelCity:
		out.City = r.ExtName
	case models.LevelDistrict:
		out.District = r.ExtName
	case models.LevelCounty:
		out.County = r.ExtName
	}
}

// ResolveAll resolves every region in input order on a bounded worker pool.
// Anomalies are logged, counted and returned; they never abort the run.
func (hr *HierarchyResolver) ResolveAll(ctx context.Context, regions []models.Region) ([]models.ResolvedAddress, []*ResolutionAnomaly, error) {
	out := make([]models.ResolvedAddress, len(regions))
	found := make([][]*ResolutionAnomaly, (len(regions)+hr.opts.ChunkSize-1)/hr.opts.ChunkSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hr.opts.Workers)

	for chunk, start := 0, 0; start < len(regions); chunk, start = chunk+1, start+hr.opts.ChunkSize {
		chunk, start := chunk, start
		end := start + hr.opts.ChunkSize
		if end > len(regions) {
			end = len(regions)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				addr, anomaly := hr.Resolve(regions[i])
				out[i] = addr
				if anomaly != nil {
					found[chunk] = append(found[chunk], anomaly)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("resolve regions: %w", err)
	}

	var anomalies []*ResolutionAnomaly
	for _, list := range found {
		for _, a := range list {
			hr.logger.Warn("Region resolution anomaly",
				zap.Uint64("region_id", a.RegionID),
				zap.String("kind", string(a.Kind)),
				zap.Int("hops", a.Hops))
			metrics.ResolutionAnomaliesTotal.WithLabelValues(string(a.Kind)).Inc()
			anomalies = append(anomalies, a)
		}
	}

	hr.logger.Info("Resolved regions",
		zap.Int("regions", len(regions)),
		zap.Int("anomalies", len(anomalies)))
	return out, anomalies, nil
}
