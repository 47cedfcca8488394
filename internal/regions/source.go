// Package regions loads the flat administrative region table from CSV, SQL or MongoDB.
package regions

import (
	"context"
	"fmt"
	"strings"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/models"
)

// Source produces every region record of one dataset.
type Source interface {
	Load(ctx context.Context) ([]models.Region, error)
	Close() error
}

// Columns known region columns, in canonical order.
var Columns = []string{"id", "pid", "deep", "name", "pinyin_prefix", "pinyin", "ext_id", "ext_name"}

var requiredColumns = []string{"id", "pid", "deep", "ext_id", "ext_name"}

// DuplicateIDError two records share an id.
type DuplicateIDError struct {
	ID uint64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate region id %d", e.ID)
}

// BuildRegionMap indexes regions by id. Ids must be unique.
func BuildRegionMap(regions []models.Region) (models.RegionMap, error) {
	m := make(models.RegionMap, len(regions))
	for _, r := range regions {
		if _, ok := m[r.ID]; ok {
			return nil, &DuplicateIDError{ID: r.ID}
		}
		m[r.ID] = r
	}
	return m, nil
}

// NewSource opens the configured source.
func NewSource(ctx context.Context, cfg config.SourceCfg) (Source, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "csv":
		return &CSVSource{Path: cfg.Path}, nil
	case "sqlite", "postgres":
		db, err := OpenSQL(strings.ToLower(cfg.Type), cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &SQLSource{DB: db, Table: cfg.Table, Driver: strings.ToLower(cfg.Type)}, nil
	case "mongo", "mongodb":
		return NewMongoSource(ctx, cfg.DSN, cfg.Database, cfg.Collection)
	}
	return nil, fmt.Errorf("unknown region source type %q", cfg.Type)
}
