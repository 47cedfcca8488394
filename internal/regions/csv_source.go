package regions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/KonghaYao/text2location/app/models"
)

// CSVSource reads a header-driven CSV file. Column order is free.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Load(ctx context.Context) ([]models.Region, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open region csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

func (s *CSVSource) Close() error { return nil }

// ReadCSV parses region rows from r. The header must name every required column.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Region, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// tolerate a UTF-8 BOM on the first column
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}

	var out []models.Region
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := pos[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		region, err := parseRegion(get)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, region)
	}
	return out, nil
}

func parseRegion(get func(col string) string) (models.Region, error) {
	id, err := strconv.ParseUint(get("id"), 10, 64)
	if err != nil {
		return models.Region{}, fmt.Errorf("invalid id %q: %w", get("id"), err)
	}
	var pid uint64
	if v := get("pid"); v != "" {
		if pid, err = strconv.ParseUint(v, 10, 64); err != nil {
			return models.Region{}, fmt.Errorf("invalid pid %q: %w", v, err)
		}
	}
	deep, err := strconv.ParseUint(get("deep"), 10, 8)
	if err != nil {
		return models.Region{}, fmt.Errorf("invalid deep %q: %w", get("deep"), err)
	}
	return models.Region{
		ID:           id,
		PID:          pid,
		Deep:         uint8(deep),
		Name:         get("name"),
		PinyinPrefix: get("pinyin_prefix"),
		Pinyin:       get("pinyin"),
		ExtID:        get("ext_id"),
		ExtName:      get("ext_name"),
	}, nil
}
