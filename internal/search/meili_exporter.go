package search

import (
	"context"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/models"
)

// MeiliConfig target of an export.
type MeiliConfig struct {
	Host      string
	APIKey    string
	IndexName string
	BatchSize int
}

// MeiliDocument one resolved address as stored in Meilisearch.
type MeiliDocument struct {
	AddressCode string `json:"address_code"`
	Province    string `json:"province"`
	City        string `json:"city"`
	District    string `json:"district"`
	County      string `json:"county"`
	FullAddress string `json:"full_address"`
}

// MeiliExporter pushes resolved addresses to an external Meilisearch index.
type MeiliExporter struct {
	client meilisearch.ServiceManager
	config MeiliConfig
	logger *zap.Logger
}

func NewMeiliExporter(config MeiliConfig, logger *zap.Logger) *MeiliExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &MeiliExporter{
		client: meilisearch.New(config.Host, meilisearch.WithAPIKey(config.APIKey)),
		config: config,
		logger: logger,
	}
}

// MeiliDocuments drops addresses without a code; Meilisearch needs a primary key.
func MeiliDocuments(addrs []models.ResolvedAddress) []MeiliDocument {
	docs := make([]MeiliDocument, 0, len(addrs))
	for _, a := range addrs {
		if a.AddressCode == "" {
			continue
		}
		docs = append(docs, MeiliDocument{
			AddressCode: a.AddressCode,
			Province:    a.Province,
			City:        a.City,
			District:    a.District,
			County:      a.County,
			FullAddress: a.FullAddress(),
		})
	}
	return docs
}

// Export configures the index and adds every address in batches. It returns
// the number of documents sent.
func (me *MeiliExporter) Export(ctx context.Context, addrs []models.ResolvedAddress) (int, error) {
	if _, err := me.client.Health(); err != nil {
		return 0, fmt.Errorf("meilisearch health: %w", err)
	}

	index := me.client.Index(me.config.IndexName)
	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"county", "district", "city", "province", "full_address"},
		FilterableAttributes: []string{"province", "city", "address_code"},
		SortableAttributes:   []string{"address_code"},
	})
	if err != nil {
		return 0, fmt.Errorf("update meilisearch settings: %w", err)
	}
	if err := me.waitForTask(ctx, task.TaskUID); err != nil {
		return 0, err
	}

	docs := MeiliDocuments(addrs)
	sent := 0
	for start := 0; start < len(docs); start += me.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		end := start + me.config.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		task, err := index.AddDocuments(docs[start:end], "address_code")
		if err != nil {
			return sent, fmt.Errorf("add documents %d-%d: %w", start, end, err)
		}
		sent += end - start
		me.logger.Info("Exported batch to meilisearch",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	me.logger.Info("Meilisearch export finished",
		zap.String("index", me.config.IndexName),
		zap.Int("documents", sent))
	return sent, nil
}

func (me *MeiliExporter) waitForTask(ctx context.Context, uid int64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		info, err := me.client.GetTask(uid)
		if err != nil {
			return fmt.Errorf("check meilisearch task %d: %w", uid, err)
		}
		switch info.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("meilisearch task %d %s: %v", uid, info.Status, info.Error)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Count estimated number of documents in the target index.
func (me *MeiliExporter) Count() (int64, error) {
	res, err := me.client.Index(me.config.IndexName).Search("", &meilisearch.SearchRequest{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count meilisearch documents: %w", err)
	}
	return res.EstimatedTotalHits, nil
}
