package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/search"
)

// Seeds the resolved addresses into a Meilisearch index.
//
//	go run ./cmd/seed_meilisearch.go [config/text2location.yaml]
func main() {
	_ = godotenv.Load()

	path := "config/text2location.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := config.Load(path); err != nil && !os.IsNotExist(err) {
		log.Fatal("load config:", err)
	}
	cfg := config.C
	if cfg.Meili.APIKey == "" {
		log.Fatal("meili.api_key or MEILI_API_KEY is required")
	}

	ctx := context.Background()
	src, err := regions.NewSource(ctx, cfg.Source)
	if err != nil {
		log.Fatal("open region source:", err)
	}
	defer src.Close()

	fmt.Printf("Loading regions from %s source...\n", cfg.Source.Type)
	addrs, err := services.LoadAddresses(ctx, src, services.ResolveOptions(cfg), nil)
	if err != nil {
		log.Fatal("load addresses:", err)
	}

	exporter := search.NewMeiliExporter(search.MeiliConfig{
		Host:      cfg.Meili.Host,
		APIKey:    cfg.Meili.APIKey,
		IndexName: cfg.Meili.IndexName,
		BatchSize: cfg.Meili.BatchSize,
	}, nil)

	fmt.Printf("Seeding %d addresses into %s/%s...\n", len(addrs), cfg.Meili.Host, cfg.Meili.IndexName)
	sent, err := exporter.Export(ctx, addrs)
	if err != nil {
		log.Fatal("export:", err)
	}
	fmt.Printf("Done, sent %d documents\n", sent)

	// additions are processed asynchronously
	time.Sleep(2 * time.Second)
	count, err := exporter.Count()
	if err != nil {
		log.Printf("count: %v", err)
		return
	}
	fmt.Printf("Documents in Meilisearch: %d\n", count)
}
