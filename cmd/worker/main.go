package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/search"
)

// Builds a durable index directory from the configured region source so the
// API can start from a prebuilt index.
func main() {
	pflag.String("config", "config/text2location.yaml", "config file")
	pflag.String("out", "", "index directory (default index.path from config)")
	pflag.Bool("force", false, "replace an existing index directory")
	pflag.Bool("export-meili", false, "also export the addresses to Meilisearch")
	pflag.Parse()

	_ = godotenv.Load()
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatal(err)
	}

	if err := config.Load(viper.GetString("config")); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.C
	if out := viper.GetString("out"); out != "" {
		cfg.Index.Path = out
	}
	if cfg.Index.Path == "" {
		log.Fatal("no index directory: set --out or index.path")
	}

	logger, _ := zap.NewProduction()
	if os.Getenv("APP_ENV") != "production" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if _, err := os.Stat(cfg.Index.Path); err == nil {
		if !viper.GetBool("force") {
			logger.Fatal("Index directory exists, use --force to replace it", zap.String("path", cfg.Index.Path))
		}
		if err := os.RemoveAll(cfg.Index.Path); err != nil {
			logger.Fatal("Failed to remove old index", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokenizer, err := normalizer.NewGseTokenizer()
	if err != nil {
		logger.Fatal("Failed to load tokenizer dictionary", zap.Error(err))
	}

	logger.Info("Building index", zap.String("path", cfg.Index.Path), zap.String("source", cfg.Source.Type))
	index, err := services.OpenOrBuildIndex(ctx, cfg, tokenizer, logger)
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}
	count, _ := index.DocCount()
	if err := index.Close(); err != nil {
		logger.Fatal("Failed to close index", zap.Error(err))
	}
	logger.Info("Index written", zap.String("path", cfg.Index.Path), zap.Uint64("documents", count))

	if !viper.GetBool("export-meili") {
		return
	}

	src, err := regions.NewSource(ctx, cfg.Source)
	if err != nil {
		logger.Fatal("Failed to open region source", zap.Error(err))
	}
	defer src.Close()
	addrs, err := services.LoadAddresses(ctx, src, services.ResolveOptions(cfg), logger)
	if err != nil {
		logger.Fatal("Failed to load addresses", zap.Error(err))
	}

	exporter := search.NewMeiliExporter(search.MeiliConfig{
		Host:      cfg.Meili.Host,
		APIKey:    cfg.Meili.APIKey,
		IndexName: cfg.Meili.IndexName,
		BatchSize: cfg.Meili.BatchSize,
	}, logger)
	sent, err := exporter.Export(ctx, addrs)
	if err != nil {
		logger.Fatal("Meilisearch export failed", zap.Error(err))
	}
	logger.Info("Worker done", zap.Int("exported", sent))
}
