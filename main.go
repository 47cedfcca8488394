package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/normalizer"
)

func main() {
	pflag.String("config", "config/text2location.yaml", "config file")
	pflag.String("query", "兴宁市", "address text to look up")
	pflag.Int("limit", 10, "max results")
	pflag.String("source", "", "region source type (csv, sqlite, postgres, mongo)")
	pflag.String("path", "", "region CSV path")
	pflag.String("strategy", "", "ranking strategy (per_field, merged)")
	pflag.Bool("debug", false, "development logging")
	pflag.Parse()

	viper.SetEnvPrefix("T2L")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if viper.GetBool("debug") {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := config.Parse(viper.GetString("config"))
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("load config: %v", err)
	}
	if v := viper.GetString("source"); v != "" {
		cfg.Source.Type = v
	}
	if v := viper.GetString("path"); v != "" {
		cfg.Source.Path = v
	}
	if v := viper.GetString("strategy"); v != "" {
		cfg.Index.Strategy = v
	}
	// a lookup never writes a durable index
	cfg.Index.Path = ""

	tokenizer, err := normalizer.NewGseTokenizer()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	index, err := services.OpenOrBuildIndex(ctx, cfg, tokenizer, logger)
	if err != nil {
		log.Fatalf("build index: %v", err)
	}
	defer index.Close()

	query := viper.GetString("query")
	results, err := index.Search(ctx, query, viper.GetInt("limit"))
	if err != nil {
		log.Fatalf("search %q: %v", query, err)
	}
	for _, r := range results {
		fmt.Println(r.String())
	}

	fmt.Println("first:")
	first, err := index.SearchFirst(ctx, query)
	if err != nil {
		log.Fatal(err)
	}
	if first == nil {
		fmt.Println("no match")
		return
	}
	fmt.Println(first.String())
}
