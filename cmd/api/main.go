package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/KonghaYao/text2location/app/config"
	"github.com/KonghaYao/text2location/app/controllers"
	"github.com/KonghaYao/text2location/app/services"
	"github.com/KonghaYao/text2location/internal/normalizer"
	"github.com/KonghaYao/text2location/internal/regions"
	"github.com/KonghaYao/text2location/internal/search"
	"github.com/KonghaYao/text2location/routes"
)

func main() {
	// 1. Load configuration
	loadConfig()
	if err := config.Load(viper.GetString("config.path")); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load config: %v", err)
	}

	// 2. Logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting text2location service",
		zap.String("source", config.C.Source.Type),
		zap.String("strategy", config.C.Index.Strategy))

	// 3. Index
	tokenizer, err := normalizer.NewGseTokenizer()
	if err != nil {
		logger.Fatal("Failed to load tokenizer dictionary", zap.Error(err))
	}

	ctx := context.Background()
	index, err := services.OpenOrBuildIndex(ctx, config.C, tokenizer, logger)
	if err != nil {
		logger.Fatal("Failed to build index", zap.Error(err))
	}

	// 4. Cache: LRU, plus Redis when configured
	cacheService := initCache(logger)
	defer cacheService.Close()

	// 5. Services
	addressService := services.NewAddressService(index, cacheService, config.C.Search.DefaultLimit, logger)
	defer func() {
		if err := addressService.Index().Close(); err != nil {
			logger.Error("Failed to close index", zap.Error(err))
		}
	}()

	indexOpts, _, err := services.IndexOptions(config.C, tokenizer, logger)
	if err != nil {
		logger.Fatal("Invalid index options", zap.Error(err))
	}
	adminOpts := services.AdminOptions{
		OpenSource: func(ctx context.Context) (regions.Source, error) {
			return regions.NewSource(ctx, config.C.Source)
		},
		Resolve:   services.ResolveOptions(config.C),
		BatchSize: config.C.Index.BatchSize,
		Index:     indexOpts,
	}
	if config.C.Meili.Host != "" && config.C.Meili.APIKey != "" {
		adminOpts.Exporter = search.NewMeiliExporter(search.MeiliConfig{
			Host:      config.C.Meili.Host,
			APIKey:    config.C.Meili.APIKey,
			IndexName: config.C.Meili.IndexName,
			BatchSize: config.C.Meili.BatchSize,
		}, logger)
	}
	adminService := services.NewAdminService(addressService, adminOpts, logger)

	// 6. Controllers and routes
	addressController := controllers.NewAddressController(addressService, logger)
	adminController := controllers.NewAdminController(adminService, addressService, logger)

	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, addressController, adminController)

	// 7. Serve
	srv := &http.Server{
		Addr:    ":" + viper.GetString("app.port"),
		Handler: router,
	}
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func loadConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: cannot read .env: %v", err)
	}

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("cache.l1_size", 0) // 0 = search.cache_size from the config file
	viper.SetDefault("cache.ttl", 0)     // 0 = search.cache_ttl_seconds
	viper.SetDefault("config.path", "config/text2location.yaml")

	// APP_PORT, REDIS_URL, CACHE_L1_SIZE ...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func initLogger() *zap.Logger {
	var cfg zap.Config
	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

func initCache(logger *zap.Logger) services.ICacheService {
	ttl := viper.GetDuration("cache.ttl")
	if ttl <= 0 {
		ttl = config.CacheTTL()
	}
	size := viper.GetInt("cache.l1_size")
	if size <= 0 {
		size = config.C.Search.CacheSize
	}
	local := services.NewCacheService(size, ttl)

	redisURL := viper.GetString("redis.url")
	if redisURL == "" {
		return local
	}
	shared, err := services.NewRedisCacheService(redisURL, ttl, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache only", zap.Error(err))
		return local
	}
	logger.Info("Using hybrid cache", zap.String("redis", redisURL))
	return services.NewHybridCacheService(local, shared, logger)
}
