package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Weights struct {
	Province float64 `yaml:"province" json:"province"`
	City     float64 `yaml:"city" json:"city"`
	District float64 `yaml:"district" json:"district"`
	County   float64 `yaml:"county" json:"county"`
}

type IndexCfg struct {
	Path      string  `yaml:"path" json:"path"`           // empty = in-memory
	Strategy  string  `yaml:"strategy" json:"strategy"`   // per_field | merged
	BatchSize int     `yaml:"batch_size" json:"batch_size"`
	Weights   Weights `yaml:"weights" json:"weights"`
}

type SearchCfg struct {
	DefaultLimit    int `yaml:"default_limit" json:"default_limit"`
	CacheSize       int `yaml:"cache_size" json:"cache_size"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

type SimilarityCfg struct {
	JWWeight  float64 `yaml:"jw_weight" json:"jw_weight"`
	LevWeight float64 `yaml:"lev_weight" json:"lev_weight"`
}

type SourceCfg struct {
	Type       string `yaml:"type" json:"type"` // csv | sqlite | postgres | mongo
	Path       string `yaml:"path" json:"path"`
	DSN        string `yaml:"dsn" json:"dsn"`
	Table      string `yaml:"table" json:"table"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
}

type ResolveCfg struct {
	Workers   int `yaml:"workers" json:"workers"`
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
}

type MeiliCfg struct {
	Host      string `yaml:"host" json:"host"`
	APIKey    string `yaml:"api_key" json:"-"`
	IndexName string `yaml:"index_name" json:"index_name"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

type Config struct {
	Index      IndexCfg      `yaml:"index" json:"index"`
	Search     SearchCfg     `yaml:"search" json:"search"`
	Similarity SimilarityCfg `yaml:"similarity" json:"similarity"`
	Source     SourceCfg     `yaml:"source" json:"source"`
	Resolve    ResolveCfg    `yaml:"resolve" json:"resolve"`
	Meili      MeiliCfg      `yaml:"meili" json:"meili"`
}

var C = Default()

// Default built-in configuration.
func Default() Config {
	return Config{
		Index: IndexCfg{
			Strategy:  "per_field",
			BatchSize: 5000,
			Weights:   Weights{Province: 1, City: 2, District: 4, County: 8},
		},
		Search: SearchCfg{
			DefaultLimit:    10,
			CacheSize:       10000,
			CacheTTLSeconds: 600,
		},
		Similarity: SimilarityCfg{JWWeight: 0.6, LevWeight: 0.4},
		Source: SourceCfg{
			Type:       "csv",
			Path:       "data/areas.csv",
			Table:      "regions",
			Database:   "text2location",
			Collection: "regions",
		},
		Resolve: ResolveCfg{Workers: 4, ChunkSize: 2048},
		Meili: MeiliCfg{
			Host:      "http://localhost:7700",
			IndexName: "addresses",
			BatchSize: 1000,
		},
	}
}

// Load reads a YAML file over the defaults into C, then applies env overrides.
func Load(path string) error {
	cfg, err := Parse(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	C = cfg
	return err
}

// Parse reads a YAML file over the defaults without touching C. A missing
// file still yields the defaults with ENV overrides, alongside the error.
func Parse(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		applyEnv(&cfg)
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// ENV overrides
func applyEnv(cfg *Config) {
	if v := os.Getenv("INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	switch os.Getenv("INDEX_STRATEGY") {
	case "per_field":
		cfg.Index.Strategy = "per_field"
	case "merged":
		cfg.Index.Strategy = "merged"
	}
	if v := os.Getenv("REGION_SOURCE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("REGION_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("REGION_DSN"); v != "" {
		cfg.Source.DSN = v
	}
	if v := os.Getenv("MEILI_API_KEY"); v != "" {
		cfg.Meili.APIKey = v
	}
	if v, err := strconv.Atoi(os.Getenv("RESOLVE_WORKERS")); err == nil && v > 0 {
		cfg.Resolve.Workers = v
	}
}

func CacheTTL() time.Duration { return time.Duration(C.Search.CacheTTLSeconds) * time.Second }

func RequestTimeout() time.Duration { return 1500 * time.Millisecond }
