package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	Chunking  ChunkingConfig   `json:"chunking"`
	Search    SearchConfig     `json:"search"`
	AI        AIConfig         `json:"ai"`
	Cache     CacheConfig      `json:"cache"`
	CORSHosts []string         `json:"cors_hosts"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type ChunkingConfig struct {
	TurnPairs int `json:"turn_pairs"`
	// Pointer so an explicit 0 (no overlap) is distinct from unset.
	OverlapPairs *int `json:"overlap_pairs"`
	MaxChars     int  `json:"max_chars"`
}

type SearchConfig struct {
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
	DefaultLimit   int     `json:"default_limit"`
}

type AIConfig struct {
	EmbedProvider string      `json:"embed_provider"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
}

type CacheConfig struct {
	LRUSize        int    `json:"lru_size"`
	LRUTTLMinutes  int    `json:"lru_ttl_minutes"`
	DBMaxAgeDays   int    `json:"db_max_age_days"`
	CleanupCronTab string `json:"cleanup_crontab"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8321
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Chunking.TurnPairs == 0 {
		cfg.Chunking.TurnPairs = 4
	}
	if cfg.Chunking.OverlapPairs == nil {
		overlap := 0
		if cfg.Chunking.TurnPairs > 1 {
			overlap = 1
		}
		cfg.Chunking.OverlapPairs = &overlap
	}
	if cfg.Chunking.MaxChars == 0 {
		cfg.Chunking.MaxChars = 2000
	}
	if *cfg.Chunking.OverlapPairs < 0 || *cfg.Chunking.OverlapPairs >= cfg.Chunking.TurnPairs {
		return nil, fmt.Errorf("chunking.overlap_pairs must satisfy 0 <= overlap < turn_pairs")
	}
	if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.SemanticWeight = 0.7
		cfg.Search.KeywordWeight = 0.3
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.AI.EmbedProvider == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 10000
	}
	if cfg.Cache.LRUTTLMinutes == 0 {
		cfg.Cache.LRUTTLMinutes = 120
	}
	if cfg.Cache.DBMaxAgeDays == 0 {
		cfg.Cache.DBMaxAgeDays = 30
	}
	if cfg.Cache.CleanupCronTab == "" {
		cfg.Cache.CleanupCronTab = "0 4 * * *"
	}
	return &cfg, nil
}
