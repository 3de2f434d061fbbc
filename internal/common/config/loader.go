// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, overlays config.<env>.yaml when present,
// and lets environment variables override any key (DATABASE_REDIS_ADDRESS,
// EMBEDDING_ENDPOINT, ...).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "context-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Database.Elasticsearch.IndexPrefix == "" {
		cfg.Database.Elasticsearch.IndexPrefix = "evidence"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Embedding.Endpoint == "" {
		cfg.Embedding.Endpoint = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.TimeoutMS == 0 {
		cfg.Embedding.TimeoutMS = 5000
	}
	if cfg.Embedding.MaxInFlight == 0 {
		cfg.Embedding.MaxInFlight = 4
	}

	// TTL classes: embedding long, context medium, retrieval short.
	if cfg.Cache.EmbeddingTTLSeconds == 0 {
		cfg.Cache.EmbeddingTTLSeconds = 86400
	}
	if cfg.Cache.ContextTTLSeconds == 0 {
		cfg.Cache.ContextTTLSeconds = 900
	}
	if cfg.Cache.RetrievalTTLSeconds == 0 {
		cfg.Cache.RetrievalTTLSeconds = 300
	}
	if cfg.Cache.MaxLocalEntries == 0 {
		cfg.Cache.MaxLocalEntries = 10000
	}
	if cfg.Cache.SweepIntervalSec == 0 {
		cfg.Cache.SweepIntervalSec = 300
	}

	if cfg.Assembler.MaxItems == 0 {
		cfg.Assembler.MaxItems = 15
	}
	if cfg.Assembler.HardMaxItems == 0 {
		cfg.Assembler.HardMaxItems = 50
	}
	if cfg.Assembler.SourceTimeoutMS == 0 {
		cfg.Assembler.SourceTimeoutMS = 3000
	}
	if len(cfg.Assembler.ContextTypes) == 0 {
		cfg.Assembler.ContextTypes = []string{"receipt", "warranty", "conversation"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 2112
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Assembler.MaxItems > cfg.Assembler.HardMaxItems {
		return fmt.Errorf("assembler.max_items %d exceeds hard ceiling %d",
			cfg.Assembler.MaxItems, cfg.Assembler.HardMaxItems)
	}
	if cfg.Cache.RetrievalTTLSeconds > cfg.Cache.EmbeddingTTLSeconds {
		return fmt.Errorf("cache.retrieval_ttl_seconds must not exceed cache.embedding_ttl_seconds")
	}
	if cfg.Embedding.Endpoint == "" {
		return fmt.Errorf("embedding.endpoint is required")
	}
	return nil
}
