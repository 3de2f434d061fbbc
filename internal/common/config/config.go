// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Assembler AssemblerConfig `mapstructure:"assembler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Component Configuration ---

// EmbeddingConfig holds settings for the embedding provider gateway.
type EmbeddingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Model       string `mapstructure:"model"`
	TimeoutMS   int    `mapstructure:"timeout_ms"`
	MaxInFlight int    `mapstructure:"max_in_flight"` // bound for batch embedding
}

func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// CacheConfig holds TTL classes and local-fallback limits.
type CacheConfig struct {
	EmbeddingTTLSeconds int `mapstructure:"embedding_ttl_seconds"` // long
	ContextTTLSeconds   int `mapstructure:"context_ttl_seconds"`   // medium
	RetrievalTTLSeconds int `mapstructure:"retrieval_ttl_seconds"` // short
	MaxLocalEntries     int `mapstructure:"max_local_entries"`
	SweepIntervalSec    int `mapstructure:"sweep_interval_seconds"`
}

func (c CacheConfig) EmbeddingTTL() time.Duration {
	return time.Duration(c.EmbeddingTTLSeconds) * time.Second
}

func (c CacheConfig) ContextTTL() time.Duration {
	return time.Duration(c.ContextTTLSeconds) * time.Second
}

func (c CacheConfig) RetrievalTTL() time.Duration {
	return time.Duration(c.RetrievalTTLSeconds) * time.Second
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// AssemblerConfig holds orchestration defaults.
type AssemblerConfig struct {
	MaxItems        int      `mapstructure:"max_items"`
	HardMaxItems    int      `mapstructure:"hard_max_items"`
	SourceTimeoutMS int      `mapstructure:"source_timeout_ms"`
	ContextTypes    []string `mapstructure:"context_types"`
}

func (a AssemblerConfig) SourceTimeout() time.Duration {
	return time.Duration(a.SourceTimeoutMS) * time.Millisecond
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Port int `mapstructure:"port"`
}
