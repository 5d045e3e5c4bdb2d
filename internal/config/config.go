package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton so infrastructure helpers can reach configuration
// without threading it through every constructor.
var globalConfig *Config

// LockStoreConfig is the optional keyed lock backend. When URL is empty the
// agent runtime falls back to an in-process lock store.
type LockStoreConfig struct {
	URL      string `env:"LOCK_STORE_URL"`
	Username string `env:"LOCK_STORE_USERNAME"`
	Password string `env:"LOCK_STORE_PASSWORD"`
	Port     int    `env:"LOCK_STORE_PORT" envDefault:"6379"`
	DB       int    `env:"LOCK_STORE_DB" envDefault:"0"`
}

// Enabled reports whether an external lock store was configured.
func (c LockStoreConfig) Enabled() bool {
	return c.URL != ""
}

// Addr returns the host:port address for the lock backend.
func (c LockStoreConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.URL, c.Port)
}

// Config holds all environment backed configuration for the platform core.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// PostgreSQL
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Training
	TrainingDailyLimit int           `env:"TRAINING_DAILY_LIMIT" envDefault:"5"`
	TrainingRunTTL     time.Duration `env:"TRAINING_RUN_TTL" envDefault:"24h"`
	ModelDir           string        `env:"MODEL_DIR" envDefault:"models"`
	TemplateDir        string        `env:"TEMPLATE_DIR" envDefault:"template/use-cases"`
	TrainerURL         string        `env:"TRAINER_URL"`

	// Agent cache
	AgentCacheCapacity int `env:"AGENT_CACHE_CAPACITY" envDefault:"100"`

	// Vector store
	VectorStoreURL     string        `env:"VECTOR_STORE_URL" envDefault:"http://localhost:6333"`
	VectorStoreTimeout time.Duration `env:"VECTOR_STORE_TIMEOUT" envDefault:"30s"`

	// LLM / embeddings
	LLMProvider        string `env:"LLM_PROVIDER" envDefault:"openai"`
	ChatModel          string `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimension int    `env:"EMBEDDING_DIMENSION" envDefault:"1536"`
	EmbeddingCtxLimit  int    `env:"EMBEDDING_CTX_LIMIT" envDefault:"8191"`

	// Secrets
	EncryptionSecret string `env:"ENCRYPTION_SECRET,notEmpty"`

	// Lock store (optional)
	LockStore LockStoreConfig

	// Observability / Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Load parses environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := env.Parse(&cfg.LockStore); err != nil {
		return nil, fmt.Errorf("failed to parse lock store environment: %w", err)
	}
	if cfg.TrainingDailyLimit <= 0 {
		return nil, fmt.Errorf("TRAINING_DAILY_LIMIT must be positive, got %d", cfg.TrainingDailyLimit)
	}
	if cfg.AgentCacheCapacity <= 0 {
		return nil, fmt.Errorf("AGENT_CACHE_CAPACITY must be positive, got %d", cfg.AgentCacheCapacity)
	}
	globalConfig = cfg
	return cfg, nil
}

// GetGlobal returns the last loaded configuration.
func GetGlobal() *Config {
	return globalConfig
}

// SetGlobal overrides the global configuration, primarily for tests.
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}
