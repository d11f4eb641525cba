// ABOUTME: Centralized configuration for the stash CLI, MCP server, and HTTP API
// ABOUTME: Layers defaults, an optional stash.yaml, .env, and environment variables via viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// PostgresDimension is the width of the items.embedding vector column in the postgres migrations
const PostgresDimension = 1536

// Config holds all configuration for stash
type Config struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

// OpenAIConfig configures the AI provider. An empty APIKey disables it.
type OpenAIConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	EmbeddingModel      string        `mapstructure:"embedding_model"`
	ClassificationModel string        `mapstructure:"classification_model"`
	VisionModel         string        `mapstructure:"vision_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
}

type EmbeddingConfig struct {
	Dimension int `mapstructure:"dimension"`
}

// DatabaseConfig selects the storage engine
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig enables the embedding cache when URL is set
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings maps keys to conventional variable names that do not follow the STASH_ prefix
var envBindings = map[string][]string{
	"openai.api_key":              {"OPENAI_API_KEY", "STASH_OPENAI_API_KEY"},
	"openai.base_url":             {"OPENAI_BASE_URL", "STASH_OPENAI_BASE_URL"},
	"openai.embedding_model":      {"STASH_EMBEDDING_MODEL", "STASH_OPENAI_EMBEDDING_MODEL"},
	"openai.classification_model": {"STASH_CLASSIFICATION_MODEL", "STASH_OPENAI_CLASSIFICATION_MODEL"},
	"openai.vision_model":         {"STASH_VISION_MODEL", "STASH_OPENAI_VISION_MODEL"},
	"database.url":                {"DATABASE_URL", "STASH_DATABASE_URL"},
	"redis.url":                   {"REDIS_URL", "STASH_REDIS_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.classification_model", "gpt-4.1-nano")
	v.SetDefault("openai.vision_model", "gpt-4.1-mini")
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("openai.max_retries", 0)
	v.SetDefault("openai.retry_delay", 2*time.Second)

	v.SetDefault("embedding.dimension", 1536)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_bytes", 5<<20)

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 720*time.Hour)

	v.SetDefault("log.level", "info")
}

// Load builds the configuration. path names an explicit config file; when empty,
// stash.yaml is looked up in the XDG config dir and the working directory and
// may be absent.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stash")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	return &cfg, cfg.Validate()
}

// Validate rejects configurations the application cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
		if c.Embedding.Dimension != PostgresDimension {
			return fmt.Errorf("embedding.dimension must be %d with the postgres driver, got %d", PostgresDimension, c.Embedding.Dimension)
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.OpenAI.MaxRetries < 0 || c.OpenAI.MaxRetries > 10 {
		return fmt.Errorf("openai.max_retries must be 0-10, got %d", c.OpenAI.MaxRetries)
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("openai.timeout must be positive, got %v", c.OpenAI.Timeout)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch.max_bytes must be positive, got %d", c.Fetch.MaxBytes)
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive when redis.url is set, got %v", c.Redis.TTL)
	}
	return nil
}

// AIEnabled reports whether a provider credential is configured
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/stash
func DefaultConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "stash")
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "stash")
}
