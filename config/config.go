package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Catalog   CatalogConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig holds the chat provider configuration
type LLMConfig struct {
	Provider      string  `mapstructure:"provider"` // "openai" or "gemini"
	APIKey        string  `mapstructure:"api_key"`
	BaseURL       string  `mapstructure:"base_url"`
	Model         string  `mapstructure:"model"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	SchemaVersion string  `mapstructure:"schema_version"`
}

// CatalogConfig holds the product catalog location
type CatalogConfig struct {
	Path string `mapstructure:"path"` // empty means the embedded catalog
}

// StoreConfig holds session result storage configuration
type StoreConfig struct {
	Type        string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL    string        `mapstructure:"redis_url"`
	TTL         time.Duration `mapstructure:"ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	LLM   int `mapstructure:"llm"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/productadvisor/")

	// ADVISOR_LLM_API_KEY -> llm.api_key
	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory without overriding variables already set
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8081"})

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.schema_version", "product_id")

	v.SetDefault("catalog.path", "")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.ttl", "24h")
	v.SetDefault("store.max_sessions", 10000)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.llm", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm provider must be 'openai' or 'gemini', got: %s", config.LLM.Provider)
	}

	if config.LLM.APIKey == "" && config.LLM.BaseURL == "" {
		return fmt.Errorf("LLM API key is required unless a proxy base_url is set (set ADVISOR_LLM_API_KEY)")
	}

	if config.LLM.Temperature <= 0 || config.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be in (0, 2], got: %v", config.LLM.Temperature)
	}

	if config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got: %d", config.LLM.MaxTokens)
	}

	if config.LLM.SchemaVersion != "product_id" && config.LLM.SchemaVersion != "name_brand" {
		return fmt.Errorf("schema version must be 'product_id' or 'name_brand', got: %s", config.LLM.SchemaVersion)
	}

	if config.Store.Type != "memory" && config.Store.Type != "redis" {
		return fmt.Errorf("store type must be 'memory' or 'redis', got: %s", config.Store.Type)
	}

	if config.Store.Type == "redis" && config.Store.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when store type is 'redis'")
	}

	return nil
}

// MaskedAPIKey returns the first 4 characters of the API key for logging
func (c *Config) MaskedAPIKey() string {
	key := c.LLM.APIKey
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "****"
}
