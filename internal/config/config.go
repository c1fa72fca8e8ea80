package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NLU      NLUConfig      `mapstructure:"nlu"`
	Features FeaturesConfig `mapstructure:"features"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds the context cache configuration. When disabled the
// gateway falls back to an in-process cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NLUConfig holds the NLU backend configuration
type NLUConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// ReprobeInterval re-checks backend health after a degraded init.
	// Zero means probe once at startup and never again.
	ReprobeInterval time.Duration `mapstructure:"reprobe_interval"`
}

// FeaturesConfig holds toggles for the enrichment pipeline
type FeaturesConfig struct {
	EnableSentiment         bool     `mapstructure:"enable_sentiment"`
	EnableLanguageDetection bool     `mapstructure:"enable_language_detection"`
	SupportedLanguages      []string `mapstructure:"supported_languages"`
	DefaultLanguage         string   `mapstructure:"default_language"`
}

// ChatConfig holds conversation handling configuration
type ChatConfig struct {
	ContextTTL      time.Duration `mapstructure:"context_ttl"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	HistoryLimit    int           `mapstructure:"history_limit"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CHATBOTX")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.path", "./data/chatbotx.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nlu.base_url", "http://localhost:5005")
	v.SetDefault("nlu.timeout", 30*time.Second)
	v.SetDefault("nlu.reprobe_interval", time.Duration(0))

	v.SetDefault("features.enable_sentiment", true)
	v.SetDefault("features.enable_language_detection", true)
	v.SetDefault("features.supported_languages", []string{"en", "es", "fr", "de"})
	v.SetDefault("features.default_language", "en")

	v.SetDefault("chat.context_ttl", 30*time.Minute)
	v.SetDefault("chat.idle_timeout", 30*time.Minute)
	v.SetDefault("chat.cleanup_interval", 5*time.Minute)
	v.SetDefault("chat.history_limit", 50)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
