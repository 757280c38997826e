package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Sentos   SentosConfig
	Shopify  ShopifyConfig
	Sync     SyncConfig
	Matching MatchingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SentosConfig holds vendor feed configuration
type SentosConfig struct {
	FeedURL      string        `mapstructure:"feed_url"`
	BoundaryTag  string        `mapstructure:"boundary_tag"`
	SampleBytes  int64         `mapstructure:"sample_bytes"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// ShopifyConfig holds destination store credentials
type ShopifyConfig struct {
	StoreURL    string `mapstructure:"store_url"`
	AccessToken string `mapstructure:"access_token"`
}

// SyncConfig holds reconciliation pacing and history settings
type SyncConfig struct {
	WritesPerSecond float64       `mapstructure:"writes_per_second"`
	PagesPerSecond  float64       `mapstructure:"pages_per_second"`
	MaxPages        int           `mapstructure:"max_pages"`
	ReportTTL       time.Duration `mapstructure:"report_ttl"`
}

// MatchingConfig holds title-matching configuration
type MatchingConfig struct {
	// SimilarityThreshold enables fuzzy title matching when > 0.
	// 0 keeps the exact normalized-title baseline.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/sentossync/")

	v.SetEnvPrefix("SENTOSSYNC")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Feed defaults. Empty-string defaults register the credential keys
	// with viper so AutomaticEnv can populate them.
	v.SetDefault("sentos.feed_url", "")
	v.SetDefault("sentos.boundary_tag", "Urun")
	v.SetDefault("sentos.sample_bytes", int64(102400)) // first 100KB for fast analysis
	v.SetDefault("sentos.fetch_timeout", "90s")

	// Store defaults
	v.SetDefault("shopify.store_url", "")
	v.SetDefault("shopify.access_token", "")

	// Sync defaults: Shopify REST allows 2 calls/sec on the standard plan
	v.SetDefault("sync.writes_per_second", 2.0)
	v.SetDefault("sync.pages_per_second", 2.0)
	v.SetDefault("sync.max_pages", 200)
	v.SetDefault("sync.report_ttl", "168h") // keep a week of run history

	// Matching defaults: exact-title baseline
	v.SetDefault("matching.similarity_threshold", 0.0)
	v.SetDefault("matching.enable_debug_logging", false)
}

// validate validates the configuration. Feed URL and store credentials
// are checked at run start, not here, so the analysis endpoints work
// without a configured store.
func validate(config *Config) error {
	if config.Sentos.BoundaryTag == "" {
		return fmt.Errorf("sentos boundary tag cannot be empty")
	}

	if config.Sync.WritesPerSecond <= 0 {
		return fmt.Errorf("sync writes_per_second must be positive, got: %v", config.Sync.WritesPerSecond)
	}

	if config.Sync.MaxPages <= 0 {
		return fmt.Errorf("sync max_pages must be positive, got: %d", config.Sync.MaxPages)
	}

	if t := config.Matching.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("matching similarity_threshold must be within [0,1], got: %v", t)
	}

	return nil
}
