package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Model     ModelConfig
	Storage   StorageConfig
	Tracking  TrackingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatasetConfig holds training-data configuration
type DatasetConfig struct {
	CSVPath      string  `mapstructure:"csv_path"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
}

// ModelConfig holds estimator and artifact configuration
type ModelConfig struct {
	ArtifactDir string  `mapstructure:"artifact_dir"`
	Members     int     `mapstructure:"members"`
	Lambda      float64 `mapstructure:"lambda"`
	Seed        int64   `mapstructure:"seed"`
	Version     string  `mapstructure:"version"`
}

// StorageConfig holds cleaned-dataset export configuration
type StorageConfig struct {
	ExportCSVPath string `mapstructure:"export_csv_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ExportToDB    bool   `mapstructure:"export_to_db"`
}

// TrackingConfig holds the experiment-tracking sink configuration
type TrackingConfig struct {
	RunsPath string `mapstructure:"runs_path"`
}

// CacheConfig holds prediction-cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP float64 `mapstructure:"per_ip"` // requests per second
	Burst int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/estatelens/")

	// Environment variable settings
	v.SetEnvPrefix("ESTATELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
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
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Dataset defaults
	v.SetDefault("dataset.csv_path", "./data/house_prices.csv")
	v.SetDefault("dataset.test_fraction", 1.0/3.0)
	v.SetDefault("dataset.seed", 42)

	// Model defaults
	v.SetDefault("model.artifact_dir", "./models")
	v.SetDefault("model.members", 25)
	v.SetDefault("model.lambda", 1.0)
	v.SetDefault("model.seed", 42)
	v.SetDefault("model.version", "")

	// Storage defaults
	v.SetDefault("storage.export_csv_path", "./data/clean_listings.csv")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.export_to_db", false)

	// Tracking defaults
	v.SetDefault("tracking.runs_path", "./runs/runs.jsonl")

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 10)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Dataset.TestFraction <= 0 || config.Dataset.TestFraction >= 1 {
		return fmt.Errorf("dataset test fraction must be in (0, 1), got %g", config.Dataset.TestFraction)
	}

	if config.Model.Members <= 0 {
		return fmt.Errorf("model members must be positive, got %d", config.Model.Members)
	}

	if config.Model.Lambda < 0 {
		return fmt.Errorf("model lambda must be non-negative, got %g", config.Model.Lambda)
	}

	if config.Storage.ExportToDB && config.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is required when export_to_db is enabled (set ESTATELENS_STORAGE_POSTGRES_DSN)")
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per_ip must be positive, got %g", config.RateLimit.PerIP)
	}

	return nil
}
