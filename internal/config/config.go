// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"

	"vendalytics/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional Postgres connection. An empty URL
// disables run persistence; analysis still works entirely in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether run persistence is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// AnalysisConfig holds analyzer tunables
type AnalysisConfig struct {
	MinSupport     float64 // market basket minimum itemset support
	MinConfidence  float64 // market basket minimum rule confidence
	ChurnHigh      float64 // churn score cutoffs
	ChurnMedium    float64
	ChurnLow       float64
	ClusteringSeed int64
}

// Load reads configuration from .env (when present) and the environment
func Load() (*Config, error) {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    envOr("PORT", "8080"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			MinSupport:     0.02,
			MinConfidence:  0.30,
			ChurnHigh:      70,
			ChurnMedium:    40,
			ChurnLow:       20,
			ClusteringSeed: 42,
		},
	}

	var err error
	if cfg.Analysis.MinSupport, err = envFloat("BASKET_MIN_SUPPORT", cfg.Analysis.MinSupport); err != nil {
		return nil, err
	}
	if cfg.Analysis.MinConfidence, err = envFloat("BASKET_MIN_CONFIDENCE", cfg.Analysis.MinConfidence); err != nil {
		return nil, err
	}
	if cfg.Analysis.ChurnHigh, err = envFloat("CHURN_THRESHOLD_HIGH", cfg.Analysis.ChurnHigh); err != nil {
		return nil, err
	}
	if cfg.Analysis.ChurnMedium, err = envFloat("CHURN_THRESHOLD_MEDIUM", cfg.Analysis.ChurnMedium); err != nil {
		return nil, err
	}
	if cfg.Analysis.ChurnLow, err = envFloat("CHURN_THRESHOLD_LOW", cfg.Analysis.ChurnLow); err != nil {
		return nil, err
	}
	if seed := os.Getenv("CLUSTERING_SEED"); seed != "" {
		parsed, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid CLUSTERING_SEED %q", seed)
		}
		cfg.Analysis.ClusteringSeed = parsed
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, v)
	}
	return parsed, nil
}
