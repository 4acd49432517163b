// package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// database
	DatabaseURL string

	// nats
	NatsURL    string
	BlobBucket string

	// bot
	BotToken string

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string

	// harvesting
	Harvest Harvest
}

// Harvest holds harvesting parameters. Defaults match production behavior;
// operators may override them with a YAML file pointed to by HARVEST_CONFIG.
type Harvest struct {
	PostCap         int `yaml:"post_cap"`          // accepted posts per run
	ScanLimit       int `yaml:"scan_limit"`        // raw messages scanned per run
	MediaCap        int `yaml:"media_cap"`         // stored media refs per post
	PaceMinSeconds  int `yaml:"pace_min_seconds"`  // lower bound of inter-item delay
	PaceMaxSeconds  int `yaml:"pace_max_seconds"`  // upper bound of inter-item delay
	InputTimeoutSec int `yaml:"input_timeout_sec"` // seconds to wait for code/password
}

// DefaultHarvest returns the built-in harvesting parameters.
func DefaultHarvest() Harvest {
	return Harvest{
		PostCap:         5,
		ScanLimit:       50,
		MediaCap:        10,
		PaceMinSeconds:  10,
		PaceMaxSeconds:  15,
		InputTimeoutSec: 60,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		BlobBucket:  getEnv("BLOB_BUCKET", ""),
		BotToken:    getEnv("BOT_TOKEN", ""),
		HTTPPort:    getEnvInt("HTTP_PORT", 3100),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		Harvest:     DefaultHarvest(),
	}

	if path := os.Getenv("HARVEST_CONFIG"); path != "" {
		if err := loadHarvestFile(path, &cfg.Harvest); err != nil {
			return nil, fmt.Errorf("load harvest config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required settings are present.
// The service refuses to start without them.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BlobBucket == "" {
		return fmt.Errorf("BLOB_BUCKET is required")
	}
	if c.Harvest.PaceMinSeconds > c.Harvest.PaceMaxSeconds {
		return fmt.Errorf("pace_min_seconds must not exceed pace_max_seconds")
	}
	if c.Harvest.PostCap <= 0 || c.Harvest.ScanLimit <= 0 {
		return fmt.Errorf("post_cap and scan_limit must be positive")
	}
	return nil
}

func loadHarvestFile(path string, h *Harvest) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, h)
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
