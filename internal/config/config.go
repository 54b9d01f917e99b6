// Package config provides 12-factor configuration for the NetWatch server.
//
// Configuration is loaded from environment variables with sensible defaults;
// the -port CLI flag can override the port for development.
//
// Environment Variables:
//   - PORT, HOST
//   - BROWSER_NAV_TIMEOUT, BROWSER_DRAIN_DELAY, BROWSER_HEADLESS, CHROME_PATH
//   - GEO_ENDPOINT, GEO_TIMEOUT
//   - CLASSIFY_RULES_FILE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Geo      GeoConfig
	Classify ClassifyConfig
	Logging  LogConfig
	Rate     RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"3000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// BrowserConfig holds rendering collaborator configuration.
type BrowserConfig struct {
	// NavTimeout bounds the top-level navigation.
	NavTimeout time.Duration `envconfig:"BROWSER_NAV_TIMEOUT" default:"60s"`
	// DrainDelay is the post-navigation grace period that admits requests
	// from lazily-initialized trackers.
	DrainDelay time.Duration `envconfig:"BROWSER_DRAIN_DELAY" default:"6s"`
	Headless   bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	ChromePath string        `envconfig:"CHROME_PATH" default:""`
}

// GeoConfig holds geolocation collaborator configuration.
type GeoConfig struct {
	Endpoint string        `envconfig:"GEO_ENDPOINT" default:"http://ip-api.com/json"`
	Timeout  time.Duration `envconfig:"GEO_TIMEOUT" default:"5s"`
}

// ClassifyConfig holds classifier rule configuration.
type ClassifyConfig struct {
	RulesFile string `envconfig:"CLASSIFY_RULES_FILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Host: "0.0.0.0",
		},
		Browser: BrowserConfig{
			NavTimeout: 60 * time.Second,
			DrainDelay: 6 * time.Second,
			Headless:   true,
		},
		Geo: GeoConfig{
			Endpoint: "http://ip-api.com/json",
			Timeout:  5 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Rate: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
