// Package config loads the atelier YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before
// parsing; the CLI layers ATELIER_* env overrides on top via viper.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	ShutdownTimeout   string   `yaml:"shutdown_timeout"`
	CORSOrigins       []string `yaml:"cors_origins"`
	MaxBodySize       int64    `yaml:"max_body_size"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// StoreConfig selects the backing database.
type StoreConfig struct {
	Driver  string `yaml:"driver"` // sqlite (default), postgres, mysql
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"` // sqlite only; empty means in-memory
}

// AuthConfig holds the three shared secrets and the auth tunables. All
// secrets are provisioned once at process start.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	JWTExpiry     string `yaml:"jwt_expiry"`
	APIKeySecret  string `yaml:"api_key_secret"` // keys the HMAC over stored key secrets
	WebhookSecret string `yaml:"webhook_secret"`
	LoginWindow   string `yaml:"login_window"`
	StoreTimeout  string `yaml:"store_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns a Config with production defaults and empty secrets.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ShutdownTimeout:   "30s",
			CORSOrigins:       []string{"*"},
			MaxBodySize:       1 << 20, // 1MB; no file uploads pass through this server
			RequestsPerMinute: 300,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Auth: AuthConfig{
			JWTExpiry:    "24h",
			LoginWindow:  "5s",
			StoreTimeout: "2s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Duration parses one of the duration-shaped fields, falling back on parse
// failure or empty input.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
