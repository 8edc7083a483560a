// Package config loads the server configuration from config/server.yaml,
// with environment variables overriding file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Listen         string   `yaml:"listen" env:"LISTEN_ADDR"`
	DatabaseURL    string   `yaml:"database_url" env:"DATABASE_URL"`
	StorageRoot    string   `yaml:"storage_root" env:"STORAGE_ROOT"`
	JWTSecret      string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	AuditLog       string   `yaml:"audit_log" env:"AUDIT_LOG"`
	AllowedMime    []string `yaml:"allowed_mime"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst      int      `yaml:"rate_burst" env:"RATE_BURST"`
}

// Load reads the configuration file and applies environment overrides.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "server.yaml"))
}

// LoadFromPath loads the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration or falls back to defaults when the
// file is absent. Environment overrides still apply.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err == nil {
		return cfg
	}
	cfg = Default()
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return cfg
	}
	return cfg
}

// Default returns the development configuration: in-memory storage, local
// files, permissive CORS.
func Default() *Config {
	return &Config{
		Listen:         ":8080",
		StorageRoot:    filepath.Join("var", "pictures"),
		JWTSecret:      "dev-only-secret",
		AllowedMime:    []string{"image/png", "image/jpeg", "image/gif"},
		AllowedOrigins: []string{"*"},
		RateLimit:      20,
		RateBurst:      40,
	}
}
