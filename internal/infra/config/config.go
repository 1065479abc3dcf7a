// Package config provides application-wide configuration loaded from env vars
// (and an optional .env file) through viper.
// All fields have safe defaults so the binary runs locally without any env setup.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds runtime configuration for healthassist.
type Config struct {
	// HTTP
	HTTPHost string `mapstructure:"HTTP_HOST"` // default: "0.0.0.0"
	HTTPPort int    `mapstructure:"HTTP_PORT"` // default: 8000

	// Reference data
	DataBackend string `mapstructure:"DATA_BACKEND"` // memory | sqlite, default: memory
	DatasetPath string `mapstructure:"DATASET_PATH"` // YAML (optionally .gz); empty = built-in
	SQLitePath  string `mapstructure:"SQLITE_PATH"`  // default: ":memory:"

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`  // default: "info"
	LogFormat string `mapstructure:"LOG_FORMAT"` // json | console, default: json
}

var envKeys = []string{
	"HTTP_HOST",
	"HTTP_PORT",
	"DATA_BACKEND",
	"DATASET_PATH",
	"SQLITE_PATH",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// Load reads configuration from the environment and ./.env, applying defaults
// for missing values, and validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8000)
	v.SetDefault("DATA_BACKEND", BackendMemory)
	v.SetDefault("DATASET_PATH", "")
	v.SetDefault("SQLITE_PATH", ":memory:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", LogFormatJSON)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine; an unreadable or malformed one is not.
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATA_BACKEND is %q", BackendSQLite)
		}
	default:
		return fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendMemory, BackendSQLite, c.DataBackend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		return fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatJSON, LogFormatConsole, c.LogFormat)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
