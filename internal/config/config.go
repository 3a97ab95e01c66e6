// Package config resolves catalog settings from command-line flags,
// environment variables, a .env file and defaults, in that order.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

const envPrefix = "LIBRARY_"

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Flag names shared by the commands that register them.
const (
	FlagEnv        = "env"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagDataDir    = "data-dir"
	FlagBackend    = "backend"
	FlagDBPath     = "db-path"
	FlagReportPath = "report-path"
	FlagEnvFile    = "env-file"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, pretty, or empty to pick by environment
}

// StorageConfig says where the catalog lives between runs.
type StorageConfig struct {
	DataDir    string
	Backend    string
	DBPath     string
	ReportPath string
}

// RegisterFlags adds the configuration flags to fs. Empty flag values fall
// through to the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagEnv, "", "Environment (development, staging, production)")
	fs.String(FlagLogLevel, "", "Log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, "", "Log format (json, pretty)")
	fs.String(FlagDataDir, "", "Directory holding the JSON catalog documents (default: data)")
	fs.String(FlagBackend, "", "Storage backend (json, sqlite)")
	fs.String(FlagDBPath, "", "SQLite database file (default: <data-dir>/library.db)")
	fs.String(FlagReportPath, "", "Inventory report file (default: reports/global_inventory_report.txt)")
	fs.String(FlagEnvFile, ".env", "Path to .env file")
}

// Load builds the configuration from the flags registered by RegisterFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	flagValue := func(name string) string {
		if fs == nil {
			return ""
		}
		v, _ := fs.GetString(name)
		return v
	}

	// Load .env file if it exists (silently ignore if not found).
	envFile := flagValue(FlagEnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	if err := loadEnvFile(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flagValue(FlagEnv), "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flagValue(FlagLogLevel), "LOG_LEVEL", "info"),
			Format: getConfigValue(flagValue(FlagLogFormat), "LOG_FORMAT", ""),
		},
		Storage: StorageConfig{
			DataDir:    getConfigValue(flagValue(FlagDataDir), "DATA_DIR", "data"),
			Backend:    getConfigValue(flagValue(FlagBackend), "BACKEND", BackendJSON),
			DBPath:     getConfigValue(flagValue(FlagDBPath), "DB_PATH", ""),
			ReportPath: getConfigValue(flagValue(FlagReportPath), "REPORT_PATH", filepath.Join("reports", "global_inventory_report.txt")),
		},
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.Storage.DataDir, "library.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %q (must be json or pretty)", c.Logger.Format)
	}

	switch c.Storage.Backend {
	case BackendJSON:
		if c.Storage.DataDir == "" {
			return errors.New("data dir cannot be empty")
		}
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db path cannot be empty")
		}
	default:
		return fmt.Errorf("invalid backend: %q (must be json or sqlite)", c.Storage.Backend)
	}

	if c.Storage.ReportPath == "" {
		return errors.New("report path cannot be empty")
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var
// (LIBRARY_ prefixed), or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envPrefix + envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments). Variables already set
// in the environment win.
func loadEnvFile(path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
