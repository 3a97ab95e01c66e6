package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Storage: StorageConfig{
			DataDir:    "data",
			Backend:    BackendJSON,
			DBPath:     "data/library.db",
			ReportPath: "reports/out.txt",
		},
	}
}

// newFlags parses args against a fresh flag set, pointing the .env lookup
// at an empty temp dir unless args override it.
func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	args = append([]string{"--" + FlagEnvFile, filepath.Join(t.TempDir(), "none.env")}, args...)
	require.NoError(t, fs.Parse(args))
	return fs
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENV", "LOG_LEVEL", "LOG_FORMAT", "DATA_DIR", "BACKEND", "DB_PATH", "REPORT_PATH"} {
		t.Setenv(envPrefix+key, "")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Storage(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"sqlite", func(c *Config) { c.Storage.Backend = BackendSQLite }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "badger" }, false},
		{"json without data dir", func(c *Config) { c.Storage.DataDir = "" }, false},
		{"sqlite without db path", func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Storage.DBPath = ""
		}, false},
		{"no report path", func(c *Config) { c.Storage.ReportPath = "" }, false},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Logger.Format)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("data", "library.db"), cfg.Storage.DBPath)
	assert.Equal(t, filepath.Join("reports", "global_inventory_report.txt"), cfg.Storage.ReportPath)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(envPrefix+"LOG_LEVEL", "warn")
	t.Setenv(envPrefix+"DATA_DIR", "/from/env")
	t.Setenv(envPrefix+"BACKEND", BackendSQLite)

	cfg, err := Load(newFlags(t, "--"+FlagLogLevel, "debug"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level, "flag beats env")
	assert.Equal(t, "/from/env", cfg.Storage.DataDir, "env beats default")
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("/from/env", "library.db"), cfg.Storage.DBPath)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# catalog settings\n"+
			"LIBRARY_ENV=production\n"+
			"LIBRARY_REPORT_PATH=\"out/report.txt\"\n"+
			"LIBRARY_LOG_LEVEL=error\n"), 0o644))
	t.Setenv(envPrefix+"LOG_LEVEL", "debug")

	cfg, err := Load(newFlags(t, "--"+FlagEnvFile, envFile))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "out/report.txt", cfg.Storage.ReportPath)
	assert.Equal(t, "debug", cfg.Logger.Level, "env beats .env file")
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	_, err := Load(newFlags(t, "--"+FlagBackend, "postgres"))
	assert.Error(t, err)
}

func TestLoad_BadEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NOT A PAIR\n"), 0o644))

	_, err := Load(newFlags(t, "--"+FlagEnvFile, envFile))
	assert.Error(t, err)
}
