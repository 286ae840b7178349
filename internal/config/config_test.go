package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every WALK_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() { os.Setenv(key, value) })
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultDataDir, cfg.Paths.DataDir)
				assert.Equal(t, DefaultWorkingDatabase, cfg.Paths.WorkingDatabase)
				assert.Equal(t, DefaultDatabasePattern, cfg.Paths.DatabasePattern)
				assert.Equal(t, DefaultSummaryFile, cfg.Paths.SummaryFile)
				assert.Equal(t, DefaultConverterCommand, cfg.Converter.Command)
				assert.Equal(t, DefaultConverterTimeout, cfg.Converter.Timeout)
				assert.Equal(t, DefaultNamespace, cfg.Summary.Namespace)
				assert.Equal(t, DefaultTimezone, cfg.Summary.Timezone)
				assert.Equal(t, DefaultSourceTimezone, cfg.Summary.SourceTimezone)
				assert.False(t, cfg.Summary.IncludeLocation)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"WALK_SUMMARY_TIMEZONE":         "Europe/London",
				"WALK_SUMMARY_INCLUDE_LOCATION": "true",
				"WALK_CONVERTER_TIMEOUT":        "90s",
				"WALK_PATHS_DATA_DIR":           "/srv/walk",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Europe/London", cfg.Summary.Timezone)
				assert.True(t, cfg.Summary.IncludeLocation)
				assert.Equal(t, 90*time.Second, cfg.Converter.Timeout)
				assert.Equal(t, "/srv/walk", cfg.Paths.DataDir)
			},
		},
		{
			name: "file values replace defaults",
			file: `
paths:
  summary_file: walks.xlsx
summary:
  timezone: America/New_York
  include_location: true
converter:
  timeout: 5m
logging:
  format: text
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "walks.xlsx", cfg.Paths.SummaryFile)
				assert.Equal(t, "America/New_York", cfg.Summary.Timezone)
				assert.True(t, cfg.Summary.IncludeLocation)
				assert.Equal(t, 5*time.Minute, cfg.Converter.Timeout)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Equal(t, DefaultNamespace, cfg.Summary.Namespace, "unset file values keep defaults")
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"WALK_SUMMARY_TIMEZONE": "Europe/Paris"},
			file: "summary:\n  timezone: America/New_York\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Europe/Paris", cfg.Summary.Timezone)
			},
		},
		{
			name:    "invalid namespace",
			env:     map[string]string{"WALK_SUMMARY_NAMESPACE": "not-a-uuid"},
			wantErr: true,
		},
		{
			name:    "invalid timezone",
			env:     map[string]string{"WALK_SUMMARY_TIMEZONE": "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			file:    "logging:\n  level: loud\n",
			wantErr: true,
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"WALK_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "summary: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.file != "" {
				configFile = writeConfigFile(t, tt.file)
			} else {
				// keep the search away from any config.yaml in the package directory
				t.Chdir(t.TempDir())
			}

			cfg, err := Load(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultActivityType, cfg.Summary.ActivityType)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative timeout", func(c *Config) { c.Converter.Timeout = -time.Second }},
		{"file output without path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }},
		{"empty activity type", func(c *Config) { c.Summary.ActivityType = "" }},
		{"negative max distance", func(c *Config) { c.Geocode.MaxDistanceKm = -1 }},
		{"bad source timezone", func(c *Config) { c.Summary.SourceTimezone = "Nowhere/Land" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
