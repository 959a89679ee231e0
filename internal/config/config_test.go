package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_ACCESS_TOKEN",
		"GOOGLE_REFRESH_TOKEN", "GOOGLE_TOKEN_FILE", "METRICS_ENABLED", "METRICS_ADDR",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.False(t, cfg.Yolo)
	assert.False(t, cfg.Google.CanRefresh())
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "drivepath.yaml")
	content := `
log:
  level: DEBUG
  format: json
server:
  transport: streamable-http
  http_addr: ":7000"
yolo: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "streamable-http", cfg.Server.Transport)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.True(t, cfg.Yolo)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DRIVEPATH_LOG_LEVEL", "warn")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "client", cfg.Google.ClientID)
	assert.Equal(t, "secret", cfg.Google.ClientSecret)
	assert.Equal(t, "refresh", cfg.Google.RefreshToken)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Google.CanRefresh())
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DRIVEPATH_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Bool("yolo", false, "")
	require.NoError(t, flags.Parse([]string{"--log-level=error", "--yolo"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Yolo)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Log:     LogConfig{Level: "info", Format: "text"},
			Server:  ServerConfig{Transport: "stdio", ShutdownTimeout: time.Second},
			Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "Config.Log.Level: validation failed on 'oneof=debug info warn error'",
		},
		{
			name:    "bad transport",
			mutate:  func(c *Config) { c.Server.Transport = "sse" },
			wantErr: "Config.Server.Transport",
		},
		{
			name: "http without addr",
			mutate: func(c *Config) {
				c.Server.Transport = "streamable-http"
				c.Server.HTTPAddr = ""
			},
			wantErr: "Config.Server.HTTPAddr",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "Config.Server.ShutdownTimeout",
		},
		{
			name:    "metrics without addr",
			mutate:  func(c *Config) { c.Metrics.Addr = "" },
			wantErr: "Config.Metrics.Addr",
		},
		{
			name:    "client id without secret",
			mutate:  func(c *Config) { c.Google.ClientID = "id" },
			wantErr: "google.client_secret is required",
		},
		{
			name:    "secret without client id",
			mutate:  func(c *Config) { c.Google.ClientSecret = "secret" },
			wantErr: "google.client_id is required",
		},
		{
			name:    "bad endpoint",
			mutate:  func(c *Config) { c.Google.Endpoint = "not a url" },
			wantErr: "Config.Google.Endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
