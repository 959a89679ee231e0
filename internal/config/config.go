package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every drivepath environment variable.
const EnvPrefix = "DRIVEPATH"

// Config is the complete drivepath configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Google  GoogleConfig  `mapstructure:"google"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Yolo enables write operations (move, rename, create). Default is read-only.
	Yolo bool `mapstructure:"yolo"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// GoogleConfig holds OAuth client credentials and the starting token.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`

	// TokenFile is read at startup and rewritten after each refresh.
	TokenFile string `mapstructure:"token_file"`

	// Endpoint overrides the Drive REST base URL.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// ServerConfig controls the MCP server.
type ServerConfig struct {
	Transport        string        `mapstructure:"transport" validate:"required,oneof=stdio streamable-http"`
	HTTPAddr         string        `mapstructure:"http_addr" validate:"required_if=Transport streamable-http"`
	DisableStreaming bool          `mapstructure:"disable_streaming"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// MetricsConfig controls the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// defaults are applied before any other source.
var defaults = map[string]any{
	"log.level":                "info",
	"log.format":               "text",
	"google.client_id":         "",
	"google.client_secret":     "",
	"google.access_token":      "",
	"google.refresh_token":     "",
	"google.token_file":        "",
	"google.endpoint":          "",
	"server.transport":         "stdio",
	"server.http_addr":         ":8080",
	"server.disable_streaming": false,
	"server.shutdown_timeout":  30 * time.Second,
	"metrics.enabled":          true,
	"metrics.addr":             ":9090",
	"yolo":                     false,
}

// envAliases are accepted in addition to the DRIVEPATH_ variable of a key.
var envAliases = map[string][]string{
	"google.client_id":     {"GOOGLE_CLIENT_ID"},
	"google.client_secret": {"GOOGLE_CLIENT_SECRET"},
	"google.access_token":  {"GOOGLE_ACCESS_TOKEN"},
	"google.refresh_token": {"GOOGLE_REFRESH_TOKEN"},
	"google.token_file":    {"GOOGLE_TOKEN_FILE"},
	"metrics.enabled":      {"METRICS_ENABLED"},
	"metrics.addr":         {"METRICS_ADDR"},
}

// FlagKeys maps command-line flag names to configuration keys. Flags
// missing from the flag set passed to Load are ignored.
var FlagKeys = map[string]string{
	"log-level":            "log.level",
	"log-format":           "log.format",
	"google-client-id":     "google.client_id",
	"google-client-secret": "google.client_secret",
	"token-file":           "google.token_file",
	"drive-endpoint":       "google.endpoint",
	"transport":            "server.transport",
	"http-addr":            "server.http_addr",
	"disable-streaming":    "server.disable_streaming",
	"shutdown-timeout":     "server.shutdown_timeout",
	"metrics-enabled":      "metrics.enabled",
	"metrics-addr":         "metrics.addr",
	"yolo":                 "yolo",
}

// Load builds the configuration. configPath may be empty, in which case
// config.yaml in the default directory is used when present. flags may be
// nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := setupViper(v, configPath, flags); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string, flags *pflag.FlagSet) error {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return nil
}

func readConfigFile(v *viper.Viper, configPath string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if configPath == "" && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drivepath")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "drivepath")
}

// DefaultConfigPath returns the config file location used when none is given.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// CanRefresh reports whether the client credentials needed to refresh an
// access token are present.
func (g GoogleConfig) CanRefresh() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}
