package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/spf13/viper"
)

// Tab names known to the view layer.
var Tabs = []string{"watchlist", "quote", "analysis", "portfolio", "alerts", "briefing"}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	UI        UIConfig        `mapstructure:"ui"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// APIConfig points at the remote StockBot API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RefreshConfig holds the background polling schedule.
type RefreshConfig struct {
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type UIConfig struct {
	InitialTab   string `mapstructure:"initial_tab"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

// WatchlistConfig tunes the per-symbol quote fan-out. Zero means one
// goroutine per symbol.
type WatchlistConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig controls the zap logger and its optional rotated file sink.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file. An empty path loads defaults plus
// environment overrides only.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix("STOCKBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default with viper so env overrides work
// without a config file.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("notify.ttl", d.Notify.TTL)
	v.SetDefault("refresh.health_interval", d.Refresh.HealthInterval)
	v.SetDefault("ui.initial_tab", d.UI.InitialTab)
	v.SetDefault("ui.templates_dir", d.UI.TemplatesDir)
	v.SetDefault("watchlist.max_concurrency", d.Watchlist.MaxConcurrency)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 120 * time.Second,
		},
		Notify: NotifyConfig{
			TTL: 3500 * time.Millisecond,
		},
		Refresh: RefreshConfig{
			HealthInterval: 30 * time.Second,
		},
		UI: UIConfig{
			InitialTab: "watchlist",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  25,
			MaxBackups: 10,
			MaxAgeDays: 14,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.API.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("api base_url is required"))
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("api base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("api timeout cannot be negative, got %s", c.API.Timeout))
	}

	if c.Notify.TTL <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("notify ttl must be positive, got %s", c.Notify.TTL))
	}
	if c.Refresh.HealthInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("health_interval must be positive, got %s", c.Refresh.HealthInterval))
	}
	if c.Watchlist.MaxConcurrency < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_concurrency cannot be negative, got %d", c.Watchlist.MaxConcurrency))
	}

	if !isKnownTab(c.UI.InitialTab) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown initial_tab %q", c.UI.InitialTab))
	}

	return nil
}

func isKnownTab(name string) bool {
	for _, t := range Tabs {
		if t == name {
			return true
		}
	}
	return false
}
