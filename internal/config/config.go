package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig
	Poll     PollConfig
	Database DatabaseConfig
	UI       UIConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// APIConfig holds reconciliation API client settings.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	TriggerTimeout  time.Duration `mapstructure:"trigger_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	Burst           int           `mapstructure:"burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// PollConfig holds entry poller settings.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// DatabaseConfig holds the local sqlite store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme      string `mapstructure:"theme"`
	DateFormat string `mapstructure:"date_format"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func dataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "recondesk")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "recondesk")
}

// Path returns the config file location, honouring RECONDESK_CONFIG.
func Path() string {
	if p := os.Getenv("RECONDESK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "recondesk", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.trigger_timeout", 5*time.Minute)
	v.SetDefault("api.rate_limit", 20.0)
	v.SetDefault("api.burst", 10)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_cooldown", 15*time.Second)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("database.path", filepath.Join(dataDir(), "recondesk.db"))
	v.SetDefault("ui.theme", "blue")
	v.SetDefault("ui.date_format", "Jan 2, 2006 03:04 PM")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(dataDir(), "recondesk.log"))
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from file and env. Env var overrides use prefix RECONDESK_.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; empty falls back to the default lookup.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	switch {
	case path != "":
		v.SetConfigFile(path)
	case os.Getenv("RECONDESK_CONFIG") != "":
		v.SetConfigFile(os.Getenv("RECONDESK_CONFIG"))
	default:
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "recondesk"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RECONDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && (path != "" || fileExists(v.ConfigFileUsed())) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.API.BaseURL) == "" {
		problems = append(problems, "api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}
	if c.API.TriggerTimeout < c.API.Timeout {
		problems = append(problems, "api.trigger_timeout must not be shorter than api.timeout")
	}
	if c.Poll.Interval <= 0 {
		problems = append(problems, "poll.interval must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
	}
	return nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.trigger_timeout", cfg.API.TriggerTimeout.String())
	v.Set("api.rate_limit", cfg.API.RateLimit)
	v.Set("api.burst", cfg.API.Burst)
	v.Set("api.breaker_failures", cfg.API.BreakerFailures)
	v.Set("api.breaker_cooldown", cfg.API.BreakerCooldown.String())
	v.Set("poll.interval", cfg.Poll.Interval.String())
	v.Set("database.path", cfg.Database.Path)
	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)
	v.Set("metrics.addr", cfg.Metrics.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
