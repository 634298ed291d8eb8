package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LEDGERLOOM_CACHE_BACKEND.
const EnvPrefix = "LEDGERLOOM"

// Global configuration structure.
type Global struct {
	CacheBackend    string `mapstructure:"cache_backend" yaml:"cache_backend"`
	CacheDir        string `mapstructure:"cache_dir" yaml:"cache_dir"`
	ForecastPeriods int    `mapstructure:"forecast_periods" yaml:"forecast_periods"`
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string `mapstructure:"log_format" yaml:"log_format"`
	// Input handling
	StrictQuotes    bool `mapstructure:"strict_quotes" yaml:"strict_quotes"`
	AllowIncomplete bool `mapstructure:"allow_incomplete" yaml:"allow_incomplete"`
}

// Dir returns ~/.ledgerloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ledgerloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.ledgerloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("cache_backend", "file")
	v.SetDefault("cache_dir", filepath.Join(dir, "cache"))
	v.SetDefault("forecast_periods", 7)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("strict_quotes", false)
	v.SetDefault("allow_incomplete", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated keys.
func (c *Global) Validate() error {
	switch c.CacheBackend {
	case "memory", "file", "sqlite", "badger":
	default:
		return fmt.Errorf("invalid cache_backend: %s (use memory, file, sqlite or badger)", c.CacheBackend)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (use console or json)", c.LogFormat)
	}
	if c.ForecastPeriods <= 0 {
		return fmt.Errorf("forecast_periods must be positive, got %d", c.ForecastPeriods)
	}
	return nil
}
