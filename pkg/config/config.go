package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/henderiw/rangetable/pkg/interval"
	"github.com/spf13/viper"
)

const envPrefix = "RANGETABLE"

// Config holds all configuration values.
type Config struct {
	MaxX              int64    `mapstructure:"MAX_X"`
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	AppPort           string   `mapstructure:"APP_PORT"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowOrigins      []string `mapstructure:"ALLOW_ORIGINS"`

	// Optional import file loaded into the table on startup.
	DefaultRangesFile string `mapstructure:"DEFAULT_RANGES_FILE"`
}

// Load reads config.yaml from path, or from the current and ./config
// directory when path is empty, and applies RANGETABLE_* environment
// overrides on top of the defaults. A missing file is only an error when
// path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("MAX_X", interval.DefaultMaxX)
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("ALLOW_ORIGINS", []string{"*"})
	v.SetDefault("DEFAULT_RANGES_FILE", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Config) Validate() error {
	if r.MaxX < 1 {
		return fmt.Errorf("MAX_X must be at least 1, got %d", r.MaxX)
	}
	if r.MaxRequestsPerMin < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_MIN must be at least 1, got %d", r.MaxRequestsPerMin)
	}
	return nil
}

func (r *Config) IsProduction() bool {
	return r.Env == "production"
}
