package internal

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

var (
	ErrBadFanout    = errors.New("config: index.fanout must be at least 2")
	ErrBadCacheSize = errors.New("config: cache.size must not be negative")
	ErrBadPageSize  = errors.New("config: storage.page_size must not be negative")
	ErrBadFillFactor = errors.New("config: storage.fill_factor must be in (0, 1]")
)

// SimulatorConfig is the file-level configuration for the demo pipeline.
// Per-block option maps are derived from it; blocks re-validate on
// Initialize, so this validation exists to fail early with a file-level
// message.
type SimulatorConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		PageSize   int     `mapstructure:"page_size"`
		FillFactor float64 `mapstructure:"fill_factor"`
	} `mapstructure:"storage"`

	Index struct {
		Fanout    int    `mapstructure:"fanout"`
		KeyColumn string `mapstructure:"key_column"`
	} `mapstructure:"index"`

	Cache struct {
		Size     int `mapstructure:"size"`
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"cache"`

	Pipeline struct {
		Records int `mapstructure:"records"`
	} `mapstructure:"pipeline"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "storelab")
	v.SetDefault("storage.page_size", 8192)
	v.SetDefault("storage.fill_factor", 0.9)
	v.SetDefault("index.fanout", 32)
	v.SetDefault("index.key_column", "id")
	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.page_size", 8192)
	v.SetDefault("pipeline.records", 1000)
}

// DefaultConfig returns the built-in defaults without reading a file.
func DefaultConfig() *SimulatorConfig {
	v := viper.New()
	setDefaults(v)
	var cfg SimulatorConfig
	// defaults always unmarshal cleanly
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*SimulatorConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SimulatorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SimulatorConfig) Validate() error {
	if c.Index.Fanout < 2 {
		return ErrBadFanout
	}
	if c.Cache.Size < 0 {
		return ErrBadCacheSize
	}
	if c.Storage.PageSize < 0 {
		return ErrBadPageSize
	}
	if c.Storage.FillFactor <= 0 || c.Storage.FillFactor > 1 {
		return ErrBadFillFactor
	}
	return nil
}
