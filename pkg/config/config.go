package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/internal/logging"
	"github.com/rawbytedev/wirechain/pkg/bufpool"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvSegmentSize    = "WIRECHAIN_SEGMENT_SIZE"
	EnvHeadroom       = "WIRECHAIN_HEADROOM"
	EnvUsePool        = "WIRECHAIN_USE_POOL"
	EnvLogLevel       = "WIRECHAIN_LOG_LEVEL"
	EnvLogFormat      = "WIRECHAIN_LOG_FORMAT"
	EnvLogTimestamp   = "WIRECHAIN_LOG_TIMESTAMP"
	EnvLogNoColor     = "WIRECHAIN_LOG_NOCOLOR"
	EnvMetricsEnabled = "WIRECHAIN_METRICS_ENABLED"
)

// Config is the file form of the chain, logging and metrics settings.
type Config struct {
	Chain   ChainConfig   `yaml:"chain" toml:"chain" mapstructure:"chain"`
	Logging LoggingConfig `yaml:"logging" toml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" mapstructure:"metrics"`
}

type ChainConfig struct {
	// SegmentSize is the size of segments allocated as a chain grows.
	SegmentSize int `yaml:"segment_size" toml:"segment_size" mapstructure:"segment_size"`
	// Headroom is the room under which a short field starts a new segment.
	Headroom int `yaml:"headroom" toml:"headroom" mapstructure:"headroom"`
	// UsePool draws fresh segments from the shared buffer pool.
	UsePool bool `yaml:"use_pool" toml:"use_pool" mapstructure:"use_pool"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" toml:"level" mapstructure:"level"`
	Format    string `yaml:"format" toml:"format" mapstructure:"format"`
	Timestamp bool   `yaml:"timestamp" toml:"timestamp" mapstructure:"timestamp"`
	NoColor   bool   `yaml:"no_color" toml:"no_color" mapstructure:"no_color"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Chain: ChainConfig{
			SegmentSize: wirechain.DefaultSegmentSize,
			Headroom:    wirechain.DefaultHeadroom,
			UsePool:     true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    logging.FormatConsole,
			Timestamp: true,
		},
	}
}

// Load reads path over the defaults, then applies WIRECHAIN_* environment
// overrides. The format follows the extension: .yaml, .yml or .toml. An
// empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("config load failed (%s): unsupported format", path)
	}
}

// envAliases maps config keys to the short variable names accepted next to
// the full WIRECHAIN_<SECTION>_<KEY> form.
var envAliases = map[string]string{
	"chain.segment_size": EnvSegmentSize,
	"chain.headroom":     EnvHeadroom,
	"chain.use_pool":     EnvUsePool,
	"logging.level":      EnvLogLevel,
	"logging.format":     EnvLogFormat,
	"logging.timestamp":  EnvLogTimestamp,
	"logging.no_color":   EnvLogNoColor,
	"metrics.enabled":    EnvMetricsEnabled,
}

// applyEnv overlays environment variables on cfg. The values already in
// cfg act as viper defaults, so unset variables leave them alone.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix("WIRECHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)
	for key, alias := range envAliases {
		if err := v.BindEnv(key, alias); err != nil {
			return fmt.Errorf("failed to bind %s: %w", alias, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("chain.segment_size", cfg.Chain.SegmentSize)
	v.SetDefault("chain.headroom", cfg.Chain.Headroom)
	v.SetDefault("chain.use_pool", cfg.Chain.UsePool)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.timestamp", cfg.Logging.Timestamp)
	v.SetDefault("logging.no_color", cfg.Logging.NoColor)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
}

// ApplyDefaults fills zero values left by a partial file.
func ApplyDefaults(cfg *Config) {
	def := Default()
	if cfg.Chain.SegmentSize == 0 {
		cfg.Chain.SegmentSize = def.Chain.SegmentSize
	}
	if cfg.Chain.Headroom == 0 {
		cfg.Chain.Headroom = def.Chain.Headroom
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

func Validate(cfg *Config) error {
	if err := cfg.Policy().Validate(); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	if _, ok := logging.ParseLevel(cfg.Logging.Level); !ok {
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("logging: unknown format %q", cfg.Logging.Format)
	}
	return nil
}

// Save writes cfg as YAML.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Policy() wirechain.Policy {
	return wirechain.Policy{SegmentSize: c.Chain.SegmentSize, Headroom: c.Chain.Headroom}
}

// Logger builds the process logger described by the logging section.
func (c *Config) Logger(app string, out io.Writer) zerolog.Logger {
	return logging.New(logging.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Timestamp: c.Logging.Timestamp,
		NoColor:   c.Logging.NoColor,
		App:       app,
		Out:       out,
	})
}

// ChainOptions turns the chain section into wirechain.Options. metrics may
// be nil.
func (c *Config) ChainOptions(log *zerolog.Logger, metrics wirechain.Metrics) wirechain.Options {
	opts := wirechain.Options{
		Policy:  c.Policy(),
		Logger:  log,
		Metrics: metrics,
	}
	if c.Chain.UsePool {
		opts.Pool = bufpool.Default()
	}
	return opts
}
