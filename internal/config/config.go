// Package config loads docq settings from flags, environment variables and
// an optional YAML file.
//
// Precedence, highest first: flags, DOCQ_* environment variables, the
// config file, defaults. Nested keys map to environment names with
// underscores, so log.level is DOCQ_LOG_LEVEL.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/docq/internal/document"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "DOCQ"

var (
	ErrInvalidLogLevel  = errors.New("log level must be one of debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("log format must be json or text")
	ErrInvalidRate      = errors.New("rate cannot be negative")
	ErrInvalidBurst     = errors.New("burst cannot be negative")
	ErrInvalidLimit     = errors.New("limit cannot be negative")
)

// Config is the complete docq configuration.
type Config struct {
	Log LogConfig `mapstructure:"log"`

	// Input forces the document format; empty picks it from the file name.
	Input string `mapstructure:"input"`
	// Rate caps emitted documents per second, 0 is unlimited.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`

	// Select is a JSONPath projection applied to output documents.
	Select string `mapstructure:"select"`
	// Limit stops after this many output documents, 0 is unlimited.
	Limit  int  `mapstructure:"limit"`
	Upsert bool `mapstructure:"upsert"`
	Diff   bool `mapstructure:"diff"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		Log:   LogConfig{Level: "warn", Format: "text"},
		Burst: 1,
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"input":      "input",
	"rate":       "rate",
	"burst":      "burst",
	"select":     "select",
	"limit":      "limit",
	"upsert":     "upsert",
	"diff":       "diff",
}

// RegisterFlags adds the flags shared by every command.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String("config", "", "path to a YAML configuration file")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log-format", defaults.Log.Format, "log format: json or text")
	flags.String("input", "", "document format: json or yaml (default from file extension)")
	flags.Float64("rate", defaults.Rate, "maximum output documents per second (0 for unlimited)")
	flags.Int("burst", defaults.Burst, "output documents allowed in a burst when rate is set")
}

// Load resolves the configuration. configFile may be empty. Only flags in
// flags that were registered are bound.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("input", defaults.Input)
	v.SetDefault("rate", defaults.Rate)
	v.SetDefault("burst", defaults.Burst)
	v.SetDefault("select", defaults.Select)
	v.SetDefault("limit", defaults.Limit)
	v.SetDefault("upsert", defaults.Upsert)
	v.SetDefault("diff", defaults.Diff)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w, got: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w, got: %q", ErrInvalidLogFormat, c.Log.Format)
	}

	if c.Input != "" {
		if _, err := document.ParseFormat(c.Input); err != nil {
			return err
		}
	}

	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.Burst < 0 {
		return ErrInvalidBurst
	}
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}
