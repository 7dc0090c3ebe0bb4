// Package config loads slowpost settings from defaults, a YAML file,
// SLOWPOST_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/logging"
)

const (
	appName   = "slowpost"
	envPrefix = "SLOWPOST"
)

type Config struct {
	DataDir              string       `mapstructure:"data_dir" yaml:"data_dir"`
	WeeklyInkLimit       int          `mapstructure:"weekly_ink_limit" yaml:"weekly_ink_limit"`
	TypingCharsPerSecond float64      `mapstructure:"typing_chars_per_second" yaml:"typing_chars_per_second"`
	Timezone             string       `mapstructure:"timezone" yaml:"timezone"`
	Log                  LogConfig    `mapstructure:"log" yaml:"log"`
	Notify               NotifyConfig `mapstructure:"notify" yaml:"notify"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// NotifyConfig controls the unlock reminders. Title and Body are the texts
// handed to the sink; Enabled=false makes scheduling a no-op.
type NotifyConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PerSecond    float64       `mapstructure:"per_second" yaml:"per_second"`
	Title        string        `mapstructure:"title" yaml:"title"`
	Body         string        `mapstructure:"body" yaml:"body"`
}

// flagKeys maps config keys to the flag names that may override them.
var flagKeys = map[string]string{
	"data_dir":  "data-dir",
	"log.level": "log-level",
}

// Defaults returns the built-in settings.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:              filepath.Join(home, "."+appName),
		WeeklyInkLimit:       ink.DefaultWeeklyLimit,
		TypingCharsPerSecond: ink.DefaultCharsPerSecond,
		Log:                  LogConfig{Level: "info"},
		Notify: NotifyConfig{
			Enabled:      true,
			PollInterval: time.Minute,
			PerSecond:    1,
			Title:        "信已抵达",
			Body:         "这封信现在可以在家中开封。",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("weekly_ink_limit", d.WeeklyInkLimit)
	v.SetDefault("typing_chars_per_second", d.TypingCharsPerSecond)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("notify.enabled", d.Notify.Enabled)
	v.SetDefault("notify.poll_interval", d.Notify.PollInterval)
	v.SetDefault("notify.per_second", d.Notify.PerSecond)
	v.SetDefault("notify.title", d.Notify.Title)
	v.SetDefault("notify.body", d.Notify.Body)
}

// DefaultPath is where `config init` writes and where Load looks first.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appName, appName+".yaml"), nil
}

// Load resolves the configuration. An explicit path must exist; otherwise
// slowpost.yaml is looked up in the user config dir and the working
// directory, and its absence is not an error. flags may be nil.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	var c Config
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(appName)
		if p, err := DefaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects settings the core cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	if c.WeeklyInkLimit < 0 {
		errs = append(errs, fmt.Errorf("weekly_ink_limit must not be negative, got %d", c.WeeklyInkLimit))
	}
	if c.TypingCharsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("typing_chars_per_second must be positive, got %v", c.TypingCharsPerSecond))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if c.Notify.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("notify.poll_interval must be positive, got %s", c.Notify.PollInterval))
	}
	if c.Notify.PerSecond <= 0 {
		errs = append(errs, fmt.Errorf("notify.per_second must be positive, got %v", c.Notify.PerSecond))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves Timezone. Empty means the system local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WriteConfigFile writes c as YAML to path, creating parent directories.
func WriteConfigFile(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return os.WriteFile(path, data, 0o644)
}
