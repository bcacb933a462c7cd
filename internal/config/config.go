// Package config loads settings shared by bp-getchanges and bp-postchanges.
// Values come from, in order of precedence: command-line flags, BPCHANGES_*
// environment variables, an optional yaml file, and built-in defaults.
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

// ErrMissingCredential is returned when a required API key is not set.
var ErrMissingCredential = errors.New("missing credential")

// Default environment variable names holding the credentials.
const (
	DefaultAPIKeyEnv = "BIGPANDA_API_KEY"
	DefaultAppKeyEnv = "BP_APP_KEY"
)

// Config holds settings that are not part of a single invocation's arguments.
type Config struct {
	APIURL      string        `mapstructure:"api_url"`
	PostURL     string        `mapstructure:"post_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Pacing      PacingConfig  `mapstructure:"pacing"`
	Log         LogConfig     `mapstructure:"log"`
	Metrics     MetricsConfig `mapstructure:"metrics"`

	path string
}

// PacingConfig selects how page requests are throttled.
type PacingConfig struct {
	Policy   string        `mapstructure:"policy"`
	Interval time.Duration `mapstructure:"interval"`
	Burst    int           `mapstructure:"burst"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the optional Pushgateway target.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Path returns the config file that was consulted.
func (c *Config) Path() string { return c.path }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:      "https://api.bigpanda.io/resources/v2.0/changes",
		PostURL:     "https://api.bigpanda.io/data/changes",
		HTTPTimeout: 30 * time.Second,
		Pacing: PacingConfig{
			Policy:   "fixed",
			Interval: time.Second,
			Burst:    1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("post_url", d.PostURL)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("pacing.policy", d.Pacing.Policy)
	v.SetDefault("pacing.interval", d.Pacing.Interval)
	v.SetDefault("pacing.burst", d.Pacing.Burst)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "")
}

// Load reads configuration. cfgFile, when set, must exist; otherwise
// $BPCHANGES_CONFIG_DIR/config.yaml or $HOME/.bpchanges/config.yaml is read
// if present. flags maps config keys to command-line flags that override them.
func Load(cfgFile string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := cfgFile != ""
	if !explicit {
		path, err := defaultPath()
		if err != nil {
			return nil, err
		}
		cfgFile = path
	}
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BPCHANGES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultPath() (string, error) {
	dir := os.Getenv("BPCHANGES_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".bpchanges")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	switch strings.ToLower(c.Pacing.Policy) {
	case "fixed", "token_bucket", "none":
	default:
		return fmt.Errorf("pacing.policy must be fixed, token_bucket or none, got %q", c.Pacing.Policy)
	}
	if c.Pacing.Interval < 0 {
		return fmt.Errorf("pacing.interval must not be negative, got %s", c.Pacing.Interval)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Credential returns the value of the environment variable named envName.
func Credential(envName string) (string, error) {
	if envName == "" {
		return "", fmt.Errorf("%w: no environment variable name given", ErrMissingCredential)
	}
	val, ok := os.LookupEnv(envName)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrMissingCredential, envName)
	}
	return val, nil
}
