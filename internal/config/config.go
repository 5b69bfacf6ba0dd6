// Package config resolves boxocr settings from defaults, an optional
// boxocr.yaml, BOXOCR_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/lehigh-university-libraries/boxocr/pkg/page"
	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

const EnvPrefix = "BOXOCR"

// Config holds everything the commands need besides the PDF path.
type Config struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Language    string        `mapstructure:"language" yaml:"language"`
	Prompt      string        `mapstructure:"prompt" yaml:"prompt,omitempty"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DPI         int           `mapstructure:"dpi" yaml:"dpi"`
	Scale       float64       `mapstructure:"scale" yaml:"scale"`
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        string        `mapstructure:"port" yaml:"port"`
}

func Default() Config {
	return Config{
		Provider: "tesseract",
		Language: "eng",
		DPI:      page.DefaultDPI,
		Scale:    page.DefaultScale,
		Host:     "localhost",
		Port:     "8888",
	}
}

// Load reads the configuration. cfgFile may be empty, in which case
// boxocr.yaml is looked up in the working directory and $HOME/.boxocr and
// skipped when absent. Flags in fs whose names match a setting override it
// when they were set on the command line.
func Load(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("provider", defaults.Provider)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("language", defaults.Language)
	v.SetDefault("prompt", defaults.Prompt)
	v.SetDefault("temperature", defaults.Temperature)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("dpi", defaults.DPI)
	v.SetDefault("scale", defaults.Scale)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("boxocr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.boxocr")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if fs != nil {
		for _, key := range v.AllKeys() {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider must be set")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.Scale <= 0 || c.Scale > 1 {
		return fmt.Errorf("scale must be in (0, 1], got %g", c.Scale)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// ProviderConfig returns the settings handed to the OCR provider.
func (c *Config) ProviderConfig() providers.Config {
	return providers.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		Prompt:      c.Prompt,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
		Language:    c.Language,
	}
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# boxocr configuration
# Every setting can also be given as a BOXOCR_<NAME> environment variable.
# Provider API keys are read from their own variables, e.g. OPENAI_API_KEY.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
