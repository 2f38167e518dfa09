// Package config loads recorder and collector settings.
//
// Precedence, lowest first: Default, YAML file, COMPILER_MONITOR_*
// environment variables, then whatever the CLI sets from explicit flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mrzor/compiler-monitor/internal/capture"
	"github.com/mrzor/compiler-monitor/internal/pattern"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "COMPILER_MONITOR_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by the record and collect commands.
type Config struct {
	// Pattern selects compiler processes by executable name
	Pattern string `yaml:"pattern" env:"PATTERN"`
	// CacheDir receives capture records and archived response files
	CacheDir string `yaml:"cache_dir" env:"CACHE_DIR"`
	// Output is the compilation database written by collect
	Output string `yaml:"output" env:"OUTPUT"`
	// PollInterval is the pause between two process scans
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	// MaxTracked bounds the known-process set before it is reset
	MaxTracked int `yaml:"max_tracked" env:"MAX_TRACKED"`
	// Filter is an optional expr-lang predicate over each capture
	Filter string `yaml:"filter" env:"FILTER"`
	// MetricsAddr enables the Prometheus endpoint when set
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	// LogLevel is a logrus level name
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Pattern:      "cl.exe",
		CacheDir:     ".compiler_monitor_cache",
		Output:       "compile_commands.json",
		PollInterval: 50 * time.Millisecond,
		MaxTracked:   10000,
		LogLevel:     "info",
	}
}

// Load applies the YAML file at path (if any) and the environment on top of
// Default. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field and compiles the pattern and filter.
func (c *Config) Validate() error {
	var errs []error

	if _, err := pattern.Compile(c.Pattern); err != nil {
		errs = append(errs, err)
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir must not be empty"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output must not be empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.MaxTracked <= 0 {
		errs = append(errs, fmt.Errorf("max_tracked must be positive, got %d", c.MaxTracked))
	}
	if _, err := capture.NewFilter(c.Filter); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
