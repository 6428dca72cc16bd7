// Package config loads the probe configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nmxmxh/atomics/internal/utils"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config drives the probe.
type Config struct {
	// Widths lists the object widths to report, in bytes.
	Widths []int `yaml:"widths"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Format selects text or json output.
	Format string `yaml:"format"`
	// Metrics dumps Prometheus counters after the run.
	Metrics bool `yaml:"metrics"`

	Provider ProviderConfig `yaml:"provider"`
	SelfTest SelfTestConfig `yaml:"self_test"`
}

// ProviderConfig tunes the in-process provider. Zero means auto.
type ProviderConfig struct {
	Stripes   int `yaml:"stripes"`
	CacheLine int `yaml:"cache_line"`
}

// SelfTestConfig controls the concurrent fetch-add check over a shared
// region.
type SelfTestConfig struct {
	Enabled    bool `yaml:"enabled"`
	Width      int  `yaml:"width"`
	Workers    int  `yaml:"workers"`
	Iterations int  `yaml:"iterations"`
	// Path of a backing file; empty maps anonymous memory.
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Widths:   []int{1, 2, 3, 4, 8, 16},
		LogLevel: "warn",
		Format:   FormatText,
		SelfTest: SelfTestConfig{
			Width:      8,
			Workers:    2,
			Iterations: 10000,
		},
	}
}

// Load reads path over DefaultConfig. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, utils.WrapErrorf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, utils.WrapError(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	for _, w := range c.Widths {
		if w < 0 {
			return fmt.Errorf("config: width %d must not be negative", w)
		}
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	if c.Provider.Stripes < 0 || c.Provider.CacheLine < 0 {
		return fmt.Errorf("config: provider settings must not be negative")
	}
	if c.SelfTest.Enabled {
		if c.SelfTest.Width <= 0 || c.SelfTest.Workers <= 0 || c.SelfTest.Iterations <= 0 {
			return fmt.Errorf("config: self test settings must be positive")
		}
	}
	return nil
}

// Level maps LogLevel onto the logger's levels.
func (c Config) Level() utils.LogLevel {
	return utils.ParseLevel(c.LogLevel)
}
