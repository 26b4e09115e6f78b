// Package config handles configuration loading and validation for go-herdbook.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/util"
	"gopkg.in/yaml.v3"
)

// Source kinds
const (
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
)

// Config holds the application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Timeline TimelineConfig `yaml:"timeline"`
	Server   ServerConfig   `yaml:"server"`
}

// SourceConfig selects the remote data service the timeline reads from
type SourceConfig struct {
	Kind     string        `yaml:"kind"`      // sqlite or http
	DBPath   string        `yaml:"db_path"`   // sqlite database file
	BaseURL  string        `yaml:"base_url"`  // http API root
	APIToken string        `yaml:"api_token"` // bearer token for the http API
	Timeout  time.Duration `yaml:"timeout"`   // per-request timeout
}

// TimelineConfig holds engine tuning
type TimelineConfig struct {
	PageSize          int    `yaml:"page_size"`
	LoadMoreThreshold int    `yaml:"load_more_threshold"`
	Timezone          string `yaml:"timezone"`
}

// ServerConfig configures the serve command
type ServerConfig struct {
	Listen   string `yaml:"listen"`
	APIToken string `yaml:"api_token"` // empty disables auth
}

// DefaultDir returns ~/.go-herdbook
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".go-herdbook"), nil
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns a Config with sensible defaults
func Default() Config {
	cfg := Config{
		Source: SourceConfig{
			Kind:    SourceSQLite,
			Timeout: constants.DefaultRequestTimeout,
		},
		Timeline: TimelineConfig{
			PageSize:          constants.DefaultPageSize,
			LoadMoreThreshold: constants.DefaultLoadMoreThreshold,
			Timezone:          "Local",
		},
		Server: ServerConfig{
			Listen: constants.DefaultListenAddr,
		},
	}
	if dir, err := DefaultDir(); err == nil {
		cfg.Source.DBPath = filepath.Join(dir, "herd.db")
	}
	return cfg
}

// Load reads configuration from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Source.Kind == "" {
		c.Source.Kind = defaults.Source.Kind
	}
	if c.Source.DBPath == "" {
		c.Source.DBPath = defaults.Source.DBPath
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = defaults.Source.Timeout
	}
	if c.Timeline.PageSize == 0 {
		c.Timeline.PageSize = defaults.Timeline.PageSize
	}
	if c.Timeline.Timezone == "" {
		c.Timeline.Timezone = defaults.Timeline.Timezone
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaults.Server.Listen
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		c.Source.validate(),
		c.Timeline.validate(),
	)
}

func (s SourceConfig) validate() error {
	var errs criterio.FieldErrorsBuilder
	switch s.Kind {
	case SourceSQLite:
		if s.DBPath == "" {
			errs = errs.Append("source.db_path", fmt.Errorf("required for sqlite source"))
		}
	case SourceHTTP:
		if s.BaseURL == "" {
			errs = errs.Append("source.base_url", fmt.Errorf("required for http source"))
		} else if u, err := url.Parse(s.BaseURL); err != nil || u.Host == "" {
			errs = errs.Append("source.base_url", fmt.Errorf("invalid URL %q", s.BaseURL))
		}
	default:
		errs = errs.Append("source.kind", fmt.Errorf("unknown source kind %q: must be %s or %s", s.Kind, SourceSQLite, SourceHTTP))
	}
	if s.Timeout < 0 {
		errs = errs.Append("source.timeout", fmt.Errorf("must not be negative"))
	}
	return errs.ToError()
}

func (t TimelineConfig) validate() error {
	var errs criterio.FieldErrorsBuilder
	if t.PageSize < 1 || t.PageSize > constants.MaxPageSize {
		errs = errs.Append("timeline.page_size", fmt.Errorf("must be between 1 and %d", constants.MaxPageSize))
	}
	if t.LoadMoreThreshold < 0 {
		errs = errs.Append("timeline.load_more_threshold", fmt.Errorf("must not be negative"))
	}
	if _, err := util.LoadLocation(t.Timezone); err != nil {
		errs = errs.Append("timeline.timezone", err)
	}
	return errs.ToError()
}
