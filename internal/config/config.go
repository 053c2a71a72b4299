// Package config handles the citeweb configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "citeweb"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvInspireURL overrides inspire.base_url.
	EnvInspireURL = "CITEWEB_INSPIRE_URL"
)

// ErrInvalidConfig is returned for values that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration.
type Config struct {
	Inspire InspireConfig `yaml:"inspire"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Dot     DotConfig     `yaml:"dot"`
}

// InspireConfig configures access to the INSPIRE-HEP service.
type InspireConfig struct {
	BaseURL    string        `yaml:"base_url"`
	RateLimit  float64       `yaml:"rate_limit"` // requests per second; <= 0 disables
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
	PageSize   int           `yaml:"page_size"`
	MaxPages   int           `yaml:"max_pages"`
}

// CrawlConfig configures checkpointing during a crawl.
type CrawlConfig struct {
	SaveEvery  int `yaml:"save_every"`
	StatsEvery int `yaml:"stats_every"`
}

// DotConfig configures the rendered graph.
type DotConfig struct {
	GraphStyle   string `yaml:"graph_style"`
	NodeStyle    string `yaml:"node_style"`
	NodeURL      string `yaml:"node_url"`
	RankStyle    string `yaml:"rank_style"`
	ClusterStyle string `yaml:"cluster_style"`
	Layout       string `yaml:"html_layout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Inspire: InspireConfig{
			BaseURL:    "https://inspirehep.net",
			RateLimit:  2,
			Attempts:   3,
			RetryDelay: 2 * time.Second,
			Timeout:    30 * time.Second,
			PageSize:   250,
			MaxPages:   40,
		},
		Crawl: CrawlConfig{
			SaveEvery:  5,
			StatsEvery: 5,
		},
		Dot: DotConfig{
			GraphStyle:   "node [shape=box, style=rounded]; rankdir=TB",
			NodeURL:      "https://inspirehep.net/record/%s",
			RankStyle:    "shape=plaintext, fontsize=16",
			ClusterStyle: "style=filled; fillcolor=gray97; color=red; penwidth=3",
			Layout:       "force",
		},
	}
}

// DefaultPath returns the config file path.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citeweb/config.yml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the configuration at path, or at DefaultPath when path is empty.
// Keys absent from the file keep their defaults. A missing default file is
// not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(ExpandPath(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if u := os.Getenv(EnvInspireURL); u != "" {
		cfg.Inspire.BaseURL = u
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Inspire.BaseURL == "" {
		return fmt.Errorf("%w: inspire.base_url is empty", ErrInvalidConfig)
	}
	if c.Inspire.Attempts < 1 {
		return fmt.Errorf("%w: inspire.attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Inspire.PageSize < 1 {
		return fmt.Errorf("%w: inspire.page_size must be positive", ErrInvalidConfig)
	}
	if c.Inspire.MaxPages < 1 {
		return fmt.Errorf("%w: inspire.max_pages must be positive", ErrInvalidConfig)
	}
	if c.Inspire.Timeout <= 0 {
		return fmt.Errorf("%w: inspire.timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
