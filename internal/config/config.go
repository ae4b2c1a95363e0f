package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Datasets   []DatasetConfig  `yaml:"datasets"`
	Classifier ClassifierConfig `yaml:"classifier"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 disables background warming
}

type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	RatePerSecond float64       `yaml:"rate_per_second"` // 0 = unlimited
	Burst         int           `yaml:"burst"`
}

type DatasetConfig struct {
	Name     string         `yaml:"name"`
	MaxItems int            `yaml:"max_items"`
	Sources  []SourceConfig `yaml:"sources"`
}

// Source types understood by the adapter factory.
const (
	TypeFeed        = "feed"
	TypeIndexedFeed = "indexed_feed"
	TypeScrape      = "scrape"
)

// SourceConfig describes one registered source. Type selects the adapter:
// "feed" reads URL, "indexed_feed" reads URLTemplate+IDs, "scrape" reads URL
// plus the optional extraction hints.
type SourceConfig struct {
	Type        string            `yaml:"type"`
	Name        string            `yaml:"name"`
	URL         string            `yaml:"url"`
	URLTemplate string            `yaml:"url_template"`
	IDs         []string          `yaml:"ids"`
	MaxItems    int               `yaml:"max_items"`
	LinkPattern string            `yaml:"link_pattern"`
	Selectors   []string          `yaml:"selectors"`
	Headers     map[string]string `yaml:"headers"`
}

type ClassifierConfig struct {
	Keywords []string `yaml:"keywords"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "EventAggregator/1.0"
	}
	if c.Fetch.MaxConcurrent == 0 {
		c.Fetch.MaxConcurrent = 8
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = 1
	}
	for i := range c.Datasets {
		if c.Datasets[i].MaxItems == 0 {
			c.Datasets[i].MaxItems = 100
		}
		for j := range c.Datasets[i].Sources {
			if c.Datasets[i].Sources[j].MaxItems == 0 {
				c.Datasets[i].Sources[j].MaxItems = 30
			}
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports programming-contract violations. These are fatal at
// startup, before any request is served.
func (c *Config) Validate() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("no datasets configured")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if d.Name == "" {
			return fmt.Errorf("dataset without a name")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate dataset %q", d.Name)
		}
		seen[d.Name] = true
		if len(d.Sources) == 0 {
			return fmt.Errorf("dataset %q has no sources", d.Name)
		}
		for _, s := range d.Sources {
			if err := validateSource(s); err != nil {
				return fmt.Errorf("dataset %q: %w", d.Name, err)
			}
		}
	}
	return nil
}

func validateSource(s SourceConfig) error {
	if s.Name == "" {
		return fmt.Errorf("source without a name")
	}
	switch s.Type {
	case TypeFeed:
		if s.URL == "" {
			return fmt.Errorf("feed source %q needs url", s.Name)
		}
	case TypeIndexedFeed:
		if s.URLTemplate == "" {
			return fmt.Errorf("indexed_feed source %q needs url_template", s.Name)
		}
		if len(s.IDs) == 0 {
			return fmt.Errorf("indexed_feed source %q needs ids", s.Name)
		}
	case TypeScrape:
		if s.URL == "" {
			return fmt.Errorf("scrape source %q needs url", s.Name)
		}
	default:
		return fmt.Errorf("source %q has unknown type %q", s.Name, s.Type)
	}
	return nil
}
