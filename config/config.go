package config

import (
	"fmt"
	"os"
	"time"

	"hn-order-checker/validator"

	"gopkg.in/yaml.v3"
)

const (
	// BaseURL is the root every pagination link is resolved against
	BaseURL = "https://news.ycombinator.com/"
	// NewestURL is the first page of the listing
	NewestURL = BaseURL + "newest"
	// TargetCount is the number of articles collected and validated per run
	TargetCount = 100
	// ResultsPath is the debug dump written after a successful validation
	ResultsPath = "article_validation_results.json"
)

// Browser backends
const (
	BackendRod  = "rod"
	BackendHTTP = "http"
)

// Config holds the tunable parts of a run. The listing URL and the number of
// articles are deliberately not configurable.
type Config struct {
	Browser struct {
		Backend     string        `yaml:"backend"`
		Headless    bool          `yaml:"headless"`
		KeepOpen    bool          `yaml:"keep_open"` // Leave the browser and its pages open after a successful run
		Bin         string        `yaml:"bin"`
		PageTimeout time.Duration `yaml:"page_timeout"`
	} `yaml:"browser"`
	Validation struct {
		MissingTimestamp validator.Policy `yaml:"missing_timestamp"`
	} `yaml:"validation"`
}

// LoadConfig loads configuration from a YAML file. Keys absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Browser.Backend = BackendRod
	cfg.Browser.Headless = true
	cfg.Browser.KeepOpen = false
	cfg.Browser.PageTimeout = 30 * time.Second
	cfg.Validation.MissingTimestamp = validator.PolicyError
	return cfg
}

// Validate checks enumerated values and durations
func (c *Config) Validate() error {
	switch c.Browser.Backend {
	case BackendRod, BackendHTTP:
	default:
		return fmt.Errorf("invalid browser.backend %q: want %q or %q", c.Browser.Backend, BackendRod, BackendHTTP)
	}

	if c.Browser.KeepOpen && c.Browser.Backend != BackendRod {
		return fmt.Errorf("browser.keep_open requires browser.backend %q, got %q", BackendRod, c.Browser.Backend)
	}

	policy, err := validator.ParsePolicy(string(c.Validation.MissingTimestamp))
	if err != nil {
		return fmt.Errorf("invalid validation.missing_timestamp: %w", err)
	}
	c.Validation.MissingTimestamp = policy

	if c.Browser.PageTimeout <= 0 {
		return fmt.Errorf("browser.page_timeout must be positive, got %s", c.Browser.PageTimeout)
	}

	return nil
}
