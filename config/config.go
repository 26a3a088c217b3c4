// Package config loads the worker configuration from a YAML file with
// environment variable overrides for secrets. Timeout budgets are explicit
// per remote partner because the dialogue path blocks on tool dispatch.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Partner holds connection settings for one remote HTTP partner.
type Partner struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	APIKey  string        `yaml:"-"`
}

// Search configures the web-search partner (an OpenAI-compatible
// chat-completions API).
type Search struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	APIKey  string        `yaml:"-"`
}

// Catalog configures the media-catalog partner (a TMDB-compatible API).
// An empty API key disables the catalog; recommendations then fall back
// to web search.
type Catalog struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"`
	Region   string        `yaml:"region"`
	APIKey   string        `yaml:"-"`
}

// Automation configures the workflow-automation partner.
type Automation struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	TemplateDir  string        `yaml:"template_dir"`
	TemplateName string        `yaml:"template_name"`
	// CallbackURL is substituted into workflow templates so scheduled
	// call-backs know which backend to dial into.
	CallbackURL string `yaml:"callback_url"`
	APIKeyHdr   string `yaml:"api_key_header"`
	APIKey      string `yaml:"-"`
}

// Log configures structured logging output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root worker configuration.
type Config struct {
	Directory     Partner       `yaml:"directory"`
	Memory        Partner       `yaml:"memory"`
	Automation    Automation    `yaml:"automation"`
	Search        Search        `yaml:"search"`
	Catalog       Catalog       `yaml:"catalog"`
	RPCTimeout    time.Duration `yaml:"rpc_timeout"`
	SearchRelay   time.Duration `yaml:"search_relay_timeout"`
	LookaheadDays int           `yaml:"lookahead_days"`
	Log           Log           `yaml:"log"`
}

// Default returns the baseline configuration. Partner base URLs still need
// to be provided via file or environment.
func Default() *Config {
	return &Config{
		Directory:  Partner{Timeout: 10 * time.Second},
		Memory:     Partner{Timeout: 10 * time.Second},
		Automation: Automation{Timeout: 20 * time.Second, TemplateDir: "workflows", TemplateName: "scheduled-call", APIKeyHdr: "X-Automation-Key"},
		Search: Search{
			BaseURL: "https://api.perplexity.ai",
			Model:   "sonar",
			Timeout: 25 * time.Second,
		},
		Catalog: Catalog{
			BaseURL:  "https://api.themoviedb.org/3",
			Timeout:  10 * time.Second,
			Language: "nl-NL",
			Region:   "NL",
		},
		RPCTimeout:    10 * time.Second,
		SearchRelay:   25 * time.Second,
		LookaheadDays: 7,
		Log:           Log{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv pulls secrets and URL overrides from the environment. Secrets
// are never read from the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DIRECTORY_API_URL"); v != "" {
		c.Directory.BaseURL = v
	}
	if v := os.Getenv("MEMORY_API_URL"); v != "" {
		c.Memory.BaseURL = v
	}
	if v := os.Getenv("AUTOMATION_API_URL"); v != "" {
		c.Automation.BaseURL = v
	}
	if v := os.Getenv("COMPANION_CALLBACK_URL"); v != "" {
		c.Automation.CallbackURL = v
	}
	if v := os.Getenv("CATALOG_API_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	c.Memory.APIKey = os.Getenv("MEMORY_API_KEY")
	c.Catalog.APIKey = os.Getenv("CATALOG_API_KEY")
	c.Automation.APIKey = os.Getenv("AUTOMATION_API_KEY")
	c.Search.APIKey = os.Getenv("SEARCH_API_KEY")
}

// Validate checks that the settings required for session start are present.
func (c *Config) Validate() error {
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory base URL is required")
	}
	if c.LookaheadDays <= 0 {
		return fmt.Errorf("lookahead_days must be positive")
	}
	return nil
}
