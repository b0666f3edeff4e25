// Package config provides configuration loading for the registry client.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTokenEnv is the environment variable read for the access token
	// when the configuration does not name another one.
	DefaultTokenEnv = "MLGIT_TOKEN"

	// DefaultBranch is the registry branch when unset.
	DefaultBranch = "main"
)

// Option defines the interface for configuration options.
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration.
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the registry client configuration.
type Config struct {
	// Account is the hosting account that owns the registry repository.
	Account string `yaml:"account"`

	// Repo is the registry repository name.
	Repo string `yaml:"repo"`

	// RegistryRoot is the base remote path under which models are stored.
	RegistryRoot string `yaml:"registryRoot,omitempty"`

	// Branch is the registry branch. Defaults to main.
	Branch string `yaml:"branch,omitempty"`

	// BaseURL overrides the hosting base used for clones and pushes.
	BaseURL string `yaml:"baseURL,omitempty"`

	// RawBaseURL overrides the base of raw-content locators.
	RawBaseURL string `yaml:"rawBaseURL,omitempty"`

	// TokenEnv names the environment variable holding the access token.
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// Load reads and validates a configuration.
func Load(opts ...Option) (*Config, error) {
	loader := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loader); err != nil {
			return nil, err
		}
	}
	if loader.path == "" {
		return nil, fmt.Errorf("no configuration source provided")
	}

	data, err := os.ReadFile(loader.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("account is required")
	}
	if c.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	return nil
}

// Token returns the access token from the configured environment variable.
func (c *Config) Token() string {
	return os.Getenv(c.TokenEnv)
}
