// Package config loads blobbind configuration from YAML or TOML files, with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/birkland/blobbind/drivers/factory"
	"github.com/birkland/blobbind/resolv"
	"github.com/birkland/blobbind/substrate"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration
const (
	EnvDefaultAccount = "BLOBBIND_DEFAULT_ACCOUNT"
	EnvSubstrate      = "BLOBBIND_SUBSTRATE"
	EnvLogLevel       = "BLOBBIND_LOG_LEVEL"
)

// DefaultAccountName is the account used when nothing else is configured
const DefaultAccountName = "memory"

// Config is the root configuration
type Config struct {
	DefaultAccount string             `yaml:"default_account" toml:"default_account"`
	Accounts       map[string]Account `yaml:"accounts" toml:"accounts"`

	// Values for %name% placeholders in paths
	Settings map[string]string `yaml:"settings" toml:"settings"`

	Substrate   substrate.Settings `yaml:"substrate" toml:"substrate"`
	Log         LogConfig          `yaml:"log" toml:"log"`
	Parallelism int                `yaml:"parallelism" toml:"parallelism"`
}

// Account names the driver of a storage account, and its parameters
type Account struct {
	Driver     string                 `yaml:"driver" toml:"driver"`
	Parameters map[string]interface{} `yaml:"parameters" toml:"parameters"`
}

// LogConfig configures logging
type LogConfig struct {
	Level     string `yaml:"level" toml:"level"`
	Formatter string `yaml:"formatter" toml:"formatter"`
}

// Load reads a configuration file, choosing the format by extension, and
// finalizes it.  An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read config %s", path)
		}

		if err := Parse(filepath.Ext(path), data, cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse config %s", path)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration content in the format named by a file
// extension: .yaml, .yml or .toml
func Parse(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unsupported config format %q", ext)
}

// Finalize applies defaults and environment overrides, then validates.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *Config) loadDefaults() {
	if len(c.Accounts) == 0 {
		c.Accounts = map[string]Account{
			DefaultAccountName: {Driver: "memory"},
		}
	}

	if c.DefaultAccount == "" && len(c.Accounts) == 1 {
		for name := range c.Accounts {
			c.DefaultAccount = name
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Formatter == "" {
		c.Log.Formatter = "text"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDefaultAccount); v != "" {
		c.DefaultAccount = v
	}
	if v := os.Getenv(EnvSubstrate); v != "" {
		c.Substrate.Name = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) validate() error {
	if c.DefaultAccount != "" {
		if _, ok := c.Accounts[c.DefaultAccount]; !ok {
			return fmt.Errorf("default account %q is not configured", c.DefaultAccount)
		}
	}

	for name, acct := range c.Accounts {
		if acct.Driver == "" {
			return fmt.Errorf("account %q names no driver", name)
		}
	}

	if _, err := c.Substrate.Type(); err != nil {
		return err
	}

	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}

	return c.Log.validate()
}

// Provider creates a client provider for the configured accounts
func (c *Config) Provider() *factory.Provider {
	accounts := make(map[string]factory.Account, len(c.Accounts))
	for name, acct := range c.Accounts {
		accounts[name] = factory.Account{
			Driver:     acct.Driver,
			Parameters: acct.Parameters,
		}
	}
	return factory.NewProvider(accounts, c.DefaultAccount)
}

// Names creates the placeholder substitution for the configured settings,
// falling back to the environment
func (c *Config) Names() *resolv.Names {
	return resolv.NewNames(c.Settings)
}
