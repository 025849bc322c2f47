// Package config loads the application configuration from a YAML file, an
// optional .env file, and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/scrumtogether/scrumtogether-api/internal/auth"
	"github.com/scrumtogether/scrumtogether-api/internal/database"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/loginattempt"
	"github.com/scrumtogether/scrumtogether-api/internal/ratelimit"
	"github.com/scrumtogether/scrumtogether-api/internal/server"
)

// envPrefix namespaces environment variable overrides, e.g.
// SCRUMTOGETHER_AUTH_JWT_SECRET overrides auth.jwt.secret.
const envPrefix = "SCRUMTOGETHER"

// Config is the root application configuration.
type Config struct {
	Name          string              `yaml:"name" mapstructure:"name"`
	Environment   string              `yaml:"environment" mapstructure:"environment"`
	Server        server.Config       `yaml:"server" mapstructure:"server"`
	Database      database.Config     `yaml:"database" mapstructure:"database"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Auth          auth.Config         `yaml:"auth" mapstructure:"auth"`
	RateLimit     ratelimit.Config    `yaml:"rate_limit" mapstructure:"rate_limit"`
	LoginAttempts loginattempt.Config `yaml:"login_attempts" mapstructure:"login_attempts"`
}

// ApplyDefaults fills every section with its defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scrumtogether-api"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Auth.JWT.ApplyDefaults()
	c.Auth.Password.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.LoginAttempts.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Auth.JWT.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Password.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads configuration from the given YAML file (empty path searches the
// default locations), overlays a .env file when present, then environment
// variables, and finally applies defaults and validates.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}

	// A .env file, when present, seeds the process environment before
	// viper reads it.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// findConfigFile searches the standard locations for a config file.
func findConfigFile() string {
	candidates := []string{
		"./config.yml",
		"./config.yaml",
		"./cmd/api/config.yml",
		"./cmd/api/config.yaml",
		"../config.yml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
