// Package config provides YAML-based configuration loading for Greenroom.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Greenroom configuration, loaded from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Platform PlatformConfig `yaml:"platform"`
	Sync     SyncConfig     `yaml:"sync"`
	Retry    RetryConfig    `yaml:"retry"`
	Alert    AlertConfig    `yaml:"alert"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DBConfig holds connection settings for the relational store. Driver is
// "mysql" for deployments or "sqlite" for local development.
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite only
}

// PlatformConfig holds credentials for the media platform. APISecret signs
// both the platform's webhook tokens and our admin API access tokens;
// WebhookSecret, when set, additionally enables the raw HMAC signature path.
type PlatformConfig struct {
	URL           string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// SyncConfig controls the on-demand resource sync.
type SyncConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the listing-call timeout as a duration.
func (s SyncConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RetryConfig controls the background redelivery sweep for events whose
// reconciliation failed.
type RetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Schedule    string `yaml:"schedule"` // 5-field cron expression
	MaxAttempts int    `yaml:"max_attempts"`
}

// AlertConfig holds operator notification credentials. All fields are
// optional; unset channels are skipped.
type AlertConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "mysql"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "greenroom"
	}
	if c.DB.Path == "" {
		c.DB.Path = "greenroom.db"
	}
	if c.Sync.TimeoutSeconds == 0 {
		c.Sync.TimeoutSeconds = 8
	}
	if c.Retry.Schedule == "" {
		c.Retry.Schedule = "*/5 * * * *"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Platform.URL == "" {
		errs = append(errs, "platform.url is required")
	}
	if c.Platform.APIKey == "" {
		errs = append(errs, "platform.api_key is required")
	}
	if c.Platform.APISecret == "" {
		errs = append(errs, "platform.api_secret is required")
	}
	if c.DB.Driver != "mysql" && c.DB.Driver != "sqlite" {
		errs = append(errs, fmt.Sprintf("db.driver must be mysql or sqlite, got %q", c.DB.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
