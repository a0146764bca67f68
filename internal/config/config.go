package config

import (
	"encoding/json"
	"os"
	"strconv"

	"pushledger/internal/constants"
	"pushledger/internal/models"
)

var (
	ErrMissingDBPath        = models.ConfigError{Message: "missing database path"}
	ErrMissingWebhookSecret = models.ConfigError{Message: "webhook secret is not set (set PUSHLEDGER_WEBHOOK_SECRET)"}
)

// LoadConfig reads the JSON config file, applies defaults and environment
// overrides, and validates the result. A missing webhook secret is a startup
// failure, never a per-request condition.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(c *models.Config) {
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "pushledger"
	}
}

func applyEnvironmentOverrides(c *models.Config) {
	// The signing secret is environment-only so it never lands in a config
	// file on disk.
	if secret := os.Getenv("PUSHLEDGER_WEBHOOK_SECRET"); secret != "" {
		c.Webhook.Secret = secret
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Webhook.Secret == "" {
		return ErrMissingWebhookSecret
	}
	return nil
}
