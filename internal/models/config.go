package models

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// WebhookConfig holds the ingestion trust-boundary settings. The secret is
// only ever populated from the environment, never from the config file.
type WebhookConfig struct {
	Secret string `json:"-"`
}

// TracingConfig mirrors the OpenTelemetry setup options.
type TracingConfig struct {
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"useStdout"`
}

// RetryConfig holds backoff settings for store initialization.
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Webhook  WebhookConfig  `json:"webhook"`
	Tracing  TracingConfig  `json:"tracing"`
	Retry    RetryConfig    `json:"retry"`
	LogLevel string         `json:"logLevel"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
