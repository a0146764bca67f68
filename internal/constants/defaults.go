package constants

// Default server configuration values
const (
	DefaultServerPort            = 8080
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Webhook ingestion limits
const (
	MaxWebhookBodyBytes = 1 << 20 // 1 MiB
	MaxTextLength       = 4096
	SignatureHeader     = "X-Signature"
)

// Query pagination bounds
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 100
)

// Stats configuration
const (
	TopSendersLimit = 10
)

// Database startup retry values
const (
	DefaultDatabaseRetryAttempts = 3
	DefaultBackoffInitialMs      = 500
	DefaultBackoffMaxMs          = 5000
)

// Misc
const (
	ServerErrorChannelSize = 1
)
