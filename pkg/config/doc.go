// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	TGSENTRY_HOST="0.0.0.0"
//	TGSENTRY_PORT="8080"
//	TGSENTRY_HEALTH_PORT="9090"
//	TGSENTRY_READ_TIMEOUT="15s"
//	TGSENTRY_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	TGSENTRY_STORAGE_TYPE="filesystem"  # filesystem, sqlite, redis
//	TGSENTRY_FILESYSTEM_ROOT="/var/lib/tgsentry"
//	TGSENTRY_SQLITE_PATH="/var/lib/tgsentry/tgsentry.db"
//	TGSENTRY_REDIS_URL="redis://localhost:6379"
//
// Security settings:
//
//	TGSENTRY_BOT_ID="777000"          # required
//	TGSENTRY_COMMAND_PREFIX="."
//	TGSENTRY_SWEEP_SCHEDULE="@every 1m"
//	TGSENTRY_AUDIT_ENABLED="true"
//	TGSENTRY_AUDIT_LOG_DIR="/var/log/tgsentry"
//
// Observability settings:
//
//	TGSENTRY_LOG_LEVEL="info"  # debug, info, warn, error
//	TGSENTRY_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Storage: %s\n", cfg.Storage.Type)
//	fmt.Printf("Bot: %d\n", cfg.Security.BotID)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
