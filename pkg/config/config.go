package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tgsentry/tgsentry/pkg/observability"
	"github.com/tgsentry/tgsentry/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Security configuration
	Security SecurityConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SecurityConfig holds evaluator settings
type SecurityConfig struct {
	// BotID is the account id of the bot itself; it is an implicit owner.
	BotID int64

	// CommandPrefix is the prefix character commands are invoked with.
	CommandPrefix string

	// SweepSchedule is the cron spec for the expired-rule sweep.
	SweepSchedule string

	// Audit trail
	AuditEnabled  bool
	AuditLogDir   string
	AuditMaxSize  int64
	AuditMaxFiles int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Security:      loadSecurityConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TGSENTRY_HOST", "0.0.0.0"),
		Port:            getEnv("TGSENTRY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TGSENTRY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TGSENTRY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TGSENTRY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TGSENTRY_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("TGSENTRY_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// Storage type
	if storageType := getEnv("TGSENTRY_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}

	// Filesystem config
	if fsRoot := getEnv("TGSENTRY_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}

	// SQLite config
	if sqlitePath := getEnv("TGSENTRY_SQLITE_PATH", ""); sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}

	// Redis config
	if redisURL := getEnv("TGSENTRY_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("TGSENTRY_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("TGSENTRY_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}

	return cfg
}

// loadSecurityConfig loads evaluator configuration from environment
func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		BotID:         getEnvInt64("TGSENTRY_BOT_ID", 0),
		CommandPrefix: getEnv("TGSENTRY_COMMAND_PREFIX", "."),
		SweepSchedule: getEnv("TGSENTRY_SWEEP_SCHEDULE", "@every 1m"),
		AuditEnabled:  getEnvBool("TGSENTRY_AUDIT_ENABLED", true),
		AuditLogDir:   getEnv("TGSENTRY_AUDIT_LOG_DIR", "/var/log/tgsentry"),
		AuditMaxSize:  getEnvInt64("TGSENTRY_AUDIT_MAX_SIZE", 0),
		AuditMaxFiles: getEnvInt("TGSENTRY_AUDIT_MAX_FILES", 0),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("TGSENTRY_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("TGSENTRY_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be filesystem, sqlite, or redis)", c.Storage.Type)
	}

	// Validate security config
	if c.Security.BotID <= 0 {
		return fmt.Errorf("bot id is required (TGSENTRY_BOT_ID)")
	}
	if c.Security.CommandPrefix == "" {
		return fmt.Errorf("command prefix must not be empty")
	}
	if strings.ContainsAny(c.Security.CommandPrefix, " \t\n") {
		return fmt.Errorf("command prefix must not contain whitespace")
	}
	if c.Security.AuditEnabled && c.Security.AuditLogDir == "" {
		return fmt.Errorf("audit log directory is required when the audit trail is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
