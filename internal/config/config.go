package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// LockedWALPath is the append-only journal for locked report ids. It is
	// replayed at startup and unioned with the Redis set on every read.
	LockedWALPath string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	PatientTokensTable string
	AuditArchiveBucket string

	AuditMaxEntries int

	ProviderTimeout time.Duration

	// VaultKeyHex is the hex-encoded 32-byte AES key for at-rest fields.
	VaultKeyHex string

	ClinicianJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		LockedWALPath: getEnv("LOCKED_WAL_PATH", "locked-reports.wal"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		PatientTokensTable: getEnv("PATIENT_TOKENS_TABLE", ""),
		AuditArchiveBucket: getEnv("AUDIT_ARCHIVE_BUCKET", ""),

		AuditMaxEntries: getEnvAsInt("AUDIT_MAX_ENTRIES", 10000),

		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 8*time.Second),

		VaultKeyHex: getEnv("VAULT_KEY", ""),

		ClinicianJWTSecret: getEnv("CLINICIAN_JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
