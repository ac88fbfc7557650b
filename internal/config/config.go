package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	ScyllaNodes    []string
	ScyllaKeyspace string

	DocDBHost     string
	DocDBPort     string
	DocDBUser     string
	DocDBPassword string
	DocDBName     string
	DocDBSSLMode  string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins

	LogLevel string
	LogDev   bool
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		ScyllaNodes:    strings.Split(getEnv("SCYLLA_NODES", "127.0.0.1:9042"), ","),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "collaborate_core"),

		DocDBHost:     getEnv("DOC_DB_HOST", "localhost"),
		DocDBPort:     getEnv("DOC_DB_PORT", "26257"),
		DocDBUser:     getEnv("DOC_DB_USER", "root"),
		DocDBPassword: getEnv("DOC_DB_PASSWORD", ""),
		DocDBName:     getEnv("DOC_DB_NAME", "collaborate_app"),
		DocDBSSLMode:  getEnv("DOC_DB_SSLMODE", "disable"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getEnv("LOG_DEV", "") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
