package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from the environment and an optional .env file.
type Config struct {
	AppPort int

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	CacheTTL     time.Duration
	CachePrefix  string
	AutoMigrate  bool
	AuditEnabled bool

	LogLevel      string
	LogFile       string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool
}

// LoadConfig reads .env when present, then the environment. The second return
// value reports whether a .env file was loaded, for logging once the logger exists.
func LoadConfig() (*Config, bool, error) {
	loadedDotEnv := godotenv.Load() == nil

	cfg := &Config{
		AppPort: getEnvInt("APP_PORT", 8080),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "cruces"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "cruces"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CacheTTL:     time.Duration(getEnvInt("CACHE_TTL_MINUTES", 30)) * time.Minute,
		CachePrefix:  getEnv("CACHE_PREFIX", "cruces:"),
		AutoMigrate:  getEnvBool("AUTO_MIGRATE", true),
		AuditEnabled: getEnvBool("AUDIT_ENABLED", true),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", "app.log"),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return nil, loadedDotEnv, fmt.Errorf("APP_PORT out of range: %d", cfg.AppPort)
	}
	if cfg.PostgresHost == "" || cfg.PostgresDB == "" {
		return nil, loadedDotEnv, fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required")
	}
	return cfg, loadedDotEnv, nil
}

// PostgresDSN builds the keyword/value connection string used by both drivers.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
