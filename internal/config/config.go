package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	JWT      JWTConfig
	AI       AIConfig
	Dispatch DispatchConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects the backing store for rides and users.
type StorageConfig struct {
	// Driver is "memory" (seeded in-process store) or "postgres".
	Driver string
}

// DatabaseConfig holds PostgreSQL configuration (used when Storage.Driver
// is "postgres").
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret        string
	Issuer        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

// AIConfig holds the chat-completion proxy configuration.
type AIConfig struct {
	BaseURL    string
	APIKey     string
	CustomerID string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// DispatchConfig holds driver-matching simulation settings.
type DispatchConfig struct {
	MinAcceptDelay time.Duration // lower bound for the simulated match latency
	MaxAcceptDelay time.Duration // upper bound for the simulated match latency
	SearchRadiusKm float64
	QuoteTTL       time.Duration
	SurgeMode      string // "random" or "demand"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "memory"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rideshare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "rideshare"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
			Issuer:        getEnv("JWT_ISSUER", "rideshare"),
			Expiry:        getDurationEnv("JWT_EXPIRY", 24*time.Hour),
			RefreshExpiry: getDurationEnv("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		AI: AIConfig{
			BaseURL:    getEnv("AI_BASE_URL", "https://oi-server.onrender.com/chat/completions"),
			APIKey:     getEnv("AI_API_KEY", ""),
			CustomerID: getEnv("AI_CUSTOMER_ID", ""),
			Model:      getEnv("AI_MODEL", "openrouter/claude-sonnet-4"),
			Timeout:    getDurationEnv("AI_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("AI_MAX_RETRIES", 3),
		},
		Dispatch: DispatchConfig{
			MinAcceptDelay: getDurationEnv("DISPATCH_MIN_ACCEPT_DELAY", 3*time.Second),
			MaxAcceptDelay: getDurationEnv("DISPATCH_MAX_ACCEPT_DELAY", 8*time.Second),
			SearchRadiusKm: getFloatEnv("DISPATCH_SEARCH_RADIUS_KM", 5.0),
			QuoteTTL:       getDurationEnv("DISPATCH_QUOTE_TTL", 5*time.Minute),
			SurgeMode:      getEnv("DISPATCH_SURGE_MODE", "random"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
