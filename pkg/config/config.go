// Package config loads and validates portal configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is used when PORTAL_API_BASE_URL is unset.
const DefaultAPIBaseURL = "http://localhost:5000/api"

type Config struct {
	Server      ServerConfig
	PortalAPI   PortalAPIConfig
	Credentials CredentialsConfig
	Redis       RedisConfig
	Upload      UploadConfig
	Limits      LimitsConfig
	Wizard      WizardConfig
	LogLevel    string
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	MetricsEnabled bool
}

// PortalAPIConfig describes the remote REST service the gateway client talks to.
// RetryAttempts is carried for parity with the remote contract; the client attempts
// every request exactly once.
type PortalAPIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
}

type CredentialsConfig struct {
	Backend string // memory, file or redis
	File    string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type UploadConfig struct {
	MaxBytes int64
}

// WizardConfig controls how long an untouched session is kept.
type WizardConfig struct {
	SessionIdleTimeout time.Duration
	PruneInterval      time.Duration
}

// LimitsConfig needs Redis. RateLimitRequests of 0 disables rate limiting and an
// IdempotencyTTL of 0 disables Idempotency-Key handling.
type LimitsConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	IdempotencyTTL    time.Duration
}

// Load reads a .env file when present, then builds Config from the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
			MetricsEnabled: getBoolEnv("METRICS_ENABLED", true),
		},
		PortalAPI: PortalAPIConfig{
			BaseURL:       getEnv("PORTAL_API_BASE_URL", DefaultAPIBaseURL),
			Timeout:       getDurationEnv("PORTAL_API_TIMEOUT", 30*time.Second),
			RetryAttempts: getIntEnv("PORTAL_API_RETRY_ATTEMPTS", 3),
		},
		Credentials: CredentialsConfig{
			Backend: strings.ToLower(getEnv("CREDENTIALS_BACKEND", "memory")),
			File:    getEnv("CREDENTIALS_FILE", defaultCredentialsFile()),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 5<<20)),
		},
		Limits: LimitsConfig{
			RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 0),
			RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			IdempotencyTTL:    getDurationEnv("IDEMPOTENCY_TTL", 0),
		},
		Wizard: WizardConfig{
			SessionIdleTimeout: getDurationEnv("WIZARD_SESSION_IDLE_TIMEOUT", 30*time.Minute),
			PruneInterval:      getDurationEnv("WIZARD_PRUNE_INTERVAL", time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".consular-credentials.json"
	}
	return dir + string(os.PathSeparator) + "consular" + string(os.PathSeparator) + "credentials.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("30s") and bare integers, read as milliseconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
