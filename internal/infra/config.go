package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StoragePath string
	GeoIPDBPath string

	// Video providers.
	DefaultProviderID string
	VeoBaseURL        string
	VeoAPIKey         string
	KlingBaseURL      string
	LTXBaseURL        string
	LTXAPIKey         string

	// Completion tracker cadence. Fixed interval and attempt cap; reaching
	// the cap is a fatal timeout, not retried.
	PollInterval    time.Duration
	MaxPollAttempts int

	// Recovery worker thresholds.
	StallThreshold time.Duration
	SweepInterval  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		DefaultProviderID: getEnv("DEFAULT_VIDEO_PROVIDER", "veo"),
		VeoBaseURL:        getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VeoAPIKey:         os.Getenv("VEO_API_KEY"),
		KlingBaseURL:      getEnv("KLING_BASE_URL", "https://api.klingai.com"),
		LTXBaseURL:        getEnv("LTX_BASE_URL", "https://api.ltx.video/v1"),
		LTXAPIKey:         os.Getenv("LTX_API_KEY"),

		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)),
		MaxPollAttempts: getEnvInt("MAX_POLL_ATTEMPTS", 120),

		StallThreshold: time.Second * time.Duration(getEnvInt("STALL_THRESHOLD_SECONDS", 120)),
		SweepInterval:  time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 15)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.MaxPollAttempts <= 0 {
		return nil, fmt.Errorf("MAX_POLL_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
