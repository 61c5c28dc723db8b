package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	AppEnv       string
	LogLevel     string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	AuthRateLimit  int
	AuthRateWindow time.Duration
	CORSOrigins    []string

	StreakLocation         *time.Location
	ChallengeSweepSchedule string // cron expression, empty disables the sweep
}

// Load loads configuration from environment variables (and an optional .env file) or sets defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	accessTTL, err := time.ParseDuration(getEnv("ACCESS_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
	}
	refreshTTL, err := time.ParseDuration(getEnv("REFRESH_TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}
	rateWindow, err := time.ParseDuration(getEnv("AUTH_RATE_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_WINDOW: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("STREAK_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STREAK_TIMEZONE: %w", err)
	}

	cfg := &Config{
		ServerPort:             port,
		DatabasePath:           getEnv("DATABASE_PATH", "./socialquest.db"),
		AppEnv:                 getEnv("APP_ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		AccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		RefreshSecret:          getEnv("JWT_REFRESH_SECRET", ""),
		AccessTTL:              accessTTL,
		RefreshTTL:             refreshTTL,
		AuthRateLimit:          rateLimit,
		AuthRateWindow:         rateWindow,
		CORSOrigins:            splitList(getEnv("CORS_ORIGINS", "*")),
		StreakLocation:         loc,
		ChallengeSweepSchedule: getEnv("CHALLENGE_SWEEP_SCHEDULE", ""),
	}

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
