package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	Environment       string
	MigrationsDir     string
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedDemoData      bool

	WorkStartTime              string
	AssumedWorkingDaysPerMonth int

	EmailFrom    string
	EmailEnabled bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool

	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	RateLimitPerMinute int
	RefreshInterval    time.Duration
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		Environment:       getEnv("APP_ENV", "development"),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@attendease.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedDemoData:      getEnvBool("SEED_DEMO_DATA", true),

		WorkStartTime:              getEnv("WORK_START_TIME", "09:00"),
		AssumedWorkingDaysPerMonth: getEnvInt("WORKING_DAYS_PER_MONTH", 22),

		EmailFrom:    getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled: getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:   getEnvBool("SMTP_USE_TLS", true),

		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RefreshInterval:    getEnvDuration("REFRESH_INTERVAL", time.Hour),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.AssumedWorkingDaysPerMonth <= 0 {
		return fmt.Errorf("WORKING_DAYS_PER_MONTH must be positive")
	}
	if _, err := time.Parse("15:04", c.WorkStartTime); err != nil {
		return fmt.Errorf("WORK_START_TIME must be HH:MM, got %q", c.WorkStartTime)
	}
	return nil
}
