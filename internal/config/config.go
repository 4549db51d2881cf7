// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Config holds all configuration values for the API server and the
// reconcile command. Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// JWTSecret is the HMAC key bearer tokens are signed with. Required.
	JWTSecret string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// Timezone is the business timezone that decides what "today" is for
	// past-date checks and the nightly reconcile. Defaults to UTC.
	Timezone *time.Location

	// ReconcileSchedule is a standard five-field cron expression evaluated
	// in Timezone. Defaults to "5 0 * * *".
	ReconcileSchedule string

	// ReconcileBatchSize caps the reservations completed per statement. Defaults to 500.
	ReconcileBatchSize int

	// AddOnRate is the per-guest, per-night price of the optional add-on. Defaults to 150.00.
	AddOnRate decimal.Decimal

	// MaxBodyBytes limits request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MigrateOnStart applies pending migrations before the server starts.
	MigrateOnStart bool
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
// Returns an error listing any required variables that are not set or any
// variables that fail to parse.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "5 0 * * *"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var errs []error

	loc, err := time.LoadLocation(getEnv("BUSINESS_TIMEZONE", "UTC"))
	if err != nil {
		errs = append(errs, fmt.Errorf("BUSINESS_TIMEZONE: %w", err))
	}
	cfg.Timezone = loc

	if _, err := cron.ParseStandard(cfg.ReconcileSchedule); err != nil {
		errs = append(errs, fmt.Errorf("RECONCILE_SCHEDULE: %w", err))
	}

	cfg.ReconcileBatchSize, err = strconv.Atoi(getEnv("RECONCILE_BATCH_SIZE", "500"))
	if err != nil || cfg.ReconcileBatchSize < 1 {
		errs = append(errs, fmt.Errorf("RECONCILE_BATCH_SIZE: must be a positive integer"))
	}

	cfg.AddOnRate, err = decimal.NewFromString(getEnv("ADDON_RATE_PER_GUEST_NIGHT", "150.00"))
	if err != nil || cfg.AddOnRate.IsNegative() {
		errs = append(errs, fmt.Errorf("ADDON_RATE_PER_GUEST_NIGHT: must be a non-negative amount"))
	}

	cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || cfg.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: must be a positive integer"))
	}

	cfg.MigrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("MIGRATE_ON_START: %w", err))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
