package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort     string
	ServicePort string // control plane used by the integration harness

	// Scheduling
	Timezone          string // IANA name, e.g. "Asia/Manila"
	ExpiryScanCron    string // cron expression for the daily reservation expiry scan
	BufferMinutes     int    // padding applied to both sides of calendar intervals
	BusinessDayStart  string // "HH:MM"
	BusinessDayEnd    string // "HH:MM"
	ExpiryWarningDays int    // days-remaining threshold for warning severity

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	AdminAlertEmail string // digest recipient for expiry warnings

	// App defaults
	AppName   string
	SeedAdmin bool // create the initial admin user on startup if none exists

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) (int, error) {
		strVal, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		val, convErr := strconv.Atoi(strVal)
		if convErr != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %s", key, strVal)
		}
		return val, nil
	}

	getEnvDuration := func(key string, defaultValue time.Duration) (time.Duration, error) {
		strVal, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		val, convErr := time.ParseDuration(strVal)
		if convErr != nil {
			return 0, fmt.Errorf("invalid duration value for %s: %s", key, strVal)
		}
		return val, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "tes_crm")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getEnvDuration("JWT_TTL", 12*time.Hour); err != nil {
		return nil, err
	}

	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServicePort = getEnv("SERVICE_PORT", "8081")

	cfg.Timezone = getEnv("TIMEZONE", "Asia/Manila")
	cfg.ExpiryScanCron = getEnv("EXPIRY_SCAN_CRON", "0 8 * * *")
	if cfg.BufferMinutes, err = getEnvInt("CALENDAR_BUFFER_MINUTES", 30); err != nil {
		return nil, err
	}
	cfg.BusinessDayStart = getEnv("BUSINESS_DAY_START", "08:00")
	cfg.BusinessDayEnd = getEnv("BUSINESS_DAY_END", "20:00")
	if cfg.ExpiryWarningDays, err = getEnvInt("EXPIRY_WARNING_DAYS", 2); err != nil {
		return nil, err
	}

	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	if cfg.SmtpPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "")
	cfg.AdminAlertEmail = getEnv("ADMIN_ALERT_EMAIL", "")

	cfg.AppName = getEnv("APP_NAME", "TES CRM")
	cfg.SeedAdmin = getEnv("SEED_ADMIN", "true") == "true"

	if cfg.RateLimitSoftBucketSize, err = getEnvInt("RATE_LIMIT_SOFT_BUCKET", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitSoftRefillRate, err = getEnvInt("RATE_LIMIT_SOFT_REFILL", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardBucketSize, err = getEnvInt("RATE_LIMIT_HARD_BUCKET", 90); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardRefillRate, err = getEnvInt("RATE_LIMIT_HARD_REFILL", 30); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured IANA timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
