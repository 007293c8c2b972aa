package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Tokens
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Verification codes (email verify + password reset)
	VerificationCodeLength int
	VerificationCodeExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Readium"),
		AppEnv:  envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // base URL for email links and OAuth redirects
		Port:    envString("PORT", "8080"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/readium.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		AccessTokenSecret:  envRequired("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: envRequired("REFRESH_TOKEN_SECRET"),
		AccessTokenExpiry:  envDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry: envDuration("REFRESH_TOKEN_EXPIRY", 240*time.Hour), // 10 days

		VerificationCodeLength: envInt("VERIFICATION_CODE_LENGTH", 10),
		VerificationCodeExpiry: envDuration("VERIFICATION_CODE_EXPIRY", time.Hour),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// RESEND_API_KEY optional in development, required in production
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envRequired("S3_ACCESS_KEY"),
		S3SecretKey:     envRequired("S3_SECRET_KEY"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour), // 7 days
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production
// deployments. Development lets email fall back to log mode for local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
