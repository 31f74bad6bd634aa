package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ImageStorageDatabase = "database"
	ImageStorageS3       = "s3"
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

	// Security
	JWTSecret     string
	JWTExpiry     time.Duration
	AuthRateLimit float64 // requests per second per IP on /api/auth/*
	AuthRateBurst int
	// TrustedProxies is a comma separated list of IPs/CIDRs whose
	// X-Forwarded-For header is believed. Empty trusts nobody.
	TrustedProxies string
	// RegistrationOpen toggles POST /api/auth/register
	RegistrationOpen bool

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Feed paging
	PageSizeDefault int
	PageSizeMax     int

	// Markdown
	MarkdownCacheSize int

	// Images
	ImageStorage  string // "database" or "s3"
	ImageMaxSize  int64
	ImageCacheTTL time.Duration

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry of redirect URLs handed out by GET /images/{id}
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "YAQA"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/yaqa.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"),

		// Security
		JWTSecret:     envRequired("JWT_SECRET"),
		JWTExpiry:     envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		AuthRateLimit: envFloat("AUTH_RATE_LIMIT", 0.2),         // one request every 5s sustained
		AuthRateBurst: envInt("AUTH_RATE_BURST", 5),

		TrustedProxies: envString("TRUSTED_PROXIES", ""),

		RegistrationOpen: envBool("REGISTRATION_OPEN", true),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		PageSizeDefault:   envInt("PAGE_SIZE_DEFAULT", 20),
		PageSizeMax:       envInt("PAGE_SIZE_MAX", 100),
		MarkdownCacheSize: envInt("MARKDOWN_CACHE_SIZE", 1024),

		ImageStorage:  envString("IMAGE_STORAGE", ImageStorageDatabase),
		ImageMaxSize:  int64(envInt("IMAGE_MAX_SIZE", 5<<20)), // 5MB
		ImageCacheTTL: envDuration("IMAGE_CACHE_TTL", 365*24*time.Hour),
	}

	// S3 settings only matter when images live in a bucket
	if cfg.ImageStorage == ImageStorageS3 {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
		cfg.S3AccessKey = envRequired("S3_ACCESS_KEY")
		cfg.S3SecretKey = envRequired("S3_SECRET_KEY")
		cfg.S3Endpoint = envString("S3_ENDPOINT", "")
		cfg.S3PresignExpiry = envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour)
	}

	if cfg.PageSizeDefault > cfg.PageSizeMax {
		slog.Warn("config page size default above max, clamping",
			"default", cfg.PageSizeDefault, "max", cfg.PageSizeMax)
		cfg.PageSizeDefault = cfg.PageSizeMax
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows some services (like email) to use fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 bytes")
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
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
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

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		EmailFrom: c.EmailFrom,

		PageSizeDefault: c.PageSizeDefault,
		PageSizeMax:     c.PageSizeMax,

		ImageStorage: c.ImageStorage,
		ImageMaxSize: c.ImageMaxSize,

		S3Endpoint: c.S3Endpoint,
	}
}
