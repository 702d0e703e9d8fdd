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
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: pgx)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret                string
	JWTExpiry                time.Duration
	TokenPasswordResetExpiry time.Duration
	TokenMagicLinkExpiry     time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// OpenAI
	OpenAIAPIKey    string
	ChatModel       string
	EmbeddingModel  string
	ModerationModel string

	// Chat limits
	FreeDailyMessages int

	// Payment
	PaymentProvider string // "polar" or "stripe"
	// Payment - Polar
	PolarAPIKey                  string
	PolarWebhookSecret           string
	PolarSandboxMode             bool
	PolarProductIDPremiumMonthly string
	PolarProductIDPremiumYearly  string
	// Payment - Stripe
	StripeSecretKey             string
	StripeWebhookSecret         string
	StripePriceIDPremiumMonthly string
	StripePriceIDPremiumYearly  string

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Kindred"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // Required: base URL for email links and OAuth redirects
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "support@example.com"),

		// Database
		DBDriver:     envString("DB_DRIVER", "pgx"),
		DBConnection: envString("DB_CONNECTION", "postgres://localhost:5432/kindred?sslmode=disable"),

		// Security
		JWTSecret:                envRequired("JWT_SECRET"),
		JWTExpiry:                envDuration("JWT_EXPIRY", 168*time.Hour),                // 7 days
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour), // 1 hour
		TokenMagicLinkExpiry:     envDuration("TOKEN_MAGIC_LINK_EXPIRY", 10*time.Minute),  // 10 minutes

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     envString("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: envString("GITHUB_CLIENT_SECRET", ""),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// OpenAI
		OpenAIAPIKey:    envRequired("OPENAI_API_KEY"),
		ChatModel:       envString("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:  envString("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ModerationModel: envString("OPENAI_MODERATION_MODEL", "omni-moderation-latest"),

		// Chat limits
		FreeDailyMessages: envInt("FREE_DAILY_MESSAGES", 30),

		// Payment (provider selection and configuration)
		PaymentProvider:              envString("PAYMENT_PROVIDER", "stripe"),
		PolarAPIKey:                  envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:           envString("POLAR_WEBHOOK_SECRET", ""),
		PolarSandboxMode:             envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		PolarProductIDPremiumMonthly: envString("POLAR_PRODUCT_ID_PREMIUM_MONTHLY", ""),
		PolarProductIDPremiumYearly:  envString("POLAR_PRODUCT_ID_PREMIUM_YEARLY", ""),
		StripeSecretKey:              envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:          envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDPremiumMonthly:  envString("STRIPE_PRICE_ID_PREMIUM_MONTHLY", ""),
		StripePriceIDPremiumYearly:   envString("STRIPE_PRICE_ID_PREMIUM_YEARLY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production
// deployments. Development allows some services (like email) to use fallback
// modes for easier local testing.
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

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		EmailFrom: c.EmailFrom,

		GoogleClientID: c.GoogleClientID,
		GitHubClientID: c.GitHubClientID,

		ChatModel:         c.ChatModel,
		FreeDailyMessages: c.FreeDailyMessages,
	}
}
