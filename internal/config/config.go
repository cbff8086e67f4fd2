package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	// Server configuration
	Port     string
	Mode     string
	LogLevel string

	// Database configuration
	DatabaseURL          string
	SecondaryDatabaseURL string

	// Redis configuration
	RedisURL string

	// M-Pesa gateway adapter
	GatewayURL     string
	GatewayTimeout time.Duration
	CallbackSecret string

	// Reconciliation poller
	PollInterval    time.Duration
	PollMaxAttempts int
	DeliveryStagger time.Duration
	DismissDelay    time.Duration

	// Abuse protection
	CheckoutRateLimitSeconds int
	CallbackReplayTTL        time.Duration

	// Admin capability (static shared password)
	AdminPassword string

	// Completion notifications
	PaymentWebhookURL    string
	PaymentWebhookSecret string
	BrevoAPIKey          string
	BrevoFromEmail       string
	BrevoFromName        string
	SaleNotifyEmail      string

	ServiceName string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = Load(os.Getenv)
	return nil
}

// Load builds a Config from the given lookup function.
func Load(lookup func(string) string) *Config {
	env := envReader{lookup: lookup}

	return &Config{
		Port:                     env.str("PORT", "8080"),
		Mode:                     env.str("GIN_MODE", "debug"),
		LogLevel:                 env.str("LOG_LEVEL", "info"),
		DatabaseURL:              env.str("DATABASE_URL", ""),
		SecondaryDatabaseURL:     env.str("SECONDARY_DATABASE_URL", ""),
		RedisURL:                 env.str("REDIS_URL", "redis://localhost:6379/0"),
		GatewayURL:               env.str("MPESA_GATEWAY_URL", ""),
		GatewayTimeout:           env.duration("GATEWAY_TIMEOUT", 20*time.Second),
		CallbackSecret:           env.str("CALLBACK_SECRET", ""),
		PollInterval:             env.duration("POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts:          env.int("POLL_MAX_ATTEMPTS", 30),
		DeliveryStagger:          env.duration("DELIVERY_STAGGER", 500*time.Millisecond),
		DismissDelay:             env.duration("DISMISS_DELAY", 3*time.Second),
		CheckoutRateLimitSeconds: env.int("CHECKOUT_RATE_LIMIT_SECONDS", 30),
		CallbackReplayTTL:        env.duration("CALLBACK_REPLAY_TTL", 24*time.Hour),
		AdminPassword:            env.str("ADMIN_PASSWORD", ""),
		PaymentWebhookURL:        env.str("PAYMENT_WEBHOOK_URL", ""),
		PaymentWebhookSecret:     env.str("PAYMENT_WEBHOOK_SECRET", ""),
		BrevoAPIKey:              env.str("BREVO_API_KEY", ""),
		BrevoFromEmail:           env.str("BREVO_FROM_EMAIL", ""),
		BrevoFromName:            env.str("BREVO_FROM_NAME", "Project Store"),
		SaleNotifyEmail:          env.str("SALE_NOTIFY_EMAIL", ""),
		ServiceName:              env.str("SERVICE_NAME", "Project Store"),
	}
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Mode == "release"
}

type envReader struct {
	lookup func(string) string
}

func (e envReader) str(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) int(key string, defaultValue int) int {
	if value := e.lookup(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// duration accepts Go duration strings ("2s", "500ms"); a bare number is read as seconds.
func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := cast.ToIntE(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := cast.ToDurationE(value); err == nil {
		return d
	}
	return defaultValue
}
