package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string
	AdminToken         string

	// Strict mode rejects unknown variants, add-ons and zones; lenient mode
	// reproduces the storefront's silent fallbacks.
	PricingStrict         bool
	FreeDeliveryThreshold int64
	DefaultZone           string

	// CouponEnforceLimits controls whether active/expiry/usage-limit fields
	// gate coupon application in addition to the minimum order amount.
	CouponEnforceLimits bool

	// OrdersForwardOnly restricts status updates to the
	// received -> preparing -> on-the-way -> delivered chain.
	OrdersForwardOnly bool

	CartTTL           time.Duration
	AnalyticsCacheTTL time.Duration
	IdempotencyTTL    time.Duration
	LockTTL           time.Duration

	RateLimitPerMinute int
	MaxBodyBytes       int64

	WebhookURL    string
	WebhookSecret string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                  valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:              k.String("REDIS_URL"),
		CORSAllowedOrigins:    splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AdminToken:            k.String("ADMIN_TOKEN"),
		PricingStrict:         parseBoolDefault(k.String("PRICING_STRICT"), true),
		FreeDeliveryThreshold: parseInt64(k.String("DELIVERY_FREE_THRESHOLD"), 20000),
		DefaultZone:           valueOrDefault(strings.ToUpper(strings.TrimSpace(k.String("DELIVERY_DEFAULT_ZONE"))), "A"),
		CouponEnforceLimits:   parseBoolDefault(k.String("COUPON_ENFORCE_LIMITS"), true),
		OrdersForwardOnly:     parseBoolDefault(k.String("ORDERS_FORWARD_ONLY"), false),
		CartTTL:               parseDuration(k.String("CART_TTL"), "168h"),
		AnalyticsCacheTTL:     parseDuration(k.String("ANALYTICS_CACHE_TTL"), "60s"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:               parseDuration(k.String("STORE_LOCK_TTL"), "10s"),
		RateLimitPerMinute:    int(parseInt64(k.String("RATE_LIMIT_PER_MINUTE"), 120)),
		MaxBodyBytes:          parseInt64(k.String("MAX_BODY_BYTES"), 1<<20),
		WebhookURL:            strings.TrimSpace(k.String("WEBHOOK_URL")),
		WebhookSecret:         k.String("WEBHOOK_SECRET"),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AdminToken == "" {
		return nil, errors.New("ADMIN_TOKEN is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int64
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
