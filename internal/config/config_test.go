package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":   "redis://localhost:6379/0",
		"ADMIN_TOKEN": "secret",
		// force defaults for everything else
		"PORT":                    "",
		"PRICING_STRICT":          "",
		"DELIVERY_FREE_THRESHOLD": "",
		"DELIVERY_DEFAULT_ZONE":   "",
		"COUPON_ENFORCE_LIMITS":   "",
		"ORDERS_FORWARD_ONLY":     "",
		"CART_TTL":                "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.True(t, cfg.PricingStrict)
	require.Equal(t, int64(20000), cfg.FreeDeliveryThreshold)
	require.Equal(t, "A", cfg.DefaultZone)
	require.True(t, cfg.CouponEnforceLimits)
	require.False(t, cfg.OrdersForwardOnly)
	require.Equal(t, 7*24*time.Hour, cfg.CartTTL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":               "redis://localhost:6379/0",
		"ADMIN_TOKEN":             "secret",
		"PORT":                    "9090",
		"PRICING_STRICT":          "false",
		"DELIVERY_FREE_THRESHOLD": "15000",
		"DELIVERY_DEFAULT_ZONE":   "b",
		"ORDERS_FORWARD_ONLY":     "true",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.False(t, cfg.PricingStrict)
	require.Equal(t, int64(15000), cfg.FreeDeliveryThreshold)
	require.Equal(t, "B", cfg.DefaultZone)
	require.True(t, cfg.OrdersForwardOnly)
}

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":   "",
		"ADMIN_TOKEN": "secret",
	})
	require.Error(t, err)
}

func TestLoadRequiresAdminToken(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":   "redis://localhost:6379/0",
		"ADMIN_TOKEN": "",
	})
	require.Error(t, err)
}
