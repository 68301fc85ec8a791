package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

var seedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *coupon.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := coupon.NewService(store.New(client, time.Second), true)
	svc.Now = func() time.Time { return seedTime }
	return svc
}

func seeded(t *testing.T) *coupon.Service {
	t.Helper()
	svc := newService(t)
	did, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, did)
	return svc
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	did, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.False(t, did)

	coupons, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 3)
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	c, err := svc.FindByCode(context.Background(), "  lunch50 ")
	require.NoError(t, err)
	require.Equal(t, "LUNCH50", c.Code)

	_, err = svc.FindByCode(context.Background(), "NOPE")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestEvaluateMinAmountBoundary(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	ctx := context.Background()

	// flat 500 off, minAmount 4000
	_, err := svc.Evaluate(ctx, "LUNCH50", 3999)
	require.ErrorIs(t, err, pricing.ErrMinAmountNotMet)

	applied, err := svc.Evaluate(ctx, "LUNCH50", 4000)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(500), applied.Discount)
}

func TestEvaluatePercent(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	applied, err := svc.Evaluate(context.Background(), "WELCOME10", 10000)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(1000), applied.Discount)
}

func TestEvaluateGates(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	ctx := context.Background()

	c, err := svc.FindByCode(ctx, "LUNCH50")
	require.NoError(t, err)

	c.Active = false
	_, err = svc.Upsert(ctx, c)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, "LUNCH50", 5000)
	require.ErrorIs(t, err, coupon.ErrInactive)

	c.Active = true
	c.Expiry = seedTime.Add(-time.Hour)
	_, err = svc.Upsert(ctx, c)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, "LUNCH50", 5000)
	require.ErrorIs(t, err, coupon.ErrExpired)

	c.Expiry = seedTime.Add(time.Hour)
	c.UsageLimit = 2
	c.UsedCount = 2
	_, err = svc.Upsert(ctx, c)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, "LUNCH50", 5000)
	require.ErrorIs(t, err, coupon.ErrUsageLimitReached)
}

func TestEvaluateLenientSkipsGatesButNotMinAmount(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	svc.EnforceLimits = false
	ctx := context.Background()

	c, err := svc.FindByCode(ctx, "LUNCH50")
	require.NoError(t, err)
	c.Active = false
	c.Expiry = seedTime.Add(-time.Hour)
	_, err = svc.Upsert(ctx, c)
	require.NoError(t, err)

	applied, err := svc.Evaluate(ctx, "LUNCH50", 5000)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(500), applied.Discount)

	_, err = svc.Evaluate(ctx, "LUNCH50", 3999)
	require.ErrorIs(t, err, pricing.ErrMinAmountNotMet)
}

func TestUpsertRejectsDuplicateCode(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	_, err := svc.Upsert(context.Background(), coupon.Coupon{
		Code:      "welcome10",
		Type:      coupon.TypeFlat,
		Value:     100,
		MinAmount: 0,
		Active:    true,
	})
	require.ErrorIs(t, err, coupon.ErrDuplicateCode)
}

func TestUpsertValidates(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	_, err := svc.Upsert(context.Background(), coupon.Coupon{
		Code:  "BROKEN",
		Type:  "half-price",
		Value: 10,
	})
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestIncrementUsage(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	ctx := context.Background()

	require.NoError(t, svc.IncrementUsage(ctx, "welcome10"))
	c, err := svc.FindByCode(ctx, "WELCOME10")
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedCount)

	// unknown codes are ignored
	require.NoError(t, svc.IncrementUsage(ctx, "GONE"))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	svc := seeded(t)
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, "2"))
	_, err := svc.FindByCode(ctx, "LUNCH50")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	require.ErrorIs(t, svc.Remove(ctx, "2"), coupon.ErrNotFound)
}
