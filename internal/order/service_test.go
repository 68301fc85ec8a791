package order_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/address"
	"github.com/foodpick-ng/backend/internal/cart"
	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/order"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

var placedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *store.Store
	cart      *cart.Service
	addresses *address.Service
	coupons   *coupon.Service
	orders    *order.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.New(client, time.Second)

	coupons := coupon.NewService(s, true)
	coupons.Now = func() time.Time { return placedAt }

	cartSvc := &cart.Service{Store: s, Mode: pricing.Strict}
	addrSvc := address.NewService(s, "A")

	orders := &order.Service{
		Store:         s,
		Cart:          cartSvc,
		Addresses:     addrSvc,
		Coupons:       coupons,
		Zones:         pricing.DefaultZones(),
		Mode:          pricing.Strict,
		FreeThreshold: pricing.FreeDeliveryThreshold,
		DefaultZone:   "A",
		Now:           func() time.Time { return placedAt },
	}
	return &fixture{store: s, cart: cartSvc, addresses: addrSvc, coupons: coupons, orders: orders}
}

func jollof() catalog.MenuItem {
	return catalog.MenuItem{
		ID:        "1",
		Category:  "Rice & Bowls",
		Name:      "Jollof Supreme",
		BasePrice: 3500,
		Variants: []pricing.Variant{
			{Name: "Regular", PriceDelta: 0},
			{Name: "Large", PriceDelta: 800},
		},
		AddOns: []pricing.AddOn{
			{Name: "Extra Chicken", Price: 800},
		},
		Available: true,
	}
}

func (f *fixture) selectAddress(t *testing.T, sid, area string) {
	t.Helper()
	saved, err := f.addresses.Upsert(context.Background(), address.Address{
		Label:  "Home",
		Street: "12 Refinery Close",
		Area:   area,
		Phone:  "08030000001",
	})
	require.NoError(t, err)
	_, err = f.addresses.Select(context.Background(), sid, saved.ID)
	require.NoError(t, err)
}

func (f *fixture) fillCart(t *testing.T, sid string, adds int) {
	t.Helper()
	for i := 0; i < adds; i++ {
		_, err := f.cart.Add(context.Background(), sid, jollof(), "Large", []string{"Extra Chicken"})
		require.NoError(t, err)
	}
}

func TestPlaceEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")

	_, err := f.orders.Place(ctx, "sid", "")
	require.ErrorIs(t, err, order.ErrEmptyCart)

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceWithoutAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fillCart(t, "sid", 1)

	_, err := f.orders.Place(context.Background(), "sid", "")
	require.ErrorIs(t, err, order.ErrNoAddress)
}

func TestPlaceEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 2)

	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)

	// base 3500 + Large 800 + Extra Chicken 800 = 5100, qty 2
	require.Equal(t, pricing.Money(10200), o.Subtotal)
	require.Equal(t, pricing.Money(500), o.DeliveryFee)
	require.Equal(t, pricing.Money(10700), o.Total)
	require.Equal(t, order.StatusReceived, o.Status)
	require.Equal(t, placedAt, o.CreatedAt)
	require.Equal(t, "Enerhen", o.Address.Area)
	require.Len(t, o.Lines, 1)
	require.Equal(t, 2, o.Lines[0].Quantity)

	// cart and selected address cleared in the same commit
	snap, err := f.cart.Get(ctx, "sid")
	require.NoError(t, err)
	require.Empty(t, snap.Lines)
	_, err = f.addresses.Selected(ctx, "sid")
	require.ErrorIs(t, err, address.ErrNoneSelected)
}

func TestPlaceCapturesConcurrentCartAdd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 1)

	// Sneak a second unit in mid-placement, before the locks are taken. The
	// cart must be read under the locks, so the late addition either lands in
	// the order or stays in the cart — it must never vanish.
	f.orders.NewID = func() string {
		f.fillCart(t, "sid", 1)
		return "order-1"
	}

	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	require.Equal(t, 2, o.Lines[0].Quantity)
	require.Equal(t, pricing.Money(10200), o.Subtotal)

	snap, err := f.cart.Get(ctx, "sid")
	require.NoError(t, err)
	require.Empty(t, snap.Lines)
}

func TestPlaceFreeDeliveryAtThreshold(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Jakpa") // zone C, fee 1200
	f.fillCart(t, "sid", 4)            // 4 × 5100 = 20400 ≥ 20000

	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(20400), o.Subtotal)
	require.Zero(t, o.DeliveryFee)
	require.Equal(t, pricing.Money(20400), o.Total)
}

func TestPlaceWithCoupon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coupons.Seed(ctx)
	require.NoError(t, err)
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 2)

	o, err := f.orders.Place(ctx, "sid", "welcome10")
	require.NoError(t, err)
	require.Equal(t, "WELCOME10", o.CouponCode)
	require.Equal(t, pricing.Money(1020), o.Discount)
	require.Equal(t, pricing.Money(10200-1020+500), o.Total)

	c, err := f.coupons.FindByCode(ctx, "WELCOME10")
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedCount)
}

func TestPlaceCouponBelowMinimumFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coupons.Seed(ctx)
	require.NoError(t, err)
	f.selectAddress(t, "sid", "Enerhen")
	_, err = f.cart.Add(ctx, "sid", jollof(), "Regular", nil) // 3500 < 4000

	require.NoError(t, err)
	_, err = f.orders.Place(ctx, "sid", "LUNCH50")
	require.ErrorIs(t, err, pricing.ErrMinAmountNotMet)

	// cart survives a failed placement
	snap, err := f.cart.Get(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 1)
	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)

	updated, err := f.orders.UpdateStatus(ctx, o.ID, order.StatusPreparing)
	require.NoError(t, err)
	require.Equal(t, order.StatusPreparing, updated.Status)

	_, err = f.orders.UpdateStatus(ctx, "missing", order.StatusPreparing)
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = f.orders.UpdateStatus(ctx, o.ID, "archived")
	require.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.orders.ForwardOnly = true
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 1)
	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, o.ID, order.StatusOnTheWay)
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, o.ID, order.StatusReceived)
	require.ErrorIs(t, err, order.ErrTransitionNotAllowed)

	// re-applying the current status stays allowed
	_, err = f.orders.UpdateStatus(ctx, o.ID, order.StatusOnTheWay)
	require.NoError(t, err)
}

func TestMarkAllDeliveredIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for _, sid := range []string{"sid-a", "sid-b"} {
		f.selectAddress(t, sid, "Enerhen")
		f.fillCart(t, sid, 1)
		_, err := f.orders.Place(ctx, sid, "")
		require.NoError(t, err)
	}

	changed, err := f.orders.MarkAllDelivered(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, changed)

	changed, err = f.orders.MarkAllDelivered(ctx)
	require.NoError(t, err)
	require.Zero(t, changed)

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	for _, o := range orders {
		require.Equal(t, order.StatusDelivered, o.Status)
	}
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.selectAddress(t, "sid", "Enerhen")
	f.fillCart(t, "sid", 2)
	o, err := f.orders.Place(ctx, "sid", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.orders.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Order ID,Date,Total,Status,Items,Area", lines[0])
	require.Equal(t, o.ID+",2024-06-01T12:00:00Z,10700,received,1,Enerhen", lines[1])
}
