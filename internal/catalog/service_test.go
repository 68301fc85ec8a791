package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return catalog.NewService(store.New(client, time.Second))
}

func TestSeedOnce(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	seeded, err := svc.Seed(ctx, time.Now())
	require.NoError(t, err)
	require.True(t, seeded)

	menu, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 6)

	// second run is a no-op thanks to the meta version guard
	seeded, err = svc.Seed(ctx, time.Now())
	require.NoError(t, err)
	require.False(t, seeded)
}

func TestUpsertAssignsIDAndPersists(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, catalog.MenuItem{
		Category:  "Rice & Bowls",
		Name:      "Ofada Special",
		BasePrice: 2500,
		Available: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	found, err := svc.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Ofada Special", found.Name)
}

func TestUpsertRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	_, err := svc.Upsert(context.Background(), catalog.MenuItem{
		Category:  "Rice & Bowls",
		Name:      "Broken",
		BasePrice: -100,
	})
	require.ErrorIs(t, err, catalog.ErrInvalidItem)
}

func TestUpsertRejectsVariantBelowZero(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	_, err := svc.Upsert(context.Background(), catalog.MenuItem{
		Category:  "Drinks & Smoothies",
		Name:      "Tiny Drink",
		BasePrice: 300,
		Variants:  []pricing.Variant{{Name: "Mini", PriceDelta: -500}},
	})
	require.ErrorIs(t, err, catalog.ErrInvalidItem)
}

func TestListAvailableFilters(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, catalog.MenuItem{Category: "Grills & Suya", Name: "Visible", BasePrice: 1000, Available: true})
	require.NoError(t, err)
	hidden, err := svc.Upsert(ctx, catalog.MenuItem{Category: "Grills & Suya", Name: "Hidden", BasePrice: 1000, Available: false})
	require.NoError(t, err)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, "Visible", available[0].Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.Remove(ctx, hidden.ID))
	require.ErrorIs(t, svc.Remove(ctx, hidden.ID), catalog.ErrNotFound)
}

func TestCategoriesDistinctSorted(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Seed(ctx, time.Now())
	require.NoError(t, err)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Drinks & Smoothies",
		"Grills & Suya",
		"Rice & Bowls",
		"Shawarma & Wraps",
		"Soups & Swallow",
	}, categories)
}
