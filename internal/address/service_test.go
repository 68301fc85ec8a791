package address_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/address"
	"github.com/foodpick-ng/backend/internal/store"
)

func newService(t *testing.T) *address.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return address.NewService(store.New(client, time.Second), "A")
}

func home() address.Address {
	return address.Address{
		Label:  "Home",
		Street: "12 Refinery Close",
		Area:   "Ekpan",
		Phone:  "08030000001",
	}
}

func TestUpsertInfersZoneFromArea(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	saved, err := svc.Upsert(context.Background(), home())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, "C", saved.Zone)
}

func TestUpsertKeepsExplicitZone(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	a := home()
	a.Zone = "B"
	saved, err := svc.Upsert(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, "B", saved.Zone)
}

func TestUpsertUnknownAreaFallsBackToDefaultZone(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	a := home()
	a.Area = "Nowhere Estate"
	saved, err := svc.Upsert(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, "A", saved.Zone)
}

func TestUpsertValidates(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	_, err := svc.Upsert(context.Background(), address.Address{Label: "Home"})
	require.ErrorIs(t, err, address.ErrInvalidAddress)
}

func TestDefaultIsExclusive(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	first := home()
	first.IsDefault = true
	saved1, err := svc.Upsert(ctx, first)
	require.NoError(t, err)

	second := home()
	second.Label = "Office"
	second.Area = "Effurun"
	second.IsDefault = true
	_, err = svc.Upsert(ctx, second)
	require.NoError(t, err)

	got, err := svc.FindByID(ctx, saved1.ID)
	require.NoError(t, err)
	require.False(t, got.IsDefault)

	addresses, err := svc.List(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
		}
	}
	require.Equal(t, 1, defaults)
}

func TestSelectSnapshotsAddress(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, home())
	require.NoError(t, err)

	_, err = svc.Select(ctx, "sid", saved.ID)
	require.NoError(t, err)

	// edit after selection: the snapshot keeps the original street
	saved.Street = "99 New Road"
	_, err = svc.Upsert(ctx, saved)
	require.NoError(t, err)

	selected, err := svc.Selected(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, "12 Refinery Close", selected.Street)
}

func TestSelectedWithoutSelection(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	_, err := svc.Selected(context.Background(), "sid")
	require.ErrorIs(t, err, address.ErrNoneSelected)
}

func TestSelectUnknownAddress(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	_, err := svc.Select(context.Background(), "sid", "missing")
	require.ErrorIs(t, err, address.ErrNotFound)
}

func TestClearSelection(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, home())
	require.NoError(t, err)
	_, err = svc.Select(ctx, "sid", saved.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ClearSelection(ctx, "sid"))
	_, err = svc.Selected(ctx, "sid")
	require.ErrorIs(t, err, address.ErrNoneSelected)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, home())
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, saved.ID))
	require.ErrorIs(t, svc.Remove(ctx, saved.ID), address.ErrNotFound)
}
