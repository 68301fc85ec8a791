// Package admin holds maintenance operations for the admin dashboard that
// span multiple collections.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/common"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/store"
)

// Maintenance resets the demo dataset: every storefront collection is
// dropped, including session-scoped carts and address selections, and the
// demo menu and coupons are reseeded.
type Maintenance struct {
	Store   *store.Store
	Catalog *catalog.Service
	Coupons *coupon.Service
	Now     func() time.Time
}

func (m *Maintenance) now() time.Time {
	if m != nil && m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Reset drops all collections and reseeds demo data.
func (m *Maintenance) Reset(ctx context.Context) error {
	if m == nil || m.Store == nil || m.Store.R == nil {
		return errors.New("admin: maintenance not configured")
	}
	keys := []string{store.KeyMenu, store.KeyCoupons, store.KeyOrders, store.KeyAddresses, store.KeyMeta}
	for _, pattern := range []string{store.CartKey("*"), store.SelectedAddressKey("*")} {
		iter := m.Store.R.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("admin: scan %s: %w", pattern, err)
		}
	}
	for _, key := range keys {
		if err := m.Store.Delete(ctx, key); err != nil {
			return err
		}
	}
	if m.Catalog != nil {
		if _, err := m.Catalog.Seed(ctx, m.now()); err != nil {
			return err
		}
	}
	if m.Coupons != nil {
		if _, err := m.Coupons.Seed(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes maintenance endpoints.
type Handler struct {
	Maintenance *Maintenance
}

// Reset handles POST /api/v1/admin/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Maintenance.Reset(r.Context()); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "reset failed", nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"reset": true})
}
