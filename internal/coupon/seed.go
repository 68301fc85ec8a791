package coupon

import (
	"context"
	"time"

	"github.com/foodpick-ng/backend/internal/store"
)

// DemoCoupons returns the coupons the storefront ships with.
func DemoCoupons() []Coupon {
	return []Coupon{
		{
			ID:          "1",
			Code:        "WELCOME10",
			Type:        TypePercent,
			Value:       10,
			MinAmount:   2000,
			Expiry:      time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			UsageLimit:  1,
			Active:      true,
			Description: "10% off for new customers",
		},
		{
			ID:          "2",
			Code:        "LUNCH50",
			Type:        TypeFlat,
			Value:       500,
			MinAmount:   4000,
			Expiry:      time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			UsageLimit:  5,
			Active:      true,
			Description: "₦500 off orders above ₦4,000",
		},
		{
			ID:          "3",
			Code:        "FREESHIP20K",
			Type:        TypeFlat,
			Value:       1200,
			MinAmount:   20000,
			Expiry:      time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			UsageLimit:  10,
			Active:      true,
			Description: "Free delivery on orders ≥ ₦20,000",
		},
	}
}

// Seed writes the demo coupons when the collection is empty. It reports
// whether seeding happened.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.Store.WithLock(ctx, store.KeyCoupons, func(ctx context.Context) error {
		coupons, err := s.load(ctx)
		if err != nil {
			return err
		}
		if len(coupons) > 0 {
			return nil
		}
		seeded = true
		return s.Store.Save(ctx, store.KeyCoupons, DemoCoupons(), 0)
	})
	return seeded, err
}
