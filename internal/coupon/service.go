package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodpick-ng/backend/internal/obs"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

var (
	// ErrNotFound indicates no coupon carries the requested code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned for coupons an admin has switched off.
	ErrInactive = errors.New("coupon is inactive")
	// ErrExpired is returned for coupons past their expiry date.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitReached is returned once usedCount hits the usage limit.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrInvalidCoupon is returned when an upserted coupon fails validation.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrDuplicateCode is returned when an upsert would reuse another
	// coupon's code.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Applied is the outcome of evaluating a coupon against a subtotal.
type Applied struct {
	Coupon   Coupon        `json:"coupon"`
	Discount pricing.Money `json:"discount"`
}

// Service encapsulates coupon rules evaluation and management. Enforcement of
// active/expiry/usage-limit gates is configurable; the minAmount gate always
// applies.
type Service struct {
	Store         *store.Store
	Validate      *validator.Validate
	NewID         func() string
	Now           func() time.Time
	EnforceLimits bool
}

// NewService constructs a coupon service with default dependencies.
func NewService(s *store.Store, enforceLimits bool) *Service {
	return &Service{
		Store:         s,
		Validate:      validator.New(),
		NewID:         uuid.NewString,
		Now:           time.Now,
		EnforceLimits: enforceLimits,
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) load(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	if _, err := s.Store.Load(ctx, store.KeyCoupons, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

// List returns all coupons, including inactive ones, for the admin view.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.load(ctx)
}

// ListActive returns the customer-facing coupon list.
func (s *Service) ListActive(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Coupon, 0, len(coupons))
	for _, c := range coupons {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

// FindByCode locates a coupon by code, case-insensitively.
func (s *Service) FindByCode(ctx context.Context, code string) (Coupon, error) {
	coupons, err := s.List(ctx)
	if err != nil {
		return Coupon{}, err
	}
	normalized := normalizeCode(code)
	for _, c := range coupons {
		if normalizeCode(c.Code) == normalized {
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

// Evaluate resolves a code and computes its discount for the given subtotal
// without mutating state. Below minAmount it fails with
// pricing.ErrMinAmountNotMet.
func (s *Service) Evaluate(ctx context.Context, code string, subtotal pricing.Money) (Applied, error) {
	if s == nil || s.Store == nil {
		return Applied{}, errors.New("coupon service not configured")
	}
	c, err := s.FindByCode(ctx, code)
	if err != nil {
		recordRejection("not_found")
		return Applied{}, err
	}
	if s.EnforceLimits {
		if !c.Active {
			recordRejection("inactive")
			return Applied{}, ErrInactive
		}
		if c.Expired(s.now()) {
			recordRejection("expired")
			return Applied{}, ErrExpired
		}
		if c.Exhausted() {
			recordRejection("usage_limit")
			return Applied{}, ErrUsageLimitReached
		}
	}
	total, err := pricing.ApplyCoupon(subtotal, c.Discount())
	if err != nil {
		if errors.Is(err, pricing.ErrMinAmountNotMet) {
			recordRejection("min_amount")
		}
		return Applied{}, err
	}
	return Applied{Coupon: c, Discount: subtotal - total}, nil
}

func recordRejection(reason string) {
	if obs.CouponRejectionsTotal != nil {
		obs.CouponRejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// Upsert validates and persists a coupon, assigning an id to new entries.
// Codes stay unique case-insensitively across the collection.
func (s *Service) Upsert(ctx context.Context, c Coupon) (Coupon, error) {
	if s == nil || s.Store == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if s.Validate != nil {
		if err := s.Validate.Struct(c); err != nil {
			return Coupon{}, fmt.Errorf("%w: %v", ErrInvalidCoupon, err)
		}
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	err := s.Store.WithLock(ctx, store.KeyCoupons, func(ctx context.Context) error {
		coupons, err := s.load(ctx)
		if err != nil {
			return err
		}
		replaced := false
		for i := range coupons {
			if coupons[i].ID == c.ID {
				coupons[i] = c
				replaced = true
				continue
			}
			if normalizeCode(coupons[i].Code) == normalizeCode(c.Code) {
				return ErrDuplicateCode
			}
		}
		if !replaced {
			coupons = append(coupons, c)
		}
		return s.Store.Save(ctx, store.KeyCoupons, coupons, 0)
	})
	if err != nil {
		return Coupon{}, err
	}
	return c, nil
}

// Remove deletes a coupon by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	return s.Store.WithLock(ctx, store.KeyCoupons, func(ctx context.Context) error {
		coupons, err := s.load(ctx)
		if err != nil {
			return err
		}
		kept := coupons[:0]
		found := false
		for _, c := range coupons {
			if c.ID == id {
				found = true
				continue
			}
			kept = append(kept, c)
		}
		if !found {
			return ErrNotFound
		}
		return s.Store.Save(ctx, store.KeyCoupons, kept, 0)
	})
}

// IncrementUsage bumps a coupon's usedCount after an order settles with it.
// A vanished code is ignored so settlement never fails on coupon drift.
func (s *Service) IncrementUsage(ctx context.Context, code string) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	normalized := normalizeCode(code)
	return s.Store.WithLock(ctx, store.KeyCoupons, func(ctx context.Context) error {
		coupons, err := s.load(ctx)
		if err != nil {
			return err
		}
		for i := range coupons {
			if normalizeCode(coupons[i].Code) == normalized {
				coupons[i].UsedCount++
				return s.Store.Save(ctx, store.KeyCoupons, coupons, 0)
			}
		}
		return nil
	})
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
