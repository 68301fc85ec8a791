package coupon

import (
	"time"

	"github.com/foodpick-ng/backend/internal/pricing"
)

// Type discriminates how a coupon's value is interpreted.
type Type string

const (
	TypePercent Type = "percent"
	TypeFlat    Type = "flat"
)

// Coupon is one discount rule. Codes are unique case-insensitively; lookups
// normalize before comparing.
type Coupon struct {
	ID          string        `json:"id"`
	Code        string        `json:"code" validate:"required"`
	Type        Type          `json:"type" validate:"required,oneof=percent flat"`
	Value       int64         `json:"value" validate:"gt=0"`
	MinAmount   pricing.Money `json:"minAmount" validate:"gte=0"`
	Expiry      time.Time     `json:"expiry"`
	UsageLimit  int           `json:"usageLimit" validate:"gte=0"`
	UsedCount   int           `json:"usedCount"`
	Active      bool          `json:"active"`
	Description string        `json:"description"`
}

// Discount converts the coupon into the pricing engine's rule shape.
func (c Coupon) Discount() pricing.Discount {
	kind := pricing.KindFlat
	if c.Type == TypePercent {
		kind = pricing.KindPercent
	}
	return pricing.Discount{Kind: kind, Value: c.Value, MinAmount: c.MinAmount}
}

// Expired reports whether the coupon is past its expiry at the given instant.
// A zero expiry never expires.
func (c Coupon) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

// Exhausted reports whether the usage limit has been reached. A zero limit is
// unlimited.
func (c Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}
