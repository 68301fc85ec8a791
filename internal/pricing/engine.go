// Package pricing implements the order pricing rules: unit price of a
// customized menu item, cart subtotal, delivery fee by zone, and coupon
// discounts. All functions are pure and operate on integer minor units so
// totals never drift the way the storefront's floating-point arithmetic
// could.
package pricing

import "errors"

// Money represents a monetary value stored in minor units.
type Money = int64

// Mode selects how unknown variants, add-ons and zones are handled.
type Mode int

const (
	// Strict fails with a typed error on any unknown name.
	Strict Mode = iota
	// Lenient reproduces the storefront behaviour: unknown variants
	// contribute zero delta, unknown add-ons are skipped, unknown zones fall
	// back to the configured default.
	Lenient
)

var (
	// ErrUnknownVariant is returned in strict mode for a variant name the item does not declare.
	ErrUnknownVariant = errors.New("pricing: unknown variant")
	// ErrUnknownAddOn is returned in strict mode for an add-on name the item does not declare.
	ErrUnknownAddOn = errors.New("pricing: unknown add-on")
	// ErrDuplicateAddOn is returned when the same add-on is selected twice.
	ErrDuplicateAddOn = errors.New("pricing: duplicate add-on")
	// ErrUnknownZone is returned in strict mode for a zone code outside the configured set.
	ErrUnknownZone = errors.New("pricing: unknown delivery zone")
	// ErrMinAmountNotMet indicates the subtotal is below the coupon's minimum order amount.
	ErrMinAmountNotMet = errors.New("pricing: minimum order amount not met")
)

// Variant is a named size/style option carrying a price adjustment relative
// to the base price. The delta may be negative.
type Variant struct {
	Name       string `json:"name"`
	PriceDelta Money  `json:"priceDelta"`
}

// AddOn is an optional named extra with its own flat price.
type AddOn struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// ItemSpec is the pricing-relevant view of a menu item.
type ItemSpec struct {
	BasePrice Money
	Variants  []Variant
	AddOns    []AddOn
}

// Line is a priced cart line used for subtotal aggregation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// UnitPrice computes the price of one unit of item with the chosen variant
// and add-ons. An empty variantName selects no variant. The result is floored
// at zero so a negative variant delta can never produce a negative price.
func UnitPrice(item ItemSpec, variantName string, addOnNames []string, mode Mode) (Money, error) {
	price := item.BasePrice

	if variantName != "" {
		found := false
		for _, v := range item.Variants {
			if v.Name == variantName {
				price += v.PriceDelta
				found = true
				break
			}
		}
		if !found && mode == Strict {
			return 0, ErrUnknownVariant
		}
	}

	seen := make(map[string]struct{}, len(addOnNames))
	for _, name := range addOnNames {
		if _, dup := seen[name]; dup {
			return 0, ErrDuplicateAddOn
		}
		seen[name] = struct{}{}
		found := false
		for _, a := range item.AddOns {
			if a.Name == name {
				price += a.Price
				found = true
				break
			}
		}
		if !found && mode == Strict {
			return 0, ErrUnknownAddOn
		}
	}

	if price < 0 {
		price = 0
	}
	return price, nil
}

// Subtotal sums unitPrice*qty over lines. Lines with non-positive quantity
// are ignored. The result does not depend on line order.
func Subtotal(lines []Line) Money {
	var subtotal Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += Money(l.Qty) * l.UnitPrice
	}
	return subtotal
}

// Discount kinds.
const (
	KindPercent = "percent"
	KindFlat    = "flat"
)

// Discount captures the arithmetic part of a coupon: its kind, value and
// minimum order amount. Eligibility windows and usage limits are enforced one
// layer up.
type Discount struct {
	Kind      string
	Value     Money
	MinAmount Money
}

// ApplyCoupon returns the discounted subtotal. Below the minimum amount the
// subtotal is returned unchanged alongside ErrMinAmountNotMet. The result is
// floored at zero.
func ApplyCoupon(subtotal Money, d Discount) (Money, error) {
	if subtotal < d.MinAmount {
		return subtotal, ErrMinAmountNotMet
	}
	discount := d.Value
	if d.Kind == KindPercent {
		discount = subtotal * d.Value / 100
	}
	if discount < 0 {
		discount = 0
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return total, nil
}
