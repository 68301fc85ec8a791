package catalog

import "github.com/foodpick-ng/backend/internal/pricing"

// MenuItem is a menu entry with its customization options. The storefront
// only ever reads it; admin endpoints create, edit and delete entries.
type MenuItem struct {
	ID          string            `json:"id"`
	Category    string            `json:"category" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	BasePrice   pricing.Money     `json:"basePrice" validate:"gte=0"`
	ImageURL    string            `json:"imageUrl"`
	Tags        []string          `json:"tags"`
	Rating      float64           `json:"rating" validate:"gte=0,lte=5"`
	Variants    []pricing.Variant `json:"variants" validate:"dive"`
	AddOns      []pricing.AddOn   `json:"addOns" validate:"dive"`
	Available   bool              `json:"available"`
}

// Spec returns the pricing-relevant view of the item.
func (m MenuItem) Spec() pricing.ItemSpec {
	return pricing.ItemSpec{
		BasePrice: m.BasePrice,
		Variants:  m.Variants,
		AddOns:    m.AddOns,
	}
}
