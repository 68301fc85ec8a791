package catalog

import (
	"context"
	"time"

	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

// seedMenuVersion guards re-seeding: the demo menu is written only when the
// stored version is older.
const seedMenuVersion = 1

// DemoMenu returns the menu the storefront ships with.
func DemoMenu() []MenuItem {
	return []MenuItem{
		{
			ID:          "1",
			Category:    "Rice & Bowls",
			Name:        "Jollof Supreme",
			Description: "Premium jollof rice with grilled chicken, plantain, and coleslaw",
			BasePrice:   3500,
			ImageURL:    "https://images.pexels.com/photos/8828574/pexels-photo-8828574.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"popular", "spicy"},
			Rating:      4.8,
			Variants: []pricing.Variant{
				{Name: "Regular", PriceDelta: 0},
				{Name: "Large", PriceDelta: 800},
			},
			AddOns: []pricing.AddOn{
				{Name: "Extra Chicken", Price: 800},
				{Name: "Extra Plantain", Price: 500},
				{Name: "Sausage", Price: 400},
			},
			Available: true,
		},
		{
			ID:          "2",
			Category:    "Rice & Bowls",
			Name:        "Fried Rice Deluxe",
			Description: "Special fried rice with mixed vegetables, chicken, and prawns",
			BasePrice:   3800,
			ImageURL:    "https://images.pexels.com/photos/2097090/pexels-photo-2097090.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"popular"},
			Rating:      4.7,
			Variants: []pricing.Variant{
				{Name: "Regular", PriceDelta: 0},
				{Name: "Large", PriceDelta: 1000},
			},
			AddOns: []pricing.AddOn{
				{Name: "Extra Chicken", Price: 800},
				{Name: "Extra Prawns", Price: 1200},
			},
			Available: true,
		},
		{
			ID:          "3",
			Category:    "Soups & Swallow",
			Name:        "Banga Soup",
			Description: "Traditional palm nut soup with assorted meat and fish",
			BasePrice:   4500,
			ImageURL:    "https://images.pexels.com/photos/7625056/pexels-photo-7625056.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"traditional", "spicy"},
			Rating:      4.6,
			Variants: []pricing.Variant{
				{Name: "With Pounded Yam", PriceDelta: 0},
				{Name: "With Eba", PriceDelta: -500},
				{Name: "With Starch", PriceDelta: 200},
			},
			AddOns: []pricing.AddOn{
				{Name: "Extra Meat", Price: 1000},
				{Name: "Extra Fish", Price: 800},
			},
			Available: true,
		},
		{
			ID:          "4",
			Category:    "Grills & Suya",
			Name:        "Chicken Suya Platter",
			Description: "Grilled chicken strips with suya spice, onions, and tomatoes",
			BasePrice:   4000,
			ImageURL:    "https://images.pexels.com/photos/10922927/pexels-photo-10922927.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"grilled", "spicy", "popular"},
			Rating:      4.9,
			Variants: []pricing.Variant{
				{Name: "Half Portion", PriceDelta: -1500},
				{Name: "Full Portion", PriceDelta: 0},
				{Name: "Large Platter", PriceDelta: 2000},
			},
			AddOns: []pricing.AddOn{
				{Name: "Extra Spicy", Price: 0},
				{Name: "Beef Addition", Price: 1200},
			},
			Available: true,
		},
		{
			ID:          "5",
			Category:    "Shawarma & Wraps",
			Name:        "Chicken Shawarma",
			Description: "Tender chicken in pita bread with vegetables and special sauce",
			BasePrice:   3200,
			ImageURL:    "https://images.pexels.com/photos/2474658/pexels-photo-2474658.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"popular"},
			Rating:      4.5,
			Variants: []pricing.Variant{
				{Name: "Regular", PriceDelta: 0},
				{Name: "Large", PriceDelta: 800},
			},
			AddOns: []pricing.AddOn{
				{Name: "Extra Chicken", Price: 600},
				{Name: "Cheese", Price: 300},
				{Name: "Avocado", Price: 400},
			},
			Available: true,
		},
		{
			ID:          "6",
			Category:    "Drinks & Smoothies",
			Name:        "Zobo Cooler",
			Description: "Refreshing hibiscus drink with natural fruits and spices",
			BasePrice:   800,
			ImageURL:    "https://images.pexels.com/photos/1638280/pexels-photo-1638280.jpeg?auto=compress&cs=tinysrgb&w=400",
			Tags:        []string{"healthy", "refreshing"},
			Rating:      4.4,
			Variants: []pricing.Variant{
				{Name: "Small", PriceDelta: -200},
				{Name: "Regular", PriceDelta: 0},
				{Name: "Large", PriceDelta: 300},
			},
			AddOns:    []pricing.AddOn{},
			Available: true,
		},
	}
}

// Seed writes the demo menu when the stored menu is absent or predates the
// current seed version. It reports whether seeding happened.
func (s *Service) Seed(ctx context.Context, now time.Time) (bool, error) {
	seeded := false
	err := s.Store.WithLock(ctx, store.KeyMenu, func(ctx context.Context) error {
		meta, err := s.Store.LoadMeta(ctx)
		if err != nil {
			return err
		}
		menu, err := s.load(ctx)
		if err != nil {
			return err
		}
		if len(menu) > 0 && meta.MenuVersion >= seedMenuVersion {
			return nil
		}
		if err := s.Store.Save(ctx, store.KeyMenu, DemoMenu(), 0); err != nil {
			return err
		}
		seeded = true
		return s.Store.SaveMeta(ctx, store.Meta{MenuVersion: seedMenuVersion, LastSeedAt: now})
	})
	return seeded, err
}
