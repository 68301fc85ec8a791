package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodpick-ng/backend/internal/store"
)

// ErrNotFound indicates the requested menu item could not be located.
var ErrNotFound = errors.New("menu item not found")

// ErrInvalidItem is returned when an upserted item fails validation.
var ErrInvalidItem = errors.New("invalid menu item")

// Service encapsulates catalog operations over the menu collection.
type Service struct {
	Store    *store.Store
	Validate *validator.Validate
	NewID    func() string
}

// NewService constructs a catalog service with default dependencies.
func NewService(s *store.Store) *Service {
	return &Service{
		Store:    s,
		Validate: validator.New(),
		NewID:    uuid.NewString,
	}
}

func (s *Service) newID() string {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) load(ctx context.Context) ([]MenuItem, error) {
	var menu []MenuItem
	if _, err := s.Store.Load(ctx, store.KeyMenu, &menu); err != nil {
		return nil, err
	}
	return menu, nil
}

// List returns the full menu, including unavailable items, for the admin view.
func (s *Service) List(ctx context.Context) ([]MenuItem, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("catalog service not configured")
	}
	return s.load(ctx)
}

// ListAvailable returns customer-facing items only.
func (s *Service) ListAvailable(ctx context.Context) ([]MenuItem, error) {
	menu, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]MenuItem, 0, len(menu))
	for _, item := range menu {
		if item.Available {
			available = append(available, item)
		}
	}
	return available, nil
}

// FindByID locates a menu item by id.
func (s *Service) FindByID(ctx context.Context, id string) (MenuItem, error) {
	menu, err := s.List(ctx)
	if err != nil {
		return MenuItem{}, err
	}
	for _, item := range menu {
		if item.ID == id {
			return item, nil
		}
	}
	return MenuItem{}, ErrNotFound
}

// Categories derives the distinct category list from the available menu,
// sorted for stable output.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	menu, err := s.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var categories []string
	for _, item := range menu {
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// Upsert validates and persists a menu item, assigning an id to new entries.
// Malformed prices are rejected rather than coerced, so an admin typo cannot
// silently create a zero-priced item.
func (s *Service) Upsert(ctx context.Context, item MenuItem) (MenuItem, error) {
	if s == nil || s.Store == nil {
		return MenuItem{}, errors.New("catalog service not configured")
	}
	if err := s.validate(item); err != nil {
		return MenuItem{}, err
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	err := s.Store.WithLock(ctx, store.KeyMenu, func(ctx context.Context) error {
		menu, err := s.load(ctx)
		if err != nil {
			return err
		}
		replaced := false
		for i := range menu {
			if menu[i].ID == item.ID {
				menu[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			menu = append(menu, item)
		}
		return s.Store.Save(ctx, store.KeyMenu, menu, 0)
	})
	if err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

// Remove deletes a menu item by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	return s.Store.WithLock(ctx, store.KeyMenu, func(ctx context.Context) error {
		menu, err := s.load(ctx)
		if err != nil {
			return err
		}
		kept := menu[:0]
		found := false
		for _, item := range menu {
			if item.ID == id {
				found = true
				continue
			}
			kept = append(kept, item)
		}
		if !found {
			return ErrNotFound
		}
		return s.Store.Save(ctx, store.KeyMenu, kept, 0)
	})
}

func (s *Service) validate(item MenuItem) error {
	if s.Validate != nil {
		if err := s.Validate.Struct(item); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidItem, err)
		}
	}
	for _, a := range item.AddOns {
		if a.Price < 0 {
			return fmt.Errorf("%w: add-on %q has negative price", ErrInvalidItem, a.Name)
		}
	}
	for _, v := range item.Variants {
		if item.BasePrice+v.PriceDelta < 0 {
			return fmt.Errorf("%w: variant %q drives price below zero", ErrInvalidItem, v.Name)
		}
	}
	return nil
}
