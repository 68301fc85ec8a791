package address

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

var (
	// ErrNotFound indicates the requested address does not exist.
	ErrNotFound = errors.New("address not found")
	// ErrInvalidAddress is returned when an upserted address fails validation.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoneSelected indicates a session has no delivery location picked.
	ErrNoneSelected = errors.New("no address selected")
)

// Service manages the address book and each session's selected delivery
// location.
type Service struct {
	Store       *store.Store
	Validate    *validator.Validate
	NewID       func() string
	Zones       pricing.Zones
	DefaultZone string
}

// NewService constructs an address service with default dependencies.
func NewService(s *store.Store, defaultZone string) *Service {
	return &Service{
		Store:       s,
		Validate:    validator.New(),
		NewID:       uuid.NewString,
		Zones:       pricing.DefaultZones(),
		DefaultZone: defaultZone,
	}
}

func (s *Service) newID() string {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) load(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if _, err := s.Store.Load(ctx, store.KeyAddresses, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// List returns the saved address book.
func (s *Service) List(ctx context.Context) ([]Address, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("address service not configured")
	}
	return s.load(ctx)
}

// FindByID locates an address by id.
func (s *Service) FindByID(ctx context.Context, id string) (Address, error) {
	addresses, err := s.List(ctx)
	if err != nil {
		return Address{}, err
	}
	for _, a := range addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

// Upsert validates and persists an address. A missing zone is inferred from
// the area name; marking an address default clears every other default in the
// same write.
func (s *Service) Upsert(ctx context.Context, a Address) (Address, error) {
	if s == nil || s.Store == nil {
		return Address{}, errors.New("address service not configured")
	}
	if a.Zone == "" {
		a.Zone = pricing.ZoneFromArea(s.Zones, a.Area, s.DefaultZone)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(a); err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	err := s.Store.WithLock(ctx, store.KeyAddresses, func(ctx context.Context) error {
		addresses, err := s.load(ctx)
		if err != nil {
			return err
		}
		replaced := false
		for i := range addresses {
			if addresses[i].ID == a.ID {
				addresses[i] = a
				replaced = true
			} else if a.IsDefault {
				addresses[i].IsDefault = false
			}
		}
		if !replaced {
			addresses = append(addresses, a)
		}
		return s.Store.Save(ctx, store.KeyAddresses, addresses, 0)
	})
	if err != nil {
		return Address{}, err
	}
	return a, nil
}

// Remove deletes an address by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("address service not configured")
	}
	return s.Store.WithLock(ctx, store.KeyAddresses, func(ctx context.Context) error {
		addresses, err := s.load(ctx)
		if err != nil {
			return err
		}
		kept := addresses[:0]
		found := false
		for _, a := range addresses {
			if a.ID == id {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		if !found {
			return ErrNotFound
		}
		return s.Store.Save(ctx, store.KeyAddresses, kept, 0)
	})
}

// Select snapshots an address as the session's delivery location. The copy is
// what checkout reads, so a later edit of the book never silently moves an
// in-flight order.
func (s *Service) Select(ctx context.Context, sid, id string) (Address, error) {
	if s == nil || s.Store == nil {
		return Address{}, errors.New("address service not configured")
	}
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return Address{}, err
	}
	if err := s.Store.Save(ctx, store.SelectedAddressKey(sid), a, 0); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Selected returns the session's delivery location, or ErrNoneSelected.
func (s *Service) Selected(ctx context.Context, sid string) (Address, error) {
	if s == nil || s.Store == nil {
		return Address{}, errors.New("address service not configured")
	}
	var a Address
	found, err := s.Store.Load(ctx, store.SelectedAddressKey(sid), &a)
	if err != nil {
		return Address{}, err
	}
	if !found {
		return Address{}, ErrNoneSelected
	}
	return a, nil
}

// ClearSelection drops the session's delivery location.
func (s *Service) ClearSelection(ctx context.Context, sid string) error {
	if s == nil || s.Store == nil {
		return errors.New("address service not configured")
	}
	return s.Store.Delete(ctx, store.SelectedAddressKey(sid))
}
