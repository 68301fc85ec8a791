package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/events"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

// ErrLineNotFound indicates the requested cart line does not exist.
var ErrLineNotFound = errors.New("cart line not found")

// ErrItemUnavailable is returned when adding an item the menu marks unavailable.
var ErrItemUnavailable = errors.New("menu item unavailable")

// Line is one distinct customization of one menu item in a cart. The menu
// item is snapshotted at add time so later catalog edits never reprice lines
// already in a cart or a placed order.
type Line struct {
	Identity        string           `json:"identity"`
	MenuItem        catalog.MenuItem `json:"menuItem"`
	Quantity        int              `json:"quantity"`
	SelectedVariant string           `json:"selectedVariant"`
	SelectedAddOns  []string         `json:"selectedAddOns"`
	UnitPrice       pricing.Money    `json:"unitPrice"`
}

// Snapshot is the plain-data view of a cart returned after every mutation.
type Snapshot struct {
	Lines         []Line        `json:"lines"`
	TotalQuantity int           `json:"totalQuantity"`
	Subtotal      pricing.Money `json:"subtotal"`
}

// Service encapsulates cart operations. Carts are keyed by session id and
// every mutation runs under the session's cart lock before being persisted.
type Service struct {
	Store *store.Store
	Mode  pricing.Mode
	TTL   time.Duration
	Bus   *events.Bus
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) load(ctx context.Context, sid string) ([]Line, error) {
	var lines []Line
	if _, err := s.Store.Load(ctx, store.CartKey(sid), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Service) save(ctx context.Context, sid string, lines []Line) error {
	if len(lines) == 0 {
		return s.Store.Delete(ctx, store.CartKey(sid))
	}
	return s.Store.Save(ctx, store.CartKey(sid), lines, s.ttl())
}

// Get returns the cart snapshot for a session.
func (s *Service) Get(ctx context.Context, sid string) (Snapshot, error) {
	if s == nil || s.Store == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	lines, err := s.load(ctx, sid)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot(lines), nil
}

// Add puts one unit of the customized item into the cart. An existing line
// with the same identity has its quantity incremented and keeps its cached
// unit price; otherwise a new line is priced and appended.
func (s *Service) Add(ctx context.Context, sid string, item catalog.MenuItem, variantName string, addOnNames []string) (Snapshot, error) {
	if s == nil || s.Store == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	if !item.Available {
		return Snapshot{}, ErrItemUnavailable
	}
	unitPrice, err := pricing.UnitPrice(item.Spec(), variantName, addOnNames, s.Mode)
	if err != nil {
		return Snapshot{}, err
	}
	identity := LineKey(item.ID, variantName, addOnNames)

	var snap Snapshot
	err = s.Store.WithLock(ctx, store.CartKey(sid), func(ctx context.Context) error {
		lines, err := s.load(ctx, sid)
		if err != nil {
			return err
		}
		merged := false
		for i := range lines {
			if lines[i].Identity == identity {
				lines[i].Quantity++
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, Line{
				Identity:        identity,
				MenuItem:        item,
				Quantity:        1,
				SelectedVariant: variantName,
				SelectedAddOns:  SortedAddOns(addOnNames),
				UnitPrice:       unitPrice,
			})
		}
		if err := s.save(ctx, sid, lines); err != nil {
			return err
		}
		snap = snapshot(lines)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicCartItemAdded, sid, map[string]any{
			"identity": identity,
			"itemId":   item.ID,
			"name":     item.Name,
		})
	}
	return snap, nil
}

// SetQuantity updates a line's quantity. A non-positive quantity removes the
// line. Unknown identities fail with ErrLineNotFound.
func (s *Service) SetQuantity(ctx context.Context, sid, identity string, quantity int) (Snapshot, error) {
	if s == nil || s.Store == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	var snap Snapshot
	err := s.Store.WithLock(ctx, store.CartKey(sid), func(ctx context.Context) error {
		lines, err := s.load(ctx, sid)
		if err != nil {
			return err
		}
		idx := -1
		for i := range lines {
			if lines[i].Identity == identity {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrLineNotFound
		}
		if quantity <= 0 {
			lines = append(lines[:idx], lines[idx+1:]...)
		} else {
			lines[idx].Quantity = quantity
		}
		if err := s.save(ctx, sid, lines); err != nil {
			return err
		}
		snap = snapshot(lines)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Remove deletes a line if present; removing an absent line is a no-op.
func (s *Service) Remove(ctx context.Context, sid, identity string) (Snapshot, error) {
	snap, err := s.SetQuantity(ctx, sid, identity, 0)
	if errors.Is(err, ErrLineNotFound) {
		return s.Get(ctx, sid)
	}
	return snap, err
}

// Clear empties the cart. Called on successful order placement.
func (s *Service) Clear(ctx context.Context, sid string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	return s.Store.WithLock(ctx, store.CartKey(sid), func(ctx context.Context) error {
		return s.Store.Delete(ctx, store.CartKey(sid))
	})
}

// PricingLines converts cart lines into the pricing engine's input shape.
func PricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

func snapshot(lines []Line) Snapshot {
	snap := Snapshot{Lines: lines}
	for _, l := range lines {
		snap.TotalQuantity += l.Quantity
	}
	snap.Subtotal = pricing.Subtotal(PricingLines(lines))
	if snap.Lines == nil {
		snap.Lines = []Line{}
	}
	return snap
}

// Validate rebuilds each line's unit price from its snapshot and reports the
// first mismatch. Used by tests and the admin consistency probe.
func Validate(lines []Line, mode pricing.Mode) error {
	for _, l := range lines {
		expect, err := pricing.UnitPrice(l.MenuItem.Spec(), l.SelectedVariant, l.SelectedAddOns, mode)
		if err != nil {
			return fmt.Errorf("line %s: %w", l.Identity, err)
		}
		if expect != l.UnitPrice {
			return fmt.Errorf("line %s: cached unit price %d != derived %d", l.Identity, l.UnitPrice, expect)
		}
	}
	return nil
}
