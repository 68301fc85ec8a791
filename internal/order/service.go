package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/foodpick-ng/backend/internal/address"
	"github.com/foodpick-ng/backend/internal/cart"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/events"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/store"
)

var (
	// ErrEmptyCart is returned when placement is attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoAddress is returned when the session has no delivery location.
	ErrNoAddress = errors.New("no delivery address selected")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrTransitionNotAllowed is returned when forward-only mode blocks a
	// backwards status move.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// Order is a placed order: immutable line, price, and address snapshots plus
// the mutable fulfilment status.
type Order struct {
	ID          string          `json:"id"`
	Lines       []cart.Line     `json:"lines"`
	Subtotal    pricing.Money   `json:"subtotal"`
	Discount    pricing.Money   `json:"discount"`
	CouponCode  string          `json:"couponCode,omitempty"`
	DeliveryFee pricing.Money   `json:"deliveryFee"`
	Total       pricing.Money   `json:"total"`
	Address     address.Address `json:"address"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Service owns order placement and the fulfilment lifecycle.
type Service struct {
	Store         *store.Store
	Cart          *cart.Service
	Addresses     *address.Service
	Coupons       *coupon.Service
	Zones         pricing.Zones
	Mode          pricing.Mode
	FreeThreshold pricing.Money
	DefaultZone   string
	ForwardOnly   bool
	Bus           *events.Bus
	Now           func() time.Time
	NewID         func() string
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

func (s *Service) load(ctx context.Context) ([]Order, error) {
	var orders []Order
	if _, err := s.Store.Load(ctx, store.KeyOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Place converts the session's cart into an order. The cart is read and
// priced (subtotal, optional coupon, zone fee vs the free-delivery threshold)
// while the orders and cart locks are held, and the order append, cart clear,
// and selected-address clear land in one pipeline under those same locks, so
// a concurrent cart mutation is either in the placed order or still in the
// cart, never lost, and a crash can never leave a charged order with a live
// cart.
func (s *Service) Place(ctx context.Context, sid, couponCode string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	addr, err := s.Addresses.Selected(ctx, sid)
	if err != nil {
		if errors.Is(err, address.ErrNoneSelected) {
			return Order{}, ErrNoAddress
		}
		return Order{}, err
	}

	id := s.newID()
	placedAt := s.now()

	var o Order
	err = s.Store.WithLocks(ctx, []string{store.KeyOrders, store.CartKey(sid)}, func(ctx context.Context) error {
		snap, err := s.Cart.Get(ctx, sid)
		if err != nil {
			return err
		}
		if len(snap.Lines) == 0 {
			return ErrEmptyCart
		}

		subtotal := snap.Subtotal
		var discount pricing.Money
		code := couponCode
		if code != "" {
			applied, err := s.Coupons.Evaluate(ctx, code, subtotal)
			if err != nil {
				return err
			}
			discount = applied.Discount
			code = applied.Coupon.Code
		}
		fee, err := pricing.DeliveryFee(s.Zones, addr.Zone, subtotal, s.FreeThreshold, s.Mode, s.DefaultZone)
		if err != nil {
			return err
		}

		o = Order{
			ID:          id,
			Lines:       snap.Lines,
			Subtotal:    subtotal,
			Discount:    discount,
			CouponCode:  code,
			DeliveryFee: fee,
			Total:       subtotal - discount + fee,
			Address:     addr,
			Status:      StatusReceived,
			CreatedAt:   placedAt,
		}

		orders, err := s.load(ctx)
		if err != nil {
			return err
		}
		orders = append(orders, o)
		return s.Store.Commit(ctx,
			store.Write{Key: store.KeyOrders, Value: orders},
			store.Write{Key: store.CartKey(sid), Delete: true},
			store.Write{Key: store.SelectedAddressKey(sid), Delete: true},
		)
	})
	if err != nil {
		return Order{}, err
	}

	if o.CouponCode != "" {
		// best effort: a usage-count miss must not undo a placed order
		_ = s.Coupons.IncrementUsage(ctx, o.CouponCode)
	}
	s.emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
		"total":  o.Total,
		"status": o.Status,
		"area":   o.Address.Area,
	})
	return o, nil
}

// List returns order history, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Get locates an order by id.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

// UpdateStatus moves an order to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	var updated Order
	err := s.Store.WithLock(ctx, store.KeyOrders, func(ctx context.Context) error {
		orders, err := s.load(ctx)
		if err != nil {
			return err
		}
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			if !CanTransition(orders[i].Status, status, s.ForwardOnly) {
				return ErrTransitionNotAllowed
			}
			orders[i].Status = status
			updated = orders[i]
			return s.Store.Save(ctx, store.KeyOrders, orders, 0)
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderStatusChanged, updated.ID, map[string]any{
		"status": updated.Status,
	})
	return updated, nil
}

// MarkAllDelivered blanket-updates every order to delivered. Applying it
// twice is a no-op the second time.
func (s *Service) MarkAllDelivered(ctx context.Context) (int, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("order service not configured")
	}
	var changed []string
	err := s.Store.WithLock(ctx, store.KeyOrders, func(ctx context.Context) error {
		orders, err := s.load(ctx)
		if err != nil {
			return err
		}
		changed = changed[:0]
		for i := range orders {
			if orders[i].Status == StatusDelivered {
				continue
			}
			orders[i].Status = StatusDelivered
			changed = append(changed, orders[i].ID)
		}
		if len(changed) == 0 {
			return nil
		}
		return s.Store.Save(ctx, store.KeyOrders, orders, 0)
	})
	if err != nil {
		return 0, err
	}
	for _, id := range changed {
		s.emit(ctx, events.TopicOrderStatusChanged, id, map[string]any{
			"status": StatusDelivered,
		})
	}
	return len(changed), nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Bus == nil {
		return
	}
	_, _ = s.Bus.Emit(ctx, topic, aggregateID, payload)
}
