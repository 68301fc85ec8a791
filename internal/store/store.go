// Package store persists the storefront's collections as JSON blobs in Redis,
// one key per collection, mirroring the layout the web client kept in local
// storage. Reads load the whole collection; writes replace it under the
// collection's lock.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/foodpick-ng/backend/internal/lock"
)

// Collection keys.
const (
	KeyMenu      = "fp:menu"
	KeyOrders    = "fp:orders"
	KeyCoupons   = "fp:coupons"
	KeyAddresses = "fp:addresses"
	KeyMeta      = "fp:meta"
)

// CartKey returns the cart collection key for a session.
func CartKey(sid string) string {
	return "fp:cart:" + sid
}

// SelectedAddressKey returns the selected-address key for a session.
func SelectedAddressKey(sid string) string {
	return "fp:selected_address:" + sid
}

// Meta tracks seed bookkeeping for the menu collection.
type Meta struct {
	MenuVersion int       `json:"menuVersion"`
	LastSeedAt  time.Time `json:"lastSeedAt"`
}

// Write describes one key mutation inside a Commit batch.
type Write struct {
	Key    string
	Value  any
	TTL    time.Duration
	Delete bool
}

// Store is the persistence boundary for every collection.
type Store struct {
	R       *redis.Client
	Locker  lock.Locker
	LockTTL time.Duration
}

// New constructs a Store around the provided Redis client.
func New(client *redis.Client, lockTTL time.Duration) *Store {
	return &Store{
		R:       client,
		Locker:  lock.Locker{R: client},
		LockTTL: lockTTL,
	}
}

func (s *Store) lockTTL() time.Duration {
	if s == nil || s.LockTTL <= 0 {
		return 10 * time.Second
	}
	return s.LockTTL
}

// Load reads a collection into dst. It reports whether the key existed.
func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	if s == nil || s.R == nil {
		return false, errors.New("store not configured")
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces a collection. A zero ttl persists the key indefinitely.
func (s *Store) Save(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s == nil || s.R == nil {
		return errors.New("store not configured")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.R.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete removes a collection key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.R == nil {
		return errors.New("store not configured")
	}
	if err := s.R.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// WithLock runs fn while holding the mutual-exclusion scope for key.
func (s *Store) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if s == nil {
		return errors.New("store not configured")
	}
	return s.Locker.WithLock(ctx, lock.CollectionKey(key), s.lockTTL(), fn)
}

// WithLocks acquires the locks for all keys in order, then runs fn. Callers
// must pass keys in a consistent order to avoid lock inversion.
func (s *Store) WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	if len(keys) == 0 {
		return fn(ctx)
	}
	head, rest := keys[0], keys[1:]
	return s.WithLock(ctx, head, func(ctx context.Context) error {
		return s.WithLocks(ctx, rest, fn)
	})
}

// Commit applies all writes atomically via a single MULTI/EXEC pipeline.
// Either every write lands or none does.
func (s *Store) Commit(ctx context.Context, writes ...Write) error {
	if s == nil || s.R == nil {
		return errors.New("store not configured")
	}
	encoded := make([][]byte, len(writes))
	for i, w := range writes {
		if w.Delete {
			continue
		}
		data, err := json.Marshal(w.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", w.Key, err)
		}
		encoded[i] = data
	}
	_, err := s.R.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, w := range writes {
			if w.Delete {
				pipe.Del(ctx, w.Key)
				continue
			}
			pipe.Set(ctx, w.Key, encoded[i], w.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadMeta reads seed bookkeeping, returning a zero Meta when absent.
func (s *Store) LoadMeta(ctx context.Context) (Meta, error) {
	var meta Meta
	if _, err := s.Load(ctx, KeyMeta, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// SaveMeta writes seed bookkeeping.
func (s *Store) SaveMeta(ctx context.Context, meta Meta) error {
	return s.Save(ctx, KeyMeta, meta, 0)
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	if s == nil || s.R == nil {
		return errors.New("store not configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.R.Ping(ctx).Err()
}
