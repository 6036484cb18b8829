package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/localstore"
)

const DefaultKey = "shopping-cart"

type Option func(*Store)

func WithReducer(r domain.Reducer) Option {
	return func(s *Store) { s.reducer = r }
}

// WithKey sets the storage key, e.g. a per-shopper "<id>/shopping-cart".
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store hosts one cart: it applies actions through the reducer and mirrors
// every resulting state into Storage. Storage failures are logged and never
// returned; the in-memory state always moves forward.
type Store struct {
	mu      sync.Mutex
	reducer domain.Reducer
	storage Storage
	key     string
	log     *slog.Logger

	state       domain.Cart
	lastWritten []byte // nil when this store last deleted the key
	unsubscribe func()
}

// NewStore restores the cart persisted under the store key. A missing or
// malformed snapshot starts an empty cart; a malformed one is also removed.
func NewStore(ctx context.Context, storage Storage, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		reducer: domain.NewReducer(),
		storage: storage,
		key:     DefaultKey,
		log:     log,
		state:   domain.Empty(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("key", s.key))

	data, err := storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
	case err != nil:
		s.log.Error("cart snapshot read failed", slog.Any("err", err))
	default:
		c, err := DecodeSnapshot(data)
		if err != nil {
			s.log.Warn("discarding cart snapshot", slog.Any("err", err))
			s.persist(ctx)
			break
		}
		s.state = s.reducer.Reduce(s.state, domain.Load{Snapshot: c})
		s.lastWritten = data
	}
	return s
}

func (s *Store) Key() string { return s.key }

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Add increases the matching line by quantity, at least 1. It never
// decrements.
func (s *Store) Add(ctx context.Context, p catalog.Product, quantity int, size, color string) domain.Cart {
	return s.dispatch(ctx, domain.Add{Product: p, Quantity: quantity, Size: size, Color: color})
}

func (s *Store) Remove(ctx context.Context, lineItemID string) domain.Cart {
	return s.dispatch(ctx, domain.Remove{LineItemID: lineItemID})
}

func (s *Store) SetQuantity(ctx context.Context, lineItemID string, quantity int) domain.Cart {
	return s.dispatch(ctx, domain.SetQuantity{LineItemID: lineItemID, Quantity: quantity})
}

func (s *Store) Clear(ctx context.Context) domain.Cart {
	return s.dispatch(ctx, domain.Clear{})
}

func (s *Store) dispatch(ctx context.Context, a domain.Action) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.reducer.Reduce(s.state, a)
	s.persist(ctx)
	return s.state.Clone()
}

// persist writes the current state, or deletes the key when the cart is
// empty. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.state.IsEmpty() {
		if err := s.storage.Delete(ctx, s.key); err != nil {
			s.log.Error("cart snapshot delete failed", slog.Any("err", err))
			return
		}
		s.lastWritten = nil
		return
	}

	data, err := EncodeSnapshot(s.state)
	if err != nil {
		s.log.Error("cart snapshot encode failed", slog.Any("err", err))
		return
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.log.Error("cart snapshot write failed", slog.Any("err", err))
		return
	}
	s.lastWritten = data
}

// Reload replaces the in-memory cart with the stored snapshot after another
// writer changed it. The store's own writes are recognised and skipped. A
// removed key empties the cart; an unreadable snapshot is ignored.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		if s.lastWritten == nil {
			return
		}
		s.log.Info("cart cleared by another writer")
		s.state = s.reducer.Reduce(s.state, domain.Clear{})
		s.lastWritten = nil
		return
	case err != nil:
		s.log.Error("cart snapshot read failed", slog.Any("err", err))
		return
	}

	if bytes.Equal(data, s.lastWritten) {
		return
	}

	c, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("ignoring external cart snapshot", slog.Any("err", err))
		return
	}
	s.log.Info("cart reloaded from storage", slog.Int("items", len(c.Items)))
	s.state = s.reducer.Reduce(s.state, domain.Load{Snapshot: c})
	s.lastWritten = data
}

// Follow reloads the store whenever n reports a change to its key.
func (s *Store) Follow(n Notifier) error {
	unsubscribe, err := n.Subscribe(s.key, func() { s.Reload(context.Background()) })
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.unsubscribe
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	return nil
}

// Close stops following storage changes. The persisted snapshot is kept.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
