package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/favorites/domain"
	"github.com/dwikikusuma/storefront/pkg/localstore"
)

const DefaultKey = "user-favorites"

type Option func(*Store)

func WithReducer(r domain.Reducer) Option {
	return func(s *Store) { s.reducer = r }
}

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store hosts one favorites list and mirrors it into Storage after every
// change. It follows the same persistence rules as the cart store.
type Store struct {
	mu      sync.Mutex
	reducer domain.Reducer
	storage Storage
	key     string
	log     *slog.Logger

	state       domain.Favorites
	lastWritten []byte
	unsubscribe func()
}

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
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.log.Error("favorites snapshot read failed", slog.Any("err", err))
		}
		return s
	}

	f, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("discarding favorites snapshot", slog.Any("err", err))
		s.persist(ctx)
		return s
	}
	s.state = s.reducer.Reduce(s.state, domain.Load{Snapshot: f})
	s.lastWritten = data
	return s
}

func (s *Store) Key() string { return s.key }

func (s *Store) Favorites() domain.Favorites {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) IsFavorite(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Contains(productID)
}

func (s *Store) Add(ctx context.Context, p catalog.Product) domain.Favorites {
	return s.dispatch(ctx, domain.Add{Product: p})
}

func (s *Store) Remove(ctx context.Context, productID string) domain.Favorites {
	return s.dispatch(ctx, domain.Remove{ProductID: productID})
}

func (s *Store) Clear(ctx context.Context) domain.Favorites {
	return s.dispatch(ctx, domain.Clear{})
}

func (s *Store) dispatch(ctx context.Context, a domain.Action) domain.Favorites {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.reducer.Reduce(s.state, a)
	s.persist(ctx)
	return s.state.Clone()
}

func (s *Store) persist(ctx context.Context) {
	if s.state.IsEmpty() {
		if err := s.storage.Delete(ctx, s.key); err != nil {
			s.log.Error("favorites snapshot delete failed", slog.Any("err", err))
			return
		}
		s.lastWritten = nil
		return
	}

	data, err := EncodeSnapshot(s.state)
	if err != nil {
		s.log.Error("favorites snapshot encode failed", slog.Any("err", err))
		return
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.log.Error("favorites snapshot write failed", slog.Any("err", err))
		return
	}
	s.lastWritten = data
}

// Reload adopts a snapshot written by another store instance.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, localstore.ErrNotFound) {
		if s.lastWritten != nil {
			s.log.Info("favorites cleared by another writer")
			s.state = s.reducer.Reduce(s.state, domain.Clear{})
			s.lastWritten = nil
		}
		return
	}
	if err != nil {
		s.log.Error("favorites snapshot read failed", slog.Any("err", err))
		return
	}
	if bytes.Equal(data, s.lastWritten) {
		return
	}

	f, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("ignoring external favorites snapshot", slog.Any("err", err))
		return
	}
	s.state = s.reducer.Reduce(s.state, domain.Load{Snapshot: f})
	s.lastWritten = data
}

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

func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
