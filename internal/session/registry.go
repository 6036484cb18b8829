// Package session owns the per-shopper cart and favorites stores served by
// the gateway.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	favapp "github.com/dwikikusuma/storefront/internal/favorites/app"
)

var ErrClosed = errors.New("session registry closed")

const (
	DefaultIdleTTL     = 30 * time.Minute
	DefaultMaxShoppers = 10000
)

// Storage is satisfied by *localstore.Store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Subscribe(key string, fn func()) (func(), error)
}

type Option func(*Registry)

// WithIdleTTL evicts a shopper's stores after d without a request. Zero
// disables idle eviction.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) { r.idleTTL = d }
}

// WithMaxShoppers caps the open shoppers; the least recently used one is
// evicted past the cap. Zero disables the cap.
func WithMaxShoppers(n int) Option {
	return func(r *Registry) { r.maxShoppers = n }
}

type entry struct {
	cart      *cartapp.Store
	favorites *favapp.Store
	lastUsed  time.Time
}

func (e *entry) close() {
	if e.cart != nil {
		e.cart.Close()
	}
	if e.favorites != nil {
		e.favorites.Close()
	}
}

// Registry lazily creates one cart store and one favorites store per
// shopper. Each store follows its storage key so writes from other gateway
// instances sharing the directory are picked up. Evicted stores stop
// following; their snapshots stay in storage and are reloaded on the next
// request.
type Registry struct {
	storage     Storage
	log         *slog.Logger
	idleTTL     time.Duration
	maxShoppers int
	now         func() time.Time

	mu       sync.Mutex
	shoppers map[string]*entry
	closed   bool
	done     chan struct{}
}

func NewRegistry(storage Storage, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		storage:     storage,
		log:         log,
		idleTTL:     DefaultIdleTTL,
		maxShoppers: DefaultMaxShoppers,
		now:         time.Now,
		shoppers:    make(map[string]*entry),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func CartKey(shopperID string) string      { return shopperID + "/" + cartapp.DefaultKey }
func FavoritesKey(shopperID string) string { return shopperID + "/" + favapp.DefaultKey }

// Cart returns the shopper's cart store. The store is built without holding
// the registry lock, so a slow first load for one shopper does not stall
// the others.
func (r *Registry) Cart(ctx context.Context, shopperID string) (*cartapp.Store, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if e := r.shoppers[shopperID]; e != nil && e.cart != nil {
		e.lastUsed = r.now()
		r.mu.Unlock()
		return e.cart, nil
	}
	r.mu.Unlock()

	s := cartapp.NewStore(ctx, r.storage, r.log, cartapp.WithKey(CartKey(shopperID)))
	if err := s.Follow(r.storage); err != nil {
		r.log.Warn("cart will not follow storage changes", slog.String("shopper", shopperID), slog.Any("err", err))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return nil, ErrClosed
	}
	e := r.entryLocked(shopperID)
	if e.cart != nil {
		existing := e.cart
		r.mu.Unlock()
		s.Close()
		return existing, nil
	}
	e.cart = s
	evicted := r.trimLocked(shopperID)
	r.mu.Unlock()

	r.release(evicted)
	return s, nil
}

// Favorites returns the shopper's favorites store, built the same way as
// Cart.
func (r *Registry) Favorites(ctx context.Context, shopperID string) (*favapp.Store, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if e := r.shoppers[shopperID]; e != nil && e.favorites != nil {
		e.lastUsed = r.now()
		r.mu.Unlock()
		return e.favorites, nil
	}
	r.mu.Unlock()

	s := favapp.NewStore(ctx, r.storage, r.log, favapp.WithKey(FavoritesKey(shopperID)))
	if err := s.Follow(r.storage); err != nil {
		r.log.Warn("favorites will not follow storage changes", slog.String("shopper", shopperID), slog.Any("err", err))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return nil, ErrClosed
	}
	e := r.entryLocked(shopperID)
	if e.favorites != nil {
		existing := e.favorites
		r.mu.Unlock()
		s.Close()
		return existing, nil
	}
	e.favorites = s
	evicted := r.trimLocked(shopperID)
	r.mu.Unlock()

	r.release(evicted)
	return s, nil
}

func (r *Registry) entryLocked(shopperID string) *entry {
	e := r.shoppers[shopperID]
	if e == nil {
		e = &entry{}
		r.shoppers[shopperID] = e
	}
	e.lastUsed = r.now()
	return e
}

// trimLocked removes least recently used shoppers past the cap, never keep.
func (r *Registry) trimLocked(keep string) []*entry {
	if r.maxShoppers <= 0 {
		return nil
	}

	var evicted []*entry
	for len(r.shoppers) > r.maxShoppers {
		oldestID := ""
		var oldest *entry
		for id, e := range r.shoppers {
			if id == keep {
				continue
			}
			if oldest == nil || e.lastUsed.Before(oldest.lastUsed) {
				oldestID, oldest = id, e
			}
		}
		if oldest == nil {
			break
		}
		delete(r.shoppers, oldestID)
		evicted = append(evicted, oldest)
	}
	return evicted
}

func (r *Registry) release(evicted []*entry) {
	for _, e := range evicted {
		e.close()
	}
	if len(evicted) > 0 {
		r.log.Debug("sessions evicted", slog.Int("count", len(evicted)))
	}
}

// Sweep evicts shoppers idle for longer than the idle TTL and returns how
// many were evicted.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTTL)
	var evicted []*entry
	for id, e := range r.shoppers {
		if e.lastUsed.Before(cutoff) {
			delete(r.shoppers, id)
			evicted = append(evicted, e)
		}
	}
	r.mu.Unlock()

	r.release(evicted)
	return len(evicted)
}

// Run sweeps idle shoppers until ctx is done or the registry is closed.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}

	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len reports how many shoppers have at least one open store.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}

// Close unsubscribes every store. Snapshots stay on disk.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)
	shoppers := r.shoppers
	r.shoppers = nil
	r.mu.Unlock()

	for _, e := range shoppers {
		e.close()
	}
	r.log.Info("sessions closed", slog.Int("shoppers", len(shoppers)))
}
