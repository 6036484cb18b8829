package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/localstore"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func openStorage(t *testing.T, ctx context.Context, dir string) *localstore.Store {
	t.Helper()
	ls, err := localstore.Open(dir, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, ls.Start(ctx))
	return ls
}

func TestRegistryReusesStores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ls := openStorage(t, ctx, t.TempDir())
	defer ls.Close()
	reg := NewRegistry(ls, logger.Discard())
	defer reg.Close()

	shopper := uuid.NewString()
	a, err := reg.Cart(ctx, shopper)
	require.NoError(t, err)
	b, err := reg.Cart(ctx, shopper)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, CartKey(shopper), a.Key())

	other, err := reg.Cart(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotSame(t, a, other)

	_, err = reg.Favorites(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryClosed(t *testing.T) {
	ctx := context.Background()
	ls, err := localstore.Open(t.TempDir(), logger.Discard())
	require.NoError(t, err)
	defer ls.Close()

	reg := NewRegistry(ls, logger.Discard())
	reg.Close()
	reg.Close()

	_, err = reg.Cart(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = reg.Favorites(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrClosed)
}

// Two gateways sharing a storage directory converge on the last write.
func TestRegistriesConverge(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	lsA := openStorage(t, ctx, dir)
	lsB := openStorage(t, ctx, dir)
	regA := NewRegistry(lsA, logger.Discard())
	regB := NewRegistry(lsB, logger.Discard())

	shopper := uuid.NewString()
	cartA, err := regA.Cart(ctx, shopper)
	require.NoError(t, err)
	cartB, err := regB.Cart(ctx, shopper)
	require.NoError(t, err)

	p := catalog.Product{ID: "p1", Name: "Tee", Price: decimal.NewFromInt(20), Images: []string{"t.png"}}
	cartA.Add(ctx, p, 2, "M", "")

	require.Eventually(t, func() bool { return cartB.Cart().ItemCount == 2 }, 2*time.Second, 10*time.Millisecond)

	line := cartB.Cart().Items[0].ID
	cartB.SetQuantity(ctx, line, 5)
	require.Eventually(t, func() bool { return cartA.Cart().ItemCount == 5 }, 2*time.Second, 10*time.Millisecond)

	regA.Close()
	regB.Close()
	require.NoError(t, lsA.Close())
	require.NoError(t, lsB.Close())
}

// countingStorage is an in-memory Storage that tracks live subscriptions and
// can hold Get for one key until released.
type countingStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	active map[string]int

	holdKey string
	entered chan struct{}
	release chan struct{}
}

func newCountingStorage() *countingStorage {
	return &countingStorage{data: make(map[string][]byte), active: make(map[string]int)}
}

func (s *countingStorage) Get(_ context.Context, key string) ([]byte, error) {
	if s.holdKey != "" && key == s.holdKey {
		close(s.entered)
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	if !ok {
		return nil, localstore.ErrNotFound
	}
	return data, nil
}

func (s *countingStorage) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func (s *countingStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *countingStorage) Subscribe(key string, _ func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[key]++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.active[key]--; s.active[key] == 0 {
				delete(s.active, key)
			}
		})
	}, nil
}

func (s *countingStorage) subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.active {
		n += c
	}
	return n
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	storage := newCountingStorage()
	reg := NewRegistry(storage, logger.Discard(), WithMaxShoppers(100), WithIdleTTL(0))
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tick := 0
	reg.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first := uuid.NewString()
	_, err := reg.Cart(ctx, first)
	require.NoError(t, err)

	for range 500 {
		_, err := reg.Cart(ctx, uuid.NewString())
		require.NoError(t, err)
	}

	assert.Equal(t, 100, reg.Len())
	assert.Equal(t, 100, storage.subscriptions())
	assert.NotContains(t, storage.active, CartKey(first))

	reg.Close()
	assert.Equal(t, 0, storage.subscriptions())
}

func TestRegistrySweepsIdleShoppers(t *testing.T) {
	ctx := context.Background()
	storage := newCountingStorage()
	reg := NewRegistry(storage, logger.Discard(), WithIdleTTL(30*time.Minute), WithMaxShoppers(0))
	defer reg.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	shoppers := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, id := range shoppers {
		_, err := reg.Cart(ctx, id)
		require.NoError(t, err)
		_, err = reg.Favorites(ctx, id)
		require.NoError(t, err)
	}
	require.Equal(t, 6, storage.subscriptions())

	now = now.Add(10 * time.Minute)
	_, err := reg.Cart(ctx, shoppers[0])
	require.NoError(t, err)

	now = now.Add(25 * time.Minute)
	assert.Equal(t, 2, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 2, storage.subscriptions())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, storage.subscriptions())
}

func TestRegistryReadsLeaveNoDirectories(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	ls := openStorage(t, ctx, dir)
	reg := NewRegistry(ls, logger.Discard(), WithMaxShoppers(10))

	for range 50 {
		store, err := reg.Cart(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, store.Cart().Items)
	}
	assert.Equal(t, 10, reg.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	reg.Close()
	require.NoError(t, ls.Close())
}

func TestEvictedCartReloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ls := openStorage(t, ctx, t.TempDir())
	defer ls.Close()
	reg := NewRegistry(ls, logger.Discard(), WithIdleTTL(time.Minute))
	defer reg.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	shopper := uuid.NewString()
	before, err := reg.Cart(ctx, shopper)
	require.NoError(t, err)
	p := catalog.Product{ID: "p1", Name: "Tee", Price: decimal.NewFromInt(20), Images: []string{"t.png"}}
	before.Add(ctx, p, 2, "M", "")

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, reg.Sweep())

	after, err := reg.Cart(ctx, shopper)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, 2, after.Cart().ItemCount)
}

func TestRegistryBuildsStoresOutsideLock(t *testing.T) {
	ctx := context.Background()
	slow := uuid.NewString()

	storage := newCountingStorage()
	storage.holdKey = CartKey(slow)
	storage.entered = make(chan struct{})
	storage.release = make(chan struct{})

	reg := NewRegistry(storage, logger.Discard())
	defer reg.Close()

	done := make(chan error, 1)
	go func() {
		_, err := reg.Cart(ctx, slow)
		done <- err
	}()
	<-storage.entered

	t.Run("other shoppers proceed", func(t *testing.T) {
		got := make(chan error, 1)
		go func() {
			_, err := reg.Cart(ctx, uuid.NewString())
			got <- err
		}()
		select {
		case err := <-got:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("cart for another shopper blocked behind a slow load")
		}
	})

	close(storage.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryConcurrentCartsShareStore(t *testing.T) {
	ctx := context.Background()
	storage := newCountingStorage()
	reg := NewRegistry(storage, logger.Discard())
	defer reg.Close()

	shopper := uuid.NewString()
	stores := make([]*cartapp.Store, 16)
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := reg.Cart(ctx, shopper)
			assert.NoError(t, err)
			stores[i] = s
		}()
	}
	wg.Wait()

	for _, s := range stores[1:] {
		assert.Same(t, stores[0], s)
	}
	assert.Equal(t, 1, storage.subscriptions())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, ShopperID(c))
	})

	id := uuid.New()
	for _, tc := range []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing", "", http.StatusBadRequest, ""},
		{"not a uuid", "bob", http.StatusBadRequest, ""},
		{"canonicalised", "{" + id.String() + "}", http.StatusOK, id.String()},
		{"upper case", strings.ToUpper(id.String()), http.StatusOK, id.String()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(HeaderShopperID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
