package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cartdomain "github.com/dwikikusuma/storefront/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/catalog/infra/cache"
	catalogsqlite "github.com/dwikikusuma/storefront/internal/catalog/infra/sqlite"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/storefront/internal/checkout/domain"
	"github.com/dwikikusuma/storefront/internal/checkout/infra/adapter"
	merchapp "github.com/dwikikusuma/storefront/internal/merch/app"
	merchsqlite "github.com/dwikikusuma/storefront/internal/merch/infra/sqlite"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/dwikikusuma/storefront/pkg/localstore"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "s3cret"

func newTestRouter(t *testing.T, ready func(context.Context) error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := sqlite.Open(sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	docs := docstore.New(db)
	require.NoError(t, docs.Migrate(ctx))

	products := cache.NewProductRepo(catalogsqlite.NewProductRepo(docs), time.Minute)
	categories := cache.NewCategoryRepo(catalogsqlite.NewCategoryRepo(docs), time.Minute)
	bus := events.NewBus(log)
	bus.Subscribe(cache.Invalidator(products, categories))
	catalogSvc := catalogapp.NewService(products, categories, bus, log)

	storage, err := localstore.Open(t.TempDir(), log)
	require.NoError(t, err)
	require.NoError(t, storage.Start(ctx))
	t.Cleanup(func() { storage.Close() })

	sessions := session.NewRegistry(storage, log)
	t.Cleanup(sessions.Close)

	if ready == nil {
		ready = db.PingContext
	}
	merchSvc := merchapp.NewService(
		merchsqlite.NewBannerRepo(docs),
		merchsqlite.NewTimerRepo(docs),
		merchsqlite.NewNavRepo(docs),
		log,
	)
	checkoutSvc := checkoutapp.NewService(
		adapter.NewCartStoreReader(sessions),
		adapter.NewCatalogServiceReader(catalogSvc),
		4,
	)

	return newRouter(routerDeps{
		Catalog:    catalogSvc,
		Merch:      merchSvc,
		Checkout:   checkoutSvc,
		Sessions:   sessions,
		Ready:      ready,
		AdminToken: adminToken,
		Log:        log,
	})
}

type request struct {
	method, path, body string
	shopper            string
	admin              bool
}

func (rq request) do(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(rq.method, rq.path, strings.NewReader(rq.body))
	req.Header.Set("Content-Type", "application/json")
	if rq.shopper != "" {
		req.Header.Set(session.HeaderShopperID, rq.shopper)
	}
	if rq.admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	w := request{method: http.MethodGet, path: "/healthz"}.do(r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request{method: http.MethodGet, path: "/readyz"}.do(r)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("readyz reports backing store failures", func(t *testing.T) {
		r := newTestRouter(t, func(context.Context) error { return errors.New("db down") })
		w := request{method: http.MethodGet, path: "/readyz"}.do(r)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAdminAuth(t *testing.T) {
	r := newTestRouter(t, nil)
	body := `{"name":"Shoes","imageUrl":"/images/shoes.png"}`

	w := request{method: http.MethodPost, path: "/admin/categories", body: body}.do(r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, httpx.CodeUnauthorized, decode[httpx.ErrorResponse](t, w).Error)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/categories", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request{method: http.MethodPost, path: "/admin/categories", body: body, admin: true}.do(r)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request{method: http.MethodGet, path: "/api/categories"}.do(r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]catalog.Category](t, w), 1)

	t.Run("open when no token is configured", func(t *testing.T) {
		h := adminAuth("")
		e := gin.New()
		e.GET("/x", h, func(c *gin.Context) { c.Status(http.StatusNoContent) })
		w := request{method: http.MethodGet, path: "/x"}.do(e)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestShopperRoutesRequireID(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/cart", "/api/favorites", "/api/cart/quote"} {
		w := request{method: http.MethodGet, path: path}.do(r)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w := request{method: http.MethodGet, path: "/api/products"}.do(r)
	assert.Equal(t, http.StatusOK, w.Code, "catalog is public")
}

func TestShoppingFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	shopper := uuid.NewString()

	w := request{
		method: http.MethodPost, path: "/admin/products", admin: true,
		body: `{"name":"Jacket","description":"Denim jacket","price":"45.50","images":["j.png"],"category":"Hombre"}`,
	}.do(r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	jacket := decode[catalog.Product](t, w)

	w = request{method: http.MethodGet, path: "/api/cart/quote", shopper: shopper}.do(r)
	assert.Equal(t, http.StatusConflict, w.Code, "empty cart cannot be quoted")

	w = request{
		method: http.MethodPost, path: "/api/cart/items", shopper: shopper,
		body: `{"productId":"` + jacket.ID + `","quantity":2,"size":"M"}`,
	}.do(r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decode[cartdomain.Cart](t, w)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("91")))
	assert.True(t, cart.Shipping.Equal(decimal.RequireFromString("10")), "below the free shipping threshold")

	w = request{
		method: http.MethodPut, path: "/admin/products/" + jacket.ID, admin: true,
		body: `{"name":"Jacket","description":"Denim jacket","price":"40","images":["j.png"],"category":"Hombre"}`,
	}.do(r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request{method: http.MethodGet, path: "/api/cart/quote", shopper: shopper}.do(r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[checkoutdomain.Quote](t, w)
	require.Len(t, quote.Lines, 1)
	assert.True(t, quote.Lines[0].PriceChanged)
	assert.True(t, quote.Subtotal.Equal(decimal.RequireFromString("80")))
	assert.True(t, quote.Shipping.Equal(decimal.RequireFromString("10")))

	w = request{
		method: http.MethodPost, path: "/api/favorites", shopper: shopper,
		body: `{"productId":"` + jacket.ID + `"}`,
	}.do(r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request{method: http.MethodGet, path: "/api/favorites/" + jacket.ID, shopper: shopper}.do(r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"productId":"`+jacket.ID+`","favorite":true}`, w.Body.String())

	t.Run("other shoppers are isolated", func(t *testing.T) {
		other := uuid.NewString()
		w := request{method: http.MethodGet, path: "/api/cart", shopper: other}.do(r)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[cartdomain.Cart](t, w).Items)
	})

	w = request{method: http.MethodDelete, path: "/api/cart", shopper: shopper}.do(r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartdomain.Cart](t, w).Items)
}
