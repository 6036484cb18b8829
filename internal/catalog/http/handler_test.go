package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/catalog/infra/sqlite"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/dwikikusuma/storefront/pkg/logger"
	sqlitedb "github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlitedb.Open(sqlitedb.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := docstore.New(db)
	require.NoError(t, store.Migrate(context.Background()))

	log := logger.Discard()
	svc := app.NewService(sqlite.NewProductRepo(store), sqlite.NewCategoryRepo(store), events.NewBus(log), log)

	r := gin.New()
	NewHandler(svc, log).Register(r.Group("/api"), r.Group("/admin"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestProductRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"name":"Boots","description":"Leather boots","price":"120.00","images":["b.png"],"category":"Shoes"}`,
		`{"name":"Belt","description":"Leather belt","price":30,"images":["x.png"],"category":"Accessories"}`,
		`{"name":"Scarf","description":"Wool scarf","price":"25.5","images":["s.png"],"category":"Accessories"}`,
	} {
		w := do(r, http.MethodPost, "/admin/products", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("filtered listing", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/products?category=Accessories&sort=price-asc", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got []domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Scarf", got[0].Name)
		assert.Equal(t, "Belt", got[1].Name)
	})

	t.Run("price range", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/products?minPrice=26&maxPrice=200", "")
		var got []domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("bad query -> 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products?minPrice=abc", "").Code)
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/products?sort=random", "").Code)
	})

	t.Run("search", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/search?q=LEATHER", "")
		var got []domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("get, update, delete", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/products?q=scarf", "")
		var got []domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		id := got[0].ID

		w = do(r, http.MethodPut, "/admin/products/"+id,
			`{"name":"Scarf","description":"Wool scarf","price":"19.99","images":["s.png"],"category":"Accessories"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(r, http.MethodGet, "/api/products/"+id, "")
		var p domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, "19.99", p.Price.StringFixed(2))

		assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/admin/products/"+id, "").Code)
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/products/"+id, "").Code)
	})

	t.Run("invalid product -> 400", func(t *testing.T) {
		w := do(r, http.MethodPost, "/admin/products", `{"name":"x","description":"y","price":0,"images":["a"],"category":"c"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCategoryRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/admin/categories", `{"name":"Shoes","imageUrl":"/img/shoes.png"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var c domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))

	w = do(r, http.MethodGet, "/api/categories", "")
	var all []domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/categories/"+c.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/categories/nope", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/admin/categories", `{"name":"x"}`).Code)
}

