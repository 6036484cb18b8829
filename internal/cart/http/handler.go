package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type Sessions interface {
	Cart(ctx context.Context, shopperID string) (*cartapp.Store, error)
}

type Handler struct {
	sessions Sessions
	products ProductLookup
	log      *slog.Logger
}

func NewHandler(sessions Sessions, products ProductLookup, log *slog.Logger) *Handler {
	return &Handler{sessions: sessions, products: products, log: log}
}

// Register mounts the cart routes on a group that already runs
// session.Middleware.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/cart", h.GetCart)
	g.DELETE("/cart", h.ClearCart)
	g.POST("/cart/items", h.AddItem)
	g.PATCH("/cart/items/:id", h.SetQuantity)
	g.DELETE("/cart/items/:id", h.RemoveItem)
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) GetCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Cart())
}

// AddItem handles POST /cart/items. The product is read from the catalog so
// the line carries the current name, price and images.
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	p, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, store.Add(ctx, p, req.Quantity, req.Size, req.Color))
}

// SetQuantity handles PATCH /cart/items/:id. Zero or less removes the line.
func (h *Handler) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity))
}

func (h *Handler) RemoveItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Remove(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ClearCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Clear(c.Request.Context()))
}

func (h *Handler) store(c *gin.Context) (*cartapp.Store, bool) {
	store, err := h.sessions.Cart(c.Request.Context(), session.ShopperID(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return store, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	httpx.Fail(c, h.log, err, mapErr)
}

func mapErr(err error) httpx.Status {
	switch {
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return httpx.StatusInvalid
	case errors.Is(err, catalogapp.ErrNotFound):
		return httpx.StatusNotFound
	default:
		return httpx.StatusInternal
	}
}
