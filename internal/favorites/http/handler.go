package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	favapp "github.com/dwikikusuma/storefront/internal/favorites/app"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type Sessions interface {
	Favorites(ctx context.Context, shopperID string) (*favapp.Store, error)
}

type Handler struct {
	sessions Sessions
	products ProductLookup
	log      *slog.Logger
}

func NewHandler(sessions Sessions, products ProductLookup, log *slog.Logger) *Handler {
	return &Handler{sessions: sessions, products: products, log: log}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/favorites", h.List)
	g.POST("/favorites", h.Add)
	g.DELETE("/favorites", h.Clear)
	g.GET("/favorites/:productId", h.IsFavorite)
	g.DELETE("/favorites/:productId", h.Remove)
}

type addRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type favoriteResponse struct {
	ProductID string `json:"productId"`
	Favorite  bool   `json:"favorite"`
}

func (h *Handler) List(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Favorites())
}

func (h *Handler) Add(c *gin.Context) {
	var req addRequest
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
	c.JSON(http.StatusOK, store.Add(ctx, p))
}

func (h *Handler) IsFavorite(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id := c.Param("productId")
	c.JSON(http.StatusOK, favoriteResponse{ProductID: id, Favorite: store.IsFavorite(id)})
}

func (h *Handler) Remove(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Remove(c.Request.Context(), c.Param("productId")))
}

func (h *Handler) Clear(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Clear(c.Request.Context()))
}

func (h *Handler) store(c *gin.Context) (*favapp.Store, bool) {
	store, err := h.sessions.Favorites(c.Request.Context(), session.ShopperID(c))
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
