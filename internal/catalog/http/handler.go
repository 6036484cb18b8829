package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the read API on public and the CRUD routes on admin.
func (h *Handler) Register(public, admin *gin.RouterGroup) {
	public.GET("/products", h.ListProducts)
	public.GET("/products/:id", h.GetProduct)
	public.GET("/search", h.Search)
	public.GET("/categories", h.ListCategories)
	public.GET("/categories/:id", h.GetCategory)

	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
}

func (r productRequest) input() app.ProductInput {
	return app.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		Category:    r.Category,
	}
}

type categoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// ListProducts handles GET /products?category=&minPrice=&maxPrice=&sort=&q=
func (h *Handler) ListProducts(c *gin.Context) {
	f, err := parseFilters(c)
	if err != nil {
		httpx.Abort(c, httpx.StatusInvalid, "invalid query", err.Error())
		return
	}

	products, err := h.svc.ListProducts(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Search handles GET /search?q=
func (h *Handler) Search(c *gin.Context) {
	products, err := h.svc.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) GetCategory(c *gin.Context) {
	cat, err := h.svc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	cat, err := h.svc.CreateCategory(c.Request.Context(), app.CategoryInput{Name: req.Name, ImageURL: req.ImageURL})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	cat, err := h.svc.UpdateCategory(c.Request.Context(), c.Param("id"), app.CategoryInput{Name: req.Name, ImageURL: req.ImageURL})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	httpx.Fail(c, h.log, err, mapErr)
}

func mapErr(err error) httpx.Status {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return httpx.StatusInvalid
	case errors.Is(err, app.ErrNotFound):
		return httpx.StatusNotFound
	default:
		return httpx.StatusInternal
	}
}

func parseFilters(c *gin.Context) (domain.Filters, error) {
	f := domain.Filters{
		Category: c.Query("category"),
		SortBy:   domain.SortOption(c.Query("sort")),
		Search:   c.Query("q"),
	}

	var err error
	if f.MinPrice, err = parsePrice(c, "minPrice"); err != nil {
		return domain.Filters{}, err
	}
	if f.MaxPrice, err = parsePrice(c, "maxPrice"); err != nil {
		return domain.Filters{}, err
	}
	return f, nil
}

func parsePrice(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &d, nil
}
