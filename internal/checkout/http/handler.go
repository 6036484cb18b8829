package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/storefront/internal/checkout/app"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/cart/quote", h.Quote)
}

// Quote handles GET /cart/quote for the current shopper.
func (h *Handler) Quote(c *gin.Context) {
	q, err := h.svc.Quote(c.Request.Context(), session.ShopperID(c))
	if err != nil {
		httpx.Fail(c, h.log, err, mapErr)
		return
	}
	c.JSON(http.StatusOK, q)
}

func mapErr(err error) httpx.Status {
	if errors.Is(err, app.ErrEmptyCart) {
		return httpx.StatusConflict
	}
	return httpx.StatusInternal
}
