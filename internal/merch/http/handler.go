package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/storefront/internal/merch/app"
	"github.com/dwikikusuma/storefront/internal/merch/domain"
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

func (h *Handler) Register(public, admin *gin.RouterGroup) {
	public.GET("/banners/active", h.ActiveBanner)
	public.GET("/countdowns/active", h.ActiveTimer)
	public.GET("/nav", h.EnabledNav)

	admin.GET("/banners", h.ListBanners)
	admin.GET("/banners/:id", h.GetBanner)
	admin.POST("/banners", h.CreateBanner)
	admin.PUT("/banners/:id", h.UpdateBanner)
	admin.DELETE("/banners/:id", h.DeleteBanner)

	admin.GET("/countdowns", h.ListTimers)
	admin.GET("/countdowns/:id", h.GetTimer)
	admin.POST("/countdowns", h.CreateTimer)
	admin.PUT("/countdowns/:id", h.UpdateTimer)
	admin.DELETE("/countdowns/:id", h.DeleteTimer)

	admin.GET("/nav", h.ListNav)
	admin.GET("/nav/:id", h.GetNavItem)
	admin.POST("/nav", h.CreateNavItem)
	admin.PUT("/nav/:id", h.UpdateNavItem)
	admin.DELETE("/nav/:id", h.DeleteNavItem)
}

type bannerRequest struct {
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	BackgroundImageURL string `json:"backgroundImageUrl"`
	ButtonText         string `json:"buttonText"`
	ButtonLink         string `json:"buttonLink"`
	IsActive           bool   `json:"isActive"`
}

func (r bannerRequest) input() app.BannerInput {
	return app.BannerInput(r)
}

type timerRequest struct {
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
	IsActive  bool      `json:"isActive"`
}

func (r timerRequest) input() app.TimerInput {
	return app.TimerInput(r)
}

type navRequest struct {
	Title        string         `json:"title"`
	URL          string         `json:"url"`
	Type         domain.NavType `json:"type"`
	Order        int            `json:"order"`
	Enabled      bool           `json:"enabled"`
	OpenInNewTab bool           `json:"openInNewTab"`
}

func (r navRequest) input() app.NavInput {
	return app.NavInput(r)
}

type activeTimerResponse struct {
	domain.CountdownTimer
	Remaining domain.Remaining `json:"remaining"`
}

func (h *Handler) ActiveBanner(c *gin.Context) {
	b, err := h.svc.ActiveBanner(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ActiveTimer handles GET /countdowns/active, with the time left split
// into days, hours, minutes and seconds.
func (h *Handler) ActiveTimer(c *gin.Context) {
	t, err := h.svc.ActiveTimer(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, activeTimerResponse{
		CountdownTimer: t,
		Remaining:      domain.SplitDuration(t.TimeLeft(h.svc.Now())),
	})
}

func (h *Handler) EnabledNav(c *gin.Context) {
	items, err := h.svc.EnabledNav(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) ListBanners(c *gin.Context) {
	items, err := h.svc.ListBanners(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBanner(c *gin.Context) {
	b, err := h.svc.GetBanner(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateBanner(c *gin.Context) {
	var req bannerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	b, err := h.svc.CreateBanner(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBanner(c *gin.Context) {
	var req bannerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	b, err := h.svc.UpdateBanner(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBanner(c *gin.Context) {
	if err := h.svc.DeleteBanner(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTimers(c *gin.Context) {
	items, err := h.svc.ListTimers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetTimer(c *gin.Context) {
	t, err := h.svc.GetTimer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTimer(c *gin.Context) {
	var req timerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateTimer(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTimer(c *gin.Context) {
	var req timerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	t, err := h.svc.UpdateTimer(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTimer(c *gin.Context) {
	if err := h.svc.DeleteTimer(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListNav handles GET /admin/nav, including disabled items.
func (h *Handler) ListNav(c *gin.Context) {
	items, err := h.svc.ListNav(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetNavItem(c *gin.Context) {
	item, err := h.svc.GetNavItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateNavItem(c *gin.Context) {
	var req navRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	item, err := h.svc.CreateNavItem(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateNavItem(c *gin.Context) {
	var req navRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	item, err := h.svc.UpdateNavItem(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteNavItem(c *gin.Context) {
	if err := h.svc.DeleteNavItem(c.Request.Context(), c.Param("id")); err != nil {
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
