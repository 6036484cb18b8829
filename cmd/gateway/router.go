package main

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	carthttp "github.com/dwikikusuma/storefront/internal/cart/http"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	cataloghttp "github.com/dwikikusuma/storefront/internal/catalog/http"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	checkouthttp "github.com/dwikikusuma/storefront/internal/checkout/http"
	favhttp "github.com/dwikikusuma/storefront/internal/favorites/http"
	merchapp "github.com/dwikikusuma/storefront/internal/merch/app"
	merchhttp "github.com/dwikikusuma/storefront/internal/merch/http"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type routerDeps struct {
	Catalog  *catalogapp.Service
	Merch    *merchapp.Service
	Checkout *checkoutapp.Service
	Sessions *session.Registry

	// Ready reports whether backing stores are reachable.
	Ready      func(ctx context.Context) error
	AdminToken string
	Log        *slog.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(d.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				d.Log.Warn("not ready", slog.Any("err", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	shopper := api.Group("", session.Middleware())
	admin := r.Group("/admin", adminAuth(d.AdminToken))

	cataloghttp.NewHandler(d.Catalog, d.Log).Register(api, admin)
	merchhttp.NewHandler(d.Merch, d.Log).Register(api, admin)
	carthttp.NewHandler(d.Sessions, d.Catalog, d.Log).Register(shopper)
	favhttp.NewHandler(d.Sessions, d.Catalog, d.Log).Register(shopper)
	checkouthttp.NewHandler(d.Checkout, d.Log).Register(shopper)

	return r
}

// adminAuth requires "Authorization: Bearer <token>". An empty token leaves
// the admin routes open.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			httpx.Abort(c, httpx.StatusUnauthorized, "admin token required", "")
			return
		}
		c.Next()
	}
}

func accessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
