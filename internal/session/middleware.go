package session

import (
	"github.com/dwikikusuma/storefront/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderShopperID = "X-Shopper-ID"
	shopperKey      = "session.shopperID"
)

// Middleware requires a UUID shopper id header and stores its canonical
// form on the context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderShopperID)
		if raw == "" {
			httpx.Abort(c, httpx.StatusInvalid, "missing shopper id", HeaderShopperID+" header is required")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Abort(c, httpx.StatusInvalid, "invalid shopper id", HeaderShopperID+" must be a UUID")
			return
		}
		c.Set(shopperKey, id.String())
		c.Next()
	}
}

// ShopperID returns the id resolved by Middleware, or "" outside it.
func ShopperID(c *gin.Context) string {
	return c.GetString(shopperKey)
}
