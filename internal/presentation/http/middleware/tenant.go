// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the X-Tenant-ID header to an activated tenant
// context and stores it for handlers downstream.
func TenantMiddleware(manager *tenant.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header is required"})
			c.Abort()
			return
		}

		tenantCtx, err := manager.GetContext(tenantID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			c.Abort()
			return
		}

		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

// GetTenantContext retrieves the tenant context from gin context
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	value, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}

	ctx, ok := value.(*tenant.Context)
	return ctx, ok
}
