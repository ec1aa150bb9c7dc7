package middleware

import (
	"net/http"
	"strings"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid admin bearer token issued for the
// request's tenant. Runs after TenantMiddleware.
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			c.Abort()
			return
		}

		tokenTenant, err := authService.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		tenantCtx, ok := GetTenantContext(c)
		if !ok || tenantCtx.TenantID != tokenTenant {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match tenant"})
			c.Abort()
			return
		}
		c.Next()
	}
}
