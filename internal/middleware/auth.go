package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"storefront-api/internal/response"
	"storefront-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const AdminPasswordHeader = "X-Admin-Password"

// AdminAuthMiddleware guards admin routes with a shared password. An empty
// password disables the routes.
func AdminAuthMiddleware(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			response.ErrorJSON(c, http.StatusForbidden, "Admin access is disabled")
			c.Abort()
			return
		}

		given := c.GetHeader(AdminPasswordHeader)
		if given == "" {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing admin credentials")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(given), []byte(password)) != 1 {
			logging.Warnf("Rejected admin request - path: %s, client_ip: %s", c.FullPath(), c.ClientIP())
			response.ErrorJSON(c, http.StatusUnauthorized, "Invalid admin credentials")
			c.Abort()
			return
		}

		c.Set("admin", true)
		c.Set("request_time", time.Now())
		c.Next()
	}
}
