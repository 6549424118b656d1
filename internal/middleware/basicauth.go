package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/everkeep/lifecycle-management-api/internal/config"
	"github.com/everkeep/lifecycle-management-api/internal/utils"
)

// BasicAuth enforces HTTP basic authentication against the configured users.
// A disabled config turns the middleware into a pass-through.
func BasicAuth(security *config.SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !security.IsBasicAuthEnabled() {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok || !security.ValidateUser(username, password) {
			c.Writer.Header().Set("WWW-Authenticate", `Basic realm="lifecycle-management-api"`)
			utils.SendUnauthorizedError(c, "Invalid credentials")
			c.Abort()
			return
		}

		c.Next()
	}
}
