package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationID propagates an X-Correlation-ID header across the request,
// generating one when the caller sent none
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set("correlationID", correlationID)
		c.Writer.Header().Set("X-Correlation-ID", correlationID)
		c.Next()
	}
}
