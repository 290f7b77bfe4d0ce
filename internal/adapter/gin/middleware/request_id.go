package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userboard-api/pkg/logger"
)

// HeaderRequestID is the header carrying the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with an ID. An incoming X-Request-ID is kept,
// otherwise a new UUID is generated. The ID is echoed in the response and
// stored in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
