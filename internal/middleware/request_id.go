package middleware

import (
	"performa/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader   = "X-Request-ID"
	maxRequestIDBytes = 64
)

// RequestID propagates a caller supplied X-Request-ID or mints one. Incoming
// ids longer than the outbox column are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDBytes {
			rid = uuid.NewString()
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(contextutil.WithRequestID(c.Request.Context(), rid))
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}
