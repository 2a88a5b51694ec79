package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key holding the request identifier
	RequestIDKey = "request_id"

	maxRequestIDLength = 128
)

// RequestIDMiddleware reuses an inbound X-Request-ID (up to 128 characters) or
// generates a UUID, stores it under RequestIDKey and echoes it in the response so
// clients can correlate their request with server-side log entries.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
