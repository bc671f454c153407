package middleware

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/forge/common/id"
	"basegraph.app/forge/common/logger"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID assigns every request a snowflake id, reusing a numeric
// X-Request-Id from the caller, and puts it on the response and in log fields.
// id.Init must have run.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID, err := id.Parse(c.GetHeader(RequestIDHeader))
		if err != nil || reqID <= 0 {
			reqID = id.New()
		}

		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, id.Format(reqID))

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: logger.Ptr(reqID),
			Component: "forge.http",
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or 0.
func GetRequestID(c *gin.Context) int64 {
	return c.GetInt64(requestIDKey)
}
