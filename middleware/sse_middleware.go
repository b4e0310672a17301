package middleware

import (
	"github.com/gin-gonic/gin"
)

// SSEMiddleware sets the event-stream headers for streaming endpoints.
// Keepalive comments are written by the stream handler itself between events,
// so exactly one goroutine ever touches the response writer.
func SSEMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

		c.Next()
	}
}
