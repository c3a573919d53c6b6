package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/redis"
)

const idempotencyHeader = "Idempotency-Key"

// bufferingWriter captures the response body while writing it through.
type bufferingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns middleware that replays the stored response for
// repeated mutating requests carrying the same Idempotency-Key header.
// Requests without the header pass through untouched.
func Idempotency(cache redis.ResponseCacheInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		cached, err := cache.Get(ctx, key)
		if err != nil {
			// Cache unavailable; serve the request without idempotency.
			c.Next()
			return
		}
		if cached != nil {
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &bufferingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Only successful or client-rejected responses replay; 5xx should
		// be retried for real.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			_ = cache.Put(ctx, key, &redis.CachedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
		}
	}
}
