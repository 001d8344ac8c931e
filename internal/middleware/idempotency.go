package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftride/internal/cache"
	"swiftride/internal/idempotency"
)

// IdempotencyKeyContextKey is where the middleware exposes the request's
// idempotency key to handlers.
const IdempotencyKeyContextKey = "idempotency_key"

// responseRecorder wraps gin.ResponseWriter to capture the body.
type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays recorded responses for retried mutating requests.
//
// A request whose key was seen before gets the original response byte
// for byte, without re-entering the handler. When the client sends no
// key one is synthesized and echoed back, which gives the response a
// correlation handle but no replay guarantee.
func Idempotency(coordinator *idempotency.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key, supplied := idempotency.KeyFromRequest(c.Request)
		c.Set(IdempotencyKeyContextKey, key)
		c.Header(idempotency.HeaderKey, key)

		if supplied {
			if stored, ok := coordinator.Lookup(c.Request.Context(), key); ok {
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		coordinator.Record(c.Request.Context(), key, cache.StoredResponse{
			StatusCode:  recorder.Status(),
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
	}
}
