package idempotency

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"swiftride/internal/cache"
)

// Header names checked for a client-supplied idempotency key, in order.
const (
	HeaderKey    = "Idempotency-Key"
	HeaderKeyAlt = "X-Idempotency-Key"
)

// Coordinator records responses to mutating requests keyed by
// idempotency key, so a retried request replays the original response
// byte for byte instead of re-executing the operation.
type Coordinator struct {
	store cache.Store
}

// NewCoordinator creates a coordinator backed by the given store.
func NewCoordinator(store cache.Store) *Coordinator {
	return &Coordinator{store: store}
}

// KeyFromRequest returns the idempotency key for a request. When the
// client supplied none, a fresh key is synthesized so the response can
// still be recorded and the key echoed back for client-side retries.
func KeyFromRequest(r *http.Request) (key string, supplied bool) {
	if key := r.Header.Get(HeaderKey); key != "" {
		return key, true
	}
	if key := r.Header.Get(HeaderKeyAlt); key != "" {
		return key, true
	}
	return uuid.NewString(), false
}

// Lookup returns the recorded response for the key, if any.
func (c *Coordinator) Lookup(ctx context.Context, key string) (*cache.StoredResponse, bool) {
	return c.store.GetResponse(ctx, key)
}

// Record stores the response under the key. Only successful responses
// are recorded: a failed attempt must not pin its error for the whole
// retention window, the client should be able to retry it for real.
func (c *Coordinator) Record(ctx context.Context, key string, resp cache.StoredResponse) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return
	}
	c.store.SetResponse(ctx, key, resp)
}
