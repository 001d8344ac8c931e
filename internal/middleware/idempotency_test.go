package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftride/internal/cache"
	"swiftride/internal/idempotency"
)

func newIdempotentRouter(handlerCalls *int32, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Idempotency(idempotency.NewCoordinator(cache.NewMemoryStore())))
	router.POST("/rides", func(c *gin.Context) {
		n := atomic.AddInt32(handlerCalls, 1)
		c.JSON(status, gin.H{"attempt": n})
	})
	return router
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var calls int32
	router := newIdempotentRouter(&calls, http.StatusCreated)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/rides", nil)
		req.Header.Set(idempotency.HeaderKey, "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	second := do()

	assert.Equal(t, int32(1), calls, "handler must run once")
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "replay must be byte-identical")
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	var calls int32
	router := newIdempotentRouter(&calls, http.StatusConflict)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rides", nil)
		req.Header.Set(idempotency.HeaderKey, "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)
	}

	assert.Equal(t, int32(3), calls, "failed attempts must stay retryable")
}

func TestIdempotencySynthesizesMissingKey(t *testing.T) {
	var calls int32
	router := newIdempotentRouter(&calls, http.StatusCreated)

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rides", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.NotEmpty(t, rec.Header().Get(idempotency.HeaderKey))
		bodies = append(bodies, rec.Body.String())
	}

	// Without a client key there is no replay: both requests execute.
	assert.Equal(t, int32(2), calls)
	assert.NotEqual(t, bodies[0], bodies[1])
}

func TestIdempotencySkipsReads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls int32
	router := gin.New()
	router.Use(Idempotency(idempotency.NewCoordinator(cache.NewMemoryStore())))
	router.GET("/rides/1", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"attempt": atomic.AddInt32(&calls, 1)})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/rides/1", nil)
		req.Header.Set(idempotency.HeaderKey, "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fmt.Sprintf(`{"attempt":%d}`, i+1), rec.Body.String())
	}
}
