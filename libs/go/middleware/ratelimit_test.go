package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/cyphera-delegation/libs/go/types/api/responses"
)

func newLimitedRouter(t *testing.T, requestsPerSecond float64, burst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(requestsPerSecond, burst)
	t.Cleanup(rl.Stop)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/delegations", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	return router
}

func send(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within rate limit", func(t *testing.T) {
		router := newLimitedRouter(t, 10, 20)

		for i := 0; i < 10; i++ {
			w := send(router, http.MethodPost, "/api/delegations", map[string]string{"X-Forwarded-For": "192.168.1.1"})
			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		router := newLimitedRouter(t, 1, 2)
		headers := map[string]string{"X-Forwarded-For": "192.168.1.2"}

		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", headers).Code)
		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", headers).Code)

		w := send(router, http.MethodPost, "/api/delegations", headers)
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		var body responses.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "RateLimited", body.Kind)
		assert.True(t, body.Transient)
	})

	t.Run("different clients have separate limits", func(t *testing.T) {
		router := newLimitedRouter(t, 1, 1)

		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-Forwarded-For": "192.168.1.3"}).Code)
		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-Forwarded-For": "192.168.1.4"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-Forwarded-For": "192.168.1.3"}).Code)
	})

	t.Run("API key based rate limiting", func(t *testing.T) {
		router := newLimitedRouter(t, 1, 1)

		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-API-Key": "test-key-123"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-API-Key": "test-key-123"}).Code)
		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", map[string]string{"X-API-Key": "other-key-456"}).Code)
	})

	t.Run("health endpoint is never limited", func(t *testing.T) {
		router := newLimitedRouter(t, 1, 1)

		for i := 0; i < 5; i++ {
			w := send(router, http.MethodGet, "/health", map[string]string{"X-Forwarded-For": "192.168.1.5"})
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("tokens replenish", func(t *testing.T) {
		router := newLimitedRouter(t, 20, 1)
		headers := map[string]string{"X-Forwarded-For": "192.168.1.6"}

		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", headers).Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/api/delegations", headers).Code)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, http.StatusAccepted, send(router, http.MethodPost, "/api/delegations", headers).Code)
	})
}

func TestRateLimiter_Concurrent(t *testing.T) {
	router := newLimitedRouter(t, 1, 10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := send(router, http.MethodPost, "/api/delegations", map[string]string{"X-Forwarded-For": "10.0.0.1"})
			if w.Code == http.StatusAccepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, accepted, 10)
	assert.LessOrEqual(t, accepted, 11)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	rl.getLimiter("ip:10.0.0.2")
	rl.evictIdle(time.Now())
	_, ok := rl.limiters.Load("ip:10.0.0.2")
	assert.True(t, ok)

	rl.evictIdle(time.Now().Add(limiterIdleTTL + time.Second))
	_, ok = rl.limiters.Load("ip:10.0.0.2")
	assert.False(t, ok)

	rl.Stop()
}
