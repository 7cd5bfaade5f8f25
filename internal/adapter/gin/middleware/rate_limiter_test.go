package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func setupLimitedRouter(t *testing.T, cfg RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(RateLimiter(client, cfg, zaptest.NewLogger(t)))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := setupLimitedRouter(t, RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstCapacity:     3,
	})

	for i := 0; i < 3; i++ {
		w := doGet(r, "/ping")
		assert.Equal(t, http.StatusOK, w.Code, "request %d within burst", i+1)
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	r := setupLimitedRouter(t, RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstCapacity:     2,
	})

	doGet(r, "/ping")
	doGet(r, "/ping")

	w := doGet(r, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	r := setupLimitedRouter(t, RateLimitConfig{Enabled: false})

	for i := 0; i < 10; i++ {
		w := doGet(r, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Client pointed at a closed port: every Eval errors
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(RateLimiter(client, RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstCapacity:     1,
	}, zaptest.NewLogger(t)))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})

	w := doGet(r, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
}
