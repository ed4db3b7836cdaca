package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, client *redis.Client, maxRequests int, window time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(client, maxRequests, window))
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router
}

func doPing(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w
}

func TestRateLimitAllowsRequestsWithinLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	router := newLimitedRouter(t, client, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doPing(router).Code, "request %d", i+1)
	}
}

func TestRateLimitRejectsPastLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	router := newLimitedRouter(t, client, 2, time.Minute)

	require.Equal(t, http.StatusOK, doPing(router).Code)
	require.Equal(t, http.StatusOK, doPing(router).Code)

	w := doPing(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	router := newLimitedRouter(t, client, 1, time.Second)

	require.Equal(t, http.StatusOK, doPing(router).Code)
	require.Equal(t, http.StatusTooManyRequests, doPing(router).Code)

	srv.FastForward(2 * time.Second)
	assert.Equal(t, http.StatusOK, doPing(router).Code, "counter must expire with the window")
}

func TestRateLimitFailsClosedOnRedisError(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	router := newLimitedRouter(t, client, 5, time.Minute)
	srv.Close()

	w := doPing(router)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limiting error")
}
