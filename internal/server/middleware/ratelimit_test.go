package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func runThrough(t *testing.T, handler gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(handler)
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w.Code
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	limiter := RateLimit(nil, 100, time.Minute, zerolog.Nop())
	assert.Equal(t, http.StatusOK, runThrough(t, limiter))
}

func TestRateLimitDisabledWithoutLimit(t *testing.T) {
	limiter := RateLimit(nil, 0, time.Minute, zerolog.Nop())
	assert.Equal(t, http.StatusOK, runThrough(t, limiter))
}
