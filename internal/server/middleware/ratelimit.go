package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "ratelimit:"

// RateLimit is a fixed-window per-client-IP rate limiter backed by
// Redis, so the limit holds across multiple instances. A nil client
// disables limiting entirely. Redis trouble fails open: a throttling
// outage must not take the ledger down with it.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, log zerolog.Logger) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := keyPrefix + c.ClientIP()

		// INCR and EXPIRE run in one MULTI/EXEC so the counter can
		// never be left behind without a TTL; ExpireNX only arms the
		// window on the first hit.
		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, retry later",
			})
			return
		}

		c.Next()
	}
}
