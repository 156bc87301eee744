package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"performa/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyLockTTL = 30 * time.Second

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST that was already handled
// with the same Idempotency-Key for the same user. Requests without the
// header pass through.
func Idempotency(rdb redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := contextutil.GetLogger(ctx, zap.L().Named("middleware.idempotency"))
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString("user_id"), idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached cachedResponse
			if err := json.Unmarshal(val, &cached); err == nil {
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// Redis being down should not block writes.
			logger.Warn("idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			abortWith(c, http.StatusConflict, "PROCESSING", "A request with this Idempotency-Key is still being processed")
			return
		}
		defer rdb.Del(ctx, lockKey)

		rec := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rec

		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError || rec.body.Len() == 0 {
			return
		}
		payload, err := json.Marshal(cachedResponse{Status: status, Body: rec.body.Bytes()})
		if err != nil {
			return
		}
		if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Warn("idempotency store failed", zap.Error(err))
		}
	}
}
