package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-paystub/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyCacheKey = "idempotency_cache_key"
	IdempotencyLockKey  = "idempotency_lock_key"

	DefaultIdempotencyLockTTL = 30 * time.Second
)

// CachedResponse is what a handler stores under the idempotency cache key.
type CachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

func EncodeCachedResponse(status int, body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(CachedResponse{Status: status, Body: raw})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key header, with its original status, and rejects a duplicate
// that arrives while the first one is still running. lockTTL should outlast
// the slowest request the route serves. The handler stores the response under
// the cache key and releases the lock.
func Idempotency(rdb *redis.Client, lockTTL time.Duration) gin.HandlerFunc {
	if lockTTL <= 0 {
		lockTTL = DefaultIdempotencyLockTTL
	}
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if rdb == nil || idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userID := c.GetString("user_id_validated")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(c.Request.Context(), cacheKey).Result()
		if err == nil {
			var cached CachedResponse
			if json.Unmarshal([]byte(val), &cached) == nil && cached.Status != 0 {
				response.Success(c, cached.Status, cached.Body, nil)
				c.Abort()
				return
			}
		}

		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", lockTTL).Result()
		if err == nil && !isNew {
			response.Error(c, http.StatusConflict, "PROCESSING", "A request with this idempotency key is still being processed", nil)
			c.Abort()
			return
		}

		c.Set(IdempotencyCacheKey, cacheKey)
		c.Set(IdempotencyLockKey, lockKey)

		c.Next()
	}
}
