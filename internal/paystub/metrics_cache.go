package paystub

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const MetricsKeyPrefix = "paystubs:metrics:"

// GetMetricsKey is the redis hash holding every cached date range of one
// company.
func GetMetricsKey(companyID string) string {
	return MetricsKeyPrefix + companyID
}

// GetMetricsVersionKey counts invalidations of one company's metrics.
func GetMetricsVersionKey(companyID string) string {
	return GetMetricsKey(companyID) + ":version"
}

func metricsField(from, to *time.Time) string {
	start, end := "*", "*"
	if from != nil {
		start = from.Format(dateLayout)
	}
	if to != nil {
		end = to.Format(dateLayout)
	}
	return start + "|" + end
}

// storeMetricsScript writes a field only while the version key still holds
// the version the computation started from.
const storeMetricsScript = `
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
redis.call('EXPIRE', KEYS[1], ARGV[4])
return 1
`

// MetricsInvalidator drops cached metrics after stubs change.
type MetricsInvalidator interface {
	Invalidate(ctx context.Context, companyID string)
}

// MetricsCache stores the stub aggregate of each company and date range in
// one redis hash per company. Ledger counts are not cached. A nil client
// disables caching.
type MetricsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewMetricsCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *MetricsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MetricsCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *MetricsCache) Get(ctx context.Context, companyID, field string) (Aggregate, bool) {
	if c == nil || c.rdb == nil {
		return Aggregate{}, false
	}
	cached, err := c.rdb.HGet(ctx, GetMetricsKey(companyID), field).Result()
	if err != nil {
		return Aggregate{}, false
	}
	var agg Aggregate
	if err := json.Unmarshal([]byte(cached), &agg); err != nil {
		return Aggregate{}, false
	}
	return agg, true
}

// Version is read before computing an aggregate and handed back to Set.
func (c *MetricsCache) Version(ctx context.Context, companyID string) int64 {
	if c == nil || c.rdb == nil {
		return 0
	}
	v, err := c.rdb.Get(ctx, GetMetricsVersionKey(companyID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("failed to read pay stub metrics version", zap.String("company_id", companyID), zap.Error(err))
	}
	return v
}

// Set caches agg unless the company was invalidated after version was read.
func (c *MetricsCache) Set(ctx context.Context, companyID, field string, version int64, agg Aggregate) {
	if c == nil || c.rdb == nil {
		return
	}
	payload, err := json.Marshal(agg)
	if err != nil {
		return
	}
	key := GetMetricsKey(companyID)
	stored, err := c.rdb.Eval(ctx, storeMetricsScript,
		[]string{key, GetMetricsVersionKey(companyID)},
		strconv.FormatInt(version, 10), field, string(payload), int64(c.ttl/time.Second),
	).Int64()
	if err != nil {
		c.logger.Warn("failed to cache pay stub metrics", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("skipped caching stale pay stub metrics", zap.String("key", key))
	}
}

// Invalidate bumps the version before dropping the hash, so a computation
// that started earlier can no longer store its result.
func (c *MetricsCache) Invalidate(ctx context.Context, companyID string) {
	if c == nil || c.rdb == nil {
		return
	}
	key := GetMetricsKey(companyID)
	if err := c.rdb.Incr(ctx, GetMetricsVersionKey(companyID)).Err(); err != nil {
		c.logger.Error("failed to bump pay stub metrics version", zap.String("key", key), zap.Error(err))
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Error("failed to invalidate pay stub metrics", zap.String("key", key), zap.Error(err))
	}
}
