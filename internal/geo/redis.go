package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/candidate-matcher/internal/logger"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "geocode:"

// redisStore is the subset of *redis.Client used by RedisCache.
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares resolved locations between processes. Errors are logged
// and treated as misses so geocoding keeps working without redis.
type RedisCache struct {
	rdb    redisStore
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisCache(rdb redisStore, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl < 0 {
		ttl = 0
	} else if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		rdb:    rdb,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
		logger: logger.OrNop(log),
	}
}

// NewRedisClient connects to the redis URL and checks it answers a ping.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", opts.Addr, err)
	}

	return rdb, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Location, bool) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("geocode cache: redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		c.logger.Debug("geocode cache: corrupt redis entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &loc, true
}

func (c *RedisCache) Set(ctx context.Context, key string, loc *Location) {
	if loc == nil {
		return
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("geocode cache: redis set failed", zap.String("key", key), zap.Error(err))
	}
}
