package cachestore

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

var redisCachePrefix string = "modcache/"

// local TinyLFU layer in front of redis; sized for a handful of report
// shapes per community, far more than the daemon ever renders
const redisLocalCacheSize = 10_000

// RedisCacheStore shares cached reports across daemon instances, with a
// small local TinyLFU layer so repeated reads within the TTL skip the
// network entirely.
type RedisCacheStore struct {
	marshaled *cache.Cache
	ttl       time.Duration
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(redisURL string, ttl time.Duration) (*RedisCacheStore, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &RedisCacheStore{
		marshaled: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(redisLocalCacheSize, ttl),
		}),
		ttl: ttl,
	}, nil
}

func (s *RedisCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	var val string
	err := s.marshaled.Get(ctx, redisCachePrefix+cacheKey(name, key), &val)
	if err == cache.ErrCacheMiss {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, name, key string, val string) error {
	return s.marshaled.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCachePrefix + cacheKey(name, key),
		Value: val,
		TTL:   s.ttl,
	})
}

func (s *RedisCacheStore) Purge(ctx context.Context, name, key string) error {
	err := s.marshaled.Delete(ctx, redisCachePrefix+cacheKey(name, key))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
