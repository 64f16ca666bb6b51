package cachestore

import (
	"context"
	"time"
)

// How long a rendered mod-stats report stays fresh unless the daemon
// overrides it (--stats-cache-ttl).
const DefaultStatsTTL = 30 * time.Minute

// Small TTL'd cache for derived read-side values (eg rendered mod-stats
// reports). Never authoritative: a miss is always safe.
type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

func cacheKey(name, key string) string {
	return name + "/" + key
}
