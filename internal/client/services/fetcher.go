package services

import (
	"context"
	"encoding/json"

	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/logging"
)

// MsgOfflineNoCache is the failure message of an offline cache miss.
const MsgOfflineNoCache = "offline and no cached data"

// Connectivity is the read side of connectivity.Monitor plus its active
// refresh.
type Connectivity interface {
	IsConnectedNow() bool
	RefreshStatus(ctx context.Context) bool
}

// Cache is the part of store.Store used by the read path.
type Cache interface {
	Put(ctx context.Context, key string, payload json.RawMessage) store.WriteResult
	Get(ctx context.Context, key string) (*models.CacheEntry, bool)
}

// RemoteFunc performs the remote half of a cache-aside read.
type RemoteFunc func(ctx context.Context) models.Envelope

// Fetcher implements the cache-aside read path: connectivity first, remote
// when online with write-through, cached data on any failure.
type Fetcher struct {
	conn    Connectivity
	cache   Cache
	metrics *metrics.Metrics
	log     logging.Logger
}

func NewFetcher(conn Connectivity, cache Cache, m *metrics.Metrics, log logging.Logger) *Fetcher {
	return &Fetcher{conn: conn, cache: cache, metrics: m, log: log.With("component", "fetcher")}
}

// FetchResource returns the resource stored under key. When offline the
// remote function is never called.
func (f *Fetcher) FetchResource(ctx context.Context, key string, remote RemoteFunc) models.Envelope {
	if !f.conn.IsConnectedNow() {
		if entry, ok := f.cache.Get(ctx, key); ok {
			f.metrics.CacheRead("cached")
			f.log.Debug(ctx, "offline read served from cache", "key", key, "stored_at", entry.StoredAt)
			return models.Cached(entry.Payload, "")
		}
		f.metrics.CacheRead("miss")
		return models.Fail(models.KindCacheMiss, 0, MsgOfflineNoCache)
	}

	env := remote(ctx)
	if env.Success {
		f.metrics.CacheRead("fresh")
		// best-effort; the store logs its own failures
		_ = f.cache.Put(ctx, key, env.Data)
		env.FromCache = false
		return env
	}

	if entry, ok := f.cache.Get(ctx, key); ok {
		f.metrics.CacheRead("fallback")
		f.log.Info(ctx, "remote failed, serving cached data", "key", key,
			"status", env.Status, "message", env.Message)
		return models.Cached(entry.Payload, env.Message)
	}
	f.metrics.CacheRead("failed")
	return env
}
