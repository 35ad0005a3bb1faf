package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/parcel-api/internal/config"
	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/store"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces cached parcel views.
const KeyPrefix = "parcel:view:"

// Client is the subset of the go-redis API the cache uses.
// *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Recorder receives cache hit/miss notifications.
type Recorder interface {
	CacheResult(hit bool)
}

// CachedParcelStore decorates a store.ParcelStore with a redis cache.
// Only successful lookups are cached; redis failures fall through to the
// wrapped store.
type CachedParcelStore struct {
	next     store.ParcelStore
	client   Client
	ttl      time.Duration
	recorder Recorder
	logger   *slog.Logger
}

// Ensure CachedParcelStore implements store.ParcelStore interface
var _ store.ParcelStore = (*CachedParcelStore)(nil)

// NewCachedParcelStore wraps next. recorder may be nil.
func NewCachedParcelStore(
	next store.ParcelStore,
	client Client,
	ttl time.Duration,
	recorder Recorder,
	logger *slog.Logger,
) *CachedParcelStore {
	if next == nil || client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("next store and redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedParcelStore{
		next:     next,
		client:   client,
		ttl:      ttl,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "parcel_cache")),
	}
}

// NewRedisClient connects to redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// GetView implements store.ParcelStore.GetView.
func (c *CachedParcelStore) GetView(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
	key := KeyPrefix + parcelID

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var view domain.ParcelView
		jsonErr := json.Unmarshal(raw, &view)
		if jsonErr == nil {
			c.record(true)
			return &view, nil
		}
		c.logger.Warn("discarding undecodable cache entry",
			slog.String("parcel_id", parcelID),
			slog.String("error", jsonErr.Error()))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("cache read failed, falling back to store",
			slog.String("parcel_id", parcelID),
			slog.String("error", err.Error()))
	}
	c.record(false)

	view, err := c.next.GetView(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(view); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed",
				slog.String("parcel_id", parcelID),
				slog.String("error", err.Error()))
		}
	}

	return view, nil
}

func (c *CachedParcelStore) record(hit bool) {
	if c.recorder != nil {
		c.recorder.CacheResult(hit)
	}
}
