package cachestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

// RedisBackend stores each entry as a single SET ... PXAT key, letting
// Redis itself expire stale rows, per spec.md §6's persisted layout.
// Grounded on EdgeComet-engine/internal/common/redis's client wrapper
// shape (typed constructor, logged failures, thin method-per-command).
type RedisBackend struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// RedisConfig is the subset of cache.redis.* TOML options this backend
// needs (see internal/config).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisBackend(cfg RedisConfig, logger *zap.Logger) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, svcerr.ConfigMissing("cache.redis.addr")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, svcerr.Backend("redis", err)
	}
	return &RedisBackend{rdb: rdb, logger: logger}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, now time.Time, key []byte) (Entry, bool, error) {
	pipe := b.rdb.Pipeline()
	getCmd := pipe.Get(ctx, string(key))
	pttlCmd := pipe.PTTL(ctx, string(key))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Entry{}, false, svcerr.Backend("redis", err)
	}
	val, err := getCmd.Result()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, svcerr.Backend("redis", err)
	}
	var embed embedmodel.EmbedV1
	if err := json.Unmarshal([]byte(val), &embed); err != nil {
		// deserialize failure: miss, not delete (spec.md §9 Q2)
		b.logger.Warn("redis: undecodable cache value", zap.String("key", string(key)), zap.Error(err))
		return Entry{}, false, nil
	}
	ttl := pttlCmd.Val()
	if ttl <= 0 {
		// key expired or carries no TTL (shouldn't happen for our own
		// writes); Redis itself is the source of truth on expiry.
		return Entry{}, false, nil
	}
	return Entry{Embed: &embed, ExpiresAt: now.Add(ttl)}, true, nil
}

func (b *RedisBackend) Put(ctx context.Context, key []byte, e Entry) error {
	// The stored value is the embed JSON verbatim, per spec.md §6's
	// persisted layout (`SET <url-bytes> <json> PXAT <expires-ms>`);
	// Redis's own PXAT expiry is authoritative, not a re-derived
	// application-level timestamp envelope.
	data, err := json.Marshal(e.Embed)
	if err != nil {
		return svcerr.JSON(err)
	}
	ms := e.ExpiresAt.UTC().UnixMilli()
	if err := b.rdb.Do(ctx, "SET", string(key), string(data), "PXAT", ms).Err(); err != nil {
		return svcerr.Backend("redis", err)
	}
	return nil
}

func (b *RedisBackend) Del(ctx context.Context, key []byte) error {
	if err := b.rdb.Del(ctx, string(key)).Err(); err != nil {
		return svcerr.Backend("redis", err)
	}
	return nil
}

func (b *RedisBackend) Shutdown(_ context.Context) error {
	if err := b.rdb.Close(); err != nil {
		return svcerr.Backend("redis", err)
	}
	return nil
}
