package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
)

// DefaultPoolKeysTTL bounds how long pool metadata is served from cache.
// Pool accounts never move, but a stale index entry should age out.
const DefaultPoolKeysTTL = 24 * time.Hour

// RedisCache stores resolved pool keys so restarts skip the index download
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ raydium.PoolKeysCache = (*RedisCache)(nil)

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultPoolKeysTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// GetPoolKeys returns nil, nil on a miss.
func (r *RedisCache) GetPoolKeys(ctx context.Context, poolID string) (*raydium.PoolKeys, error) {
	val, err := r.client.Get(ctx, poolKeysKey(poolID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pool keys: %w", err)
	}

	var keys raydium.PoolKeys
	if err := sonic.UnmarshalString(val, &keys); err != nil {
		return nil, fmt.Errorf("unmarshal pool keys: %w", err)
	}
	return &keys, nil
}

func (r *RedisCache) SetPoolKeys(ctx context.Context, poolID string, keys *raydium.PoolKeys) error {
	b, err := sonic.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal pool keys: %w", err)
	}
	if err := r.client.Set(ctx, poolKeysKey(poolID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("set pool keys: %w", err)
	}
	return nil
}

func poolKeysKey(poolID string) string {
	return constants.RedisKeyPoolKeysPrefix + poolID
}
