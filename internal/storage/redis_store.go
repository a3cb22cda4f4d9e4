package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore wraps the Redis client used for the audit cache and the live
// feed fan-out.
type RedisStore struct {
	Redis  *redis.Client
	Prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Redis: rdb, Prefix: prefix}
}

func (r *RedisStore) key(k string) string {
	return r.Prefix + k
}

// Get returns the cached bytes. A miss is (nil, false, nil).
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Redis.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Redis.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.Redis.Del(ctx, full...).Err()
}

// Publish sends a payload to every subscriber of the channel.
func (r *RedisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.Redis.Publish(ctx, r.key(channel), payload).Err()
}

// Subscribe returns a subscription to the channel; the caller closes it.
func (r *RedisStore) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return r.Redis.Subscribe(ctx, r.key(channel))
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.Redis.Ping(ctx).Err()
}
