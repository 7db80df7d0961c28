package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const keyPrefix = "storefront:"

// KV implements repository.KV using Redis. Keys are stored as
// storefront:<namespace>:<key>.
type KV struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewKV creates a Redis-backed store for namespace. A zero ttl stores keys
// without expiry; otherwise every write refreshes the expiry.
func NewKV(client *redis.Client, namespace string, ttl time.Duration) *KV {
	return &KV{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (r *KV) key(key string) string {
	return keyPrefix + r.namespace + ":" + key
}

// Get retrieves the value stored under key.
func (r *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("key", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set stores value under key with the configured TTL.
func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key from Redis.
func (r *KV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity to the Redis server.
func (r *KV) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
