package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// Redis stores each key as a plain string value under "<namespace>:<key>".
type Redis struct {
	rc        *redis.Client
	namespace string
}

// NewRedis wraps an existing client.
func NewRedis(rc *redis.Client, namespace string) *Redis {
	return &Redis{rc: rc, namespace: namespace}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	b, err := r.rc.Get(ctx, namespaced(r.namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return r.rc.Set(ctx, namespaced(r.namespace, key), value, 0).Err()
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return r.rc.Del(ctx, namespaced(r.namespace, key)).Err()
}

// Clear deletes the namespace using SCAN + pipelined DEL.
func (r *Redis) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*redisOpTimeout)
	defer cancel()
	var cursor uint64
	for {
		keys, next, err := r.rc.Scan(ctx, cursor, namespacePrefix(r.namespace)+"*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := r.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
