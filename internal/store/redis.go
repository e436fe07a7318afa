package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithTTL increments a counter and stamps its expiry in the same script
// invocation so the window TTL is only set when the counter is created.
var incrWithTTL = redis.NewScript(`
    local n = redis.call('INCR', KEYS[1])
    if n == 1 then
        redis.call('EXPIRE', KEYS[1], ARGV[1])
    end
    return n
`)

// RedisKV implements KV on a Redis client. Keys are namespaced with a prefix
// per logical store (e.g. "users:", "audit:").
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV wraps a Redis client under the given key prefix.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) key(k string) string { return r.prefix + k }

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	n, err := incrWithTTL.Run(ctx, r.client, []string{r.key(key)}, secs).Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries a bounded
// number of times when a concurrent writer touches the key first.
func (r *RedisKV) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	full := r.key(key)
	const attempts = 5
	for i := 0; i < attempts; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			old, err := tx.Get(ctx, full).Bytes()
			if errors.Is(err, redis.Nil) {
				old = nil
			} else if err != nil {
				return err
			}
			next, err := fn(old)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, full, next, 0)
				return nil
			})
			return err
		}, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}
