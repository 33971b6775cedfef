package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDenylist shares revocations across processes. Entries carry the
// remaining token lifetime as TTL, so Redis prunes them on its own.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

func NewRedisDenylist(client *redis.Client, prefix string) *RedisDenylist {
	if prefix == "" {
		prefix = "denylist"
	}
	return &RedisDenylist{client: client, prefix: prefix}
}

func (d *RedisDenylist) key(jti string) string {
	return d.prefix + ":" + jti
}

func (d *RedisDenylist) Insert(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	return d.client.Set(ctx, d.key(jti), 1, ttl).Err()
}

func (d *RedisDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
