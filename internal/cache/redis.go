package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBlacklist stores revoked jtis as plain keys with a TTL. No value
// worth keeping; existence is the answer.
type redisBlacklist struct {
	client *redis.Client
}

// NewRedis connects to the given Redis address and returns a Blacklist
// backed by it.
func NewRedis(addr, password string, db int) (Blacklist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &redisBlacklist{client: client}, nil
}

func blacklistKey(jti string) string {
	return "blacklist:jti:" + jti
}

func (b *redisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to blacklist
	}
	return b.client.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func (b *redisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (b *redisBlacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBlacklist) Close() error {
	return b.client.Close()
}
