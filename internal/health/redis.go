package health

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisChecker pings a go-redis client.
type RedisChecker struct {
	Client *redis.Client
}

// PingRedis implements Checker.
func (c RedisChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Client.Ping(ctx).Err()
}
