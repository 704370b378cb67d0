package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const settingsKeyPrefix = "settings:"

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GatewaySettings reads the option hash of one gateway. A missing hash is an
// empty map.
func (c *Cache) GatewaySettings(ctx context.Context, gateway string) (map[string]string, error) {
	return c.client.HGetAll(ctx, settingsKeyPrefix+gateway).Result()
}

func (c *Cache) SetGatewaySetting(ctx context.Context, gateway, option, value string) error {
	return c.client.HSet(ctx, settingsKeyPrefix+gateway, option, value).Err()
}

// IncrWindow bumps a fixed-window counter and returns its value.
func (c *Cache) IncrWindow(ctx context.Context, key string, period time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
