package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_attempts:"

type Client struct {
	cli    *redis.Client
	max    int64
	window time.Duration
}

func New(ctx context.Context, url string, max int, window time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, max: int64(max), window: window}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Allow: SET NX EX и INCR одной транзакцией. Ключ создаётся сразу с TTL окна
// (окно фиксированное от первой попытки), счётчик без срока жизни не появляется.
func (c *Client) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key
	var incr *redis.IntCmd
	_, err := c.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, c.window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis login attempts: %w", err)
	}
	return incr.Val() <= c.max, nil
}

func (c *Client) Reset(ctx context.Context, key string) error {
	return c.cli.Del(ctx, keyPrefix+key).Err()
}
