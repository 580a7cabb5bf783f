package startup

import (
	"context"
	"time"

	redisstorage "github.com/projectcancer/internal/storage/redis"
)

// ConnectRedis подключает Redis-счётчик попыток входа (max попыток за window) с повторами.
func ConnectRedis(ctx context.Context, redisURL string, max int, window, maxWait time.Duration) (*redisstorage.Client, error) {
	var client *redisstorage.Client
	err := retry(ctx, maxWait, "redis connect", func(ctx context.Context) error {
		connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		c, err := redisstorage.New(connCtx, redisURL, max, window)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
