// Package startup: подключение к внешним зависимостям при запуске: Postgres, Redis, миграции.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/projectcancer/internal/logger"
)

const maxBackoff = 30 * time.Second

// retry вызывает attempt, пока он не вернёт nil, с экспоненциальной паузой от 2s до 30s.
// Через maxWait или при отмене ctx возвращает последнюю ошибку.
func retry(ctx context.Context, maxWait time.Duration, what string, attempt func(ctx context.Context) error) error {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%s (gave up after %v): %w", what, maxWait, err)
		}
		logger.Errorf("%s failed, retry in %v: %v", what, backoff, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
