package storage

import "context"

// LoginLimiter считает попытки входа по ключу (username) в окне времени.
// Реализации: redis.Client и memory.Client (для -dev без Redis).
type LoginLimiter interface {
	// Allow регистрирует попытку и сообщает, не превышен ли лимит окна.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset обнуляет счётчик после успешного входа.
	Reset(ctx context.Context, key string) error
	Close() error
}
