package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB открывает пул pgx и ждёт, пока база ответит на ping (контейнер Postgres может стартовать позже сервиса).
func ConnectDB(ctx context.Context, dsn string, maxConns int, maxWait time.Duration) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	var pool *pgxpool.Pool
	err = retry(ctx, maxWait, "db connect", func(ctx context.Context) error {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		p, err := pgxpool.NewWithConfig(connCtx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(connCtx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
