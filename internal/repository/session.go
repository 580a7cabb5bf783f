package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/model"
)

// SessionRepository: таблица sessions. Каждый метод — один SQL-оператор по ключу,
// дополнительных блокировок не требуется.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	defer logger.DeferLogDuration("session.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, client_id, access_token, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.ClientID, s.AccessToken, s.IssuedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Create: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*model.Session, error) {
	defer logger.DeferLogDuration("session.GetByID", time.Now())()
	return r.getOne(ctx, "sessionRepo.GetByID",
		`SELECT session_id, client_id, access_token, issued_at, expires_at FROM sessions WHERE session_id = $1`, sessionID)
}

func (r *SessionRepository) GetByAccessToken(ctx context.Context, accessToken string) (*model.Session, error) {
	defer logger.DeferLogDuration("session.GetByAccessToken", time.Now())()
	return r.getOne(ctx, "sessionRepo.GetByAccessToken",
		`SELECT session_id, client_id, access_token, issued_at, expires_at FROM sessions WHERE access_token = $1`, accessToken)
}

func (r *SessionRepository) getOne(ctx context.Context, op, query string, arg string) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(&s.ID, &s.ClientID, &s.AccessToken, &s.IssuedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// UpdateAccessToken: ротация: новый access-токен становится единственным действующим.
// false: строки уже нет (сессия завершена параллельно).
func (r *SessionRepository) UpdateAccessToken(ctx context.Context, sessionID, accessToken string) (bool, error) {
	defer logger.DeferLogDuration("session.UpdateAccessToken", time.Now())()
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET access_token = $1 WHERE session_id = $2`, accessToken, sessionID)
	if err != nil {
		return false, fmt.Errorf("sessionRepo.UpdateAccessToken: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete удаляет сессию; отсутствие строки ошибкой не считается.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	defer logger.DeferLogDuration("session.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("sessionRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired удаляет строки с истёкшим refresh-токеном, возвращает число удалённых.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer logger.DeferLogDuration("session.DeleteExpired", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountByClientID: число активных входов клиента (несколько устройств).
func (r *SessionRepository) CountByClientID(ctx context.Context, clientID string) (int, error) {
	defer logger.DeferLogDuration("session.CountByClientID", time.Now())()
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE client_id = $1`, clientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sessionRepo.CountByClientID: %w", err)
	}
	return n, nil
}
