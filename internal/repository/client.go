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

// clientCols: порядок колонок соответствует scanClient.
const clientCols = `id, username, email, password_hash, fname, lname, COALESCE(suffix,''), COALESCE(contact_number,''), date_of_birth, role_id, created_at`

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func scanClient(s interface{ Scan(dest ...any) error }, c *model.Client) error {
	return s.Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName,
		&c.Suffix, &c.ContactNumber, &c.DateOfBirth, &c.RoleID, &c.CreatedAt)
}

// Create вставляет клиента. Занятый username/email — ErrDuplicate.
func (r *ClientRepository) Create(ctx context.Context, c *model.Client) error {
	defer logger.DeferLogDuration("client.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO clients (id, username, email, password_hash, fname, lname, suffix, contact_number, date_of_birth, role_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), NULLIF($8,''), $9, $10, $11)`,
		c.ID, c.Username, c.Email, c.PasswordHash, c.FirstName, c.LastName,
		c.Suffix, c.ContactNumber, c.DateOfBirth, c.RoleID, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("clientRepo.Create: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	defer logger.DeferLogDuration("client.GetByID", time.Now())()
	c := &model.Client{}
	if err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientCols+` FROM clients WHERE id = $1`, id), c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clientRepo.GetByID: %w", err)
	}
	return c, nil
}

func (r *ClientRepository) GetByUsername(ctx context.Context, username string) (*model.Client, error) {
	defer logger.DeferLogDuration("client.GetByUsername", time.Now())()
	c := &model.Client{}
	if err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientCols+` FROM clients WHERE username = $1`, username), c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clientRepo.GetByUsername: %w", err)
	}
	return c, nil
}
