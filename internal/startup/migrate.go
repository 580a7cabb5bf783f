package startup

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/migrations"
)

// RunMigrations применяет встроенные SQL-миграции (migrations/*.sql) к базе dsn.
// Уже актуальная схема — не ошибка.
func RunMigrations(dsn string) error {
	if dsn == "" {
		return errors.New("migrate: DATABASE_URL is not set")
	}
	src, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations: schema is up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	version, _, _ := m.Version()
	logger.Infof("migrations applied, version %d", version)
	return nil
}
