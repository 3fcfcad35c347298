package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bohemiyan/cruces/internal/config"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresDB holds the two handles the service needs: GormDB backs the
// cruces store, DB answers health checks without going through gorm.
type PostgresDB struct {
	DB     *sql.DB
	GormDB *gorm.DB
}

// NewPostgresDB opens both handles against cfg's DSN and fails unless the
// server answers a ping. gorm translates driver errors so unique violations
// arrive as gorm.ErrDuplicatedKey.
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*PostgresDB, error) {
	dsn := cfg.PostgresDSN()

	health, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres health handle: %w", err)
	}
	if err := health.PingContext(ctx); err != nil {
		health.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.PostgresHost, cfg.PostgresPort, err)
	}

	store, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		health.Close()
		return nil, fmt.Errorf("open gorm store: %w", err)
	}

	return &PostgresDB{DB: health, GormDB: store}, nil
}

// Ping reports whether PostgreSQL is reachable; /healthz calls it.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// Close releases both handles, reporting every failure.
func (p *PostgresDB) Close() error {
	errs := []error{p.DB.Close()}
	if sqlDB, err := p.GormDB.DB(); err != nil {
		errs = append(errs, fmt.Errorf("gorm store handle: %w", err))
	} else {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
