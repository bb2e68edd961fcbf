package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	_ "github.com/alphagov-mirror/pay-adminusers/internal/db/migrations"
)

// Migrate runs all embedded migrations against the provided pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("nil pool provided")
	}
	return MigrateDSN(ctx, pool.Config().ConnConfig.ConnString())
}

// MigrateDSN runs all embedded migrations using a fresh connection.
func MigrateDSN(ctx context.Context, dsn string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return goose.UpContext(ctx, sqlDB, "migrations")
}
