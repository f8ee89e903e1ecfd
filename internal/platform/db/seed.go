package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/config"
)

// Seed ensures the administrator account exists. Skipped when no seed
// credentials are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM profiles WHERE lower(email) = lower($1)", cfg.SeedAdminEmail).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO profiles (email, password_hash, full_name, role)
    VALUES ($1, $2, $3, $4)
  `, cfg.SeedAdminEmail, hash, cfg.SeedAdminName, auth.RoleAdmin)
	return err
}
