package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/subscription-finder/pkg/db"
)

type PostgresUserRepository struct {
	pool db.Querier
}

func NewPostgresUserRepository(pool db.Querier) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// UpsertByEmail keeps the stored profile of existing users and only bumps
// last_login_at. xmax is zero only for freshly inserted rows.
func (r *PostgresUserRepository) UpsertByEmail(ctx context.Context, email, name, profilePic string) (*User, bool, error) {
	query := `
		INSERT INTO users (id, email, name, profile_pic, last_login_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (email) DO UPDATE SET last_login_at = NOW()
		RETURNING id, email, COALESCE(name, ''), COALESCE(profile_pic, ''), is_active,
			created_at, last_login_at, (xmax = 0) AS inserted`

	u := &User{}
	var created bool
	err := r.pool.QueryRow(ctx, query, uuid.New(), email, name, profilePic).Scan(
		&u.ID, &u.Email, &u.Name, &u.ProfilePic, &u.IsActive, &u.CreatedAt, &u.LastLoginAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, created, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, COALESCE(name, ''), COALESCE(profile_pic, ''), is_active, created_at, last_login_at
		FROM users
		WHERE id = $1`

	u := &User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.ProfilePic, &u.IsActive, &u.CreatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// DeleteCascade deletes children before the user row in one transaction, so
// it does not depend on ON DELETE CASCADE in the schema.
func (r *PostgresUserRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM statement_uploads WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete uploads: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return tx.Commit(ctx)
}
