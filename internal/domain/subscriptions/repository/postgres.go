package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/subscription-finder/pkg/db"
)

const subscriptionColumns = `
	id, user_id, name, amount_minor, currency_code, billing_cycle, COALESCE(category, ''),
	next_billing_date, is_active, logo_url, detected_from, confidence, created_at, updated_at`

// PostgresSubscriptionRepository implements SubscriptionRepository using PostgreSQL
type PostgresSubscriptionRepository struct {
	pool db.Querier
}

// NewPostgresSubscriptionRepository creates a new PostgreSQL subscription repository
func NewPostgresSubscriptionRepository(pool db.Querier) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create inserts a new subscription
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err := insertSubscription(ctx, r.pool, sub)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertSubscription(ctx context.Context, q queryRower, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, name, amount_minor, currency_code, billing_cycle, category,
			next_billing_date, is_active, logo_url, detected_from, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	return q.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.AmountMinor,
		sub.CurrencyCode,
		sub.BillingCycle,
		sub.Category,
		sub.NextBillingDate,
		sub.IsActive,
		sub.LogoURL,
		string(sub.DetectedFrom),
		sub.Confidence,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	sub := &Subscription{}
	var detectedFrom string
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.AmountMinor,
		&sub.CurrencyCode,
		&sub.BillingCycle,
		&sub.Category,
		&sub.NextBillingDate,
		&sub.IsActive,
		&sub.LogoURL,
		&detectedFrom,
		&sub.Confidence,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.DetectedFrom = DetectedFrom(detectedFrom)
	return sub, nil
}

// GetByID retrieves a subscription owned by userID
func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND user_id = $2`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// ListByUserID retrieves the user's subscriptions, oldest first
func (r *PostgresSubscriptionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Update writes the mutable fields of sub. Ownership is enforced by user_id.
func (r *PostgresSubscriptionRepository) Update(ctx context.Context, sub *Subscription) error {
	query := `
		UPDATE subscriptions
		SET name = $3, amount_minor = $4, billing_cycle = $5, category = $6,
			is_active = $7, next_billing_date = $8
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.AmountMinor,
		sub.BillingCycle,
		sub.Category,
		sub.IsActive,
		sub.NextBillingDate,
	).Scan(&sub.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// Delete removes a subscription owned by userID
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUploads returns the user's statement uploads, newest first
func (r *PostgresSubscriptionRepository) ListUploads(ctx context.Context, userID uuid.UUID) ([]*StatementUpload, error) {
	query := `
		SELECT id, user_id, COALESCE(filename, ''), uploaded_at, processed, subscriptions_found
		FROM statement_uploads
		WHERE user_id = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*StatementUpload
	for rows.Next() {
		u := &StatementUpload{}
		if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &u.UploadedAt, &u.Processed, &u.SubscriptionsFound); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}
	return uploads, nil
}

// Ingest merges subs into the user's subscriptions. A transaction-scoped
// advisory lock on the user id serializes concurrent ingests for the same
// user, so two uploads of one statement cannot both insert a name. Names are
// compared case-insensitively against stored rows and against earlier
// entries of subs. Exactly one upload record is written per call.
func (r *PostgresSubscriptionRepository) Ingest(ctx context.Context, userID uuid.UUID, subs []*Subscription, upload *StatementUpload) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID.String()); err != nil {
		return 0, fmt.Errorf("failed to lock user subscriptions: %w", err)
	}

	seen := make(map[string]bool, len(subs))
	created := 0
	for _, sub := range subs {
		key := strings.ToLower(sub.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1 AND LOWER(name) = LOWER($2))`,
			userID, sub.Name,
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if exists {
			continue
		}

		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		sub.UserID = userID
		if err := insertSubscription(ctx, tx, sub); err != nil {
			return 0, fmt.Errorf("failed to insert subscription: %w", err)
		}
		created++
	}

	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	upload.UserID = userID
	err = tx.QueryRow(ctx, `
		INSERT INTO statement_uploads (id, user_id, filename, processed, subscriptions_found)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING uploaded_at`,
		upload.ID, upload.UserID, upload.Filename, upload.Processed, upload.SubscriptionsFound,
	).Scan(&upload.UploadedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record upload: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit ingest: %w", err)
	}
	return created, nil
}
