// Package repository provides database operations for subscriptions.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a subscription does not exist or belongs to
// another user.
var ErrNotFound = errors.New("subscription not found")

// DetectedFrom records how a subscription entered the system.
type DetectedFrom string

const (
	DetectedManual DetectedFrom = "manual"
	DetectedPDF    DetectedFrom = "pdf"
	DetectedEmail  DetectedFrom = "email"
)

// Subscription is a recurring charge owned by one user. Amounts are stored in
// minor units of CurrencyCode.
type Subscription struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	AmountMinor     int64
	CurrencyCode    string
	BillingCycle    string
	Category        string
	NextBillingDate *time.Time
	IsActive        bool
	LogoURL         *string
	DetectedFrom    DetectedFrom
	Confidence      float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatementUpload is the append-only audit record of one ingested statement.
type StatementUpload struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Filename           string
	UploadedAt         time.Time
	Processed          bool
	SubscriptionsFound int
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Subscription, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, userID, id uuid.UUID) error

	ListUploads(ctx context.Context, userID uuid.UUID) ([]*StatementUpload, error)

	// Ingest stores subs whose names the user does not already have and
	// records upload, all in one transaction. It returns how many
	// subscriptions were created.
	Ingest(ctx context.Context, userID uuid.UUID, subs []*Subscription, upload *StatementUpload) (int, error)
}
