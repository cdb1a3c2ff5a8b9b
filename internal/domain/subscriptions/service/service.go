// Package service provides business logic for subscription management and
// statement ingestion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/subscription-finder/internal/domain/analytics"
	"github.com/FACorreiaa/subscription-finder/internal/domain/catalog"
	"github.com/FACorreiaa/subscription-finder/internal/domain/classify"
	"github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/repository"
	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
	"github.com/FACorreiaa/subscription-finder/pkg/money"
)

const (
	DefaultBillingCycle     = "monthly"
	defaultIngestConfidence = 0.9
	defaultManualConfidence = 1.0

	// Column widths of the subscriptions and statement_uploads tables.
	maxNameLen     = 100
	maxCycleLen    = 20
	maxCategoryLen = 50
	maxFilenameLen = 200
)

// ErrInvalidInput is returned for payloads the store would reject.
var ErrInvalidInput = errors.New("invalid subscription input")

// CreateInput is a manual subscription. Nil fields take their defaults.
type CreateInput struct {
	Name            string
	Amount          *decimal.Decimal
	Currency        string
	BillingCycle    string
	NextBillingDate *time.Time
	IsActive        *bool
	DetectedFrom    string
	Confidence      *float64
}

// UpdateInput patches a subscription. Nil fields are left unchanged.
type UpdateInput struct {
	Name            *string
	Amount          *decimal.Decimal
	BillingCycle    *string
	Category        *string
	IsActive        *bool
	NextBillingDate *time.Time
}

// Service provides subscription management business logic
type Service struct {
	repo    repository.SubscriptionRepository
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a new subscriptions service
func NewService(repo repository.SubscriptionRepository, cat *catalog.Catalog, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: cat, metrics: m, logger: logger}
}

// List returns every subscription of the user.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*repository.Subscription, error) {
	return s.repo.ListByUserID(ctx, userID, false)
}

// Create stores a manual subscription. The name is resolved through the
// catalog, which also decides category and logo.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*repository.Subscription, error) {
	match := s.catalog.Normalize(in.Name)
	currency := money.NormalizeCurrency(in.Currency)

	sub := &repository.Subscription{
		UserID:          userID,
		Name:            match.Name,
		CurrencyCode:    currency,
		BillingCycle:    DefaultBillingCycle,
		Category:        match.Category,
		NextBillingDate: in.NextBillingDate,
		IsActive:        true,
		LogoURL:         &match.Logo,
		DetectedFrom:    repository.DetectedManual,
		Confidence:      defaultManualConfidence,
	}
	if in.Amount != nil {
		sub.AmountMinor = money.NewFromDecimal(*in.Amount, currency).Amount()
	}
	if c := strings.TrimSpace(in.BillingCycle); c != "" {
		sub.BillingCycle = c
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.DetectedFrom != "" {
		sub.DetectedFrom = repository.DetectedFrom(in.DetectedFrom)
	}
	if in.Confidence != nil {
		sub.Confidence = *in.Confidence
	}

	if err := validate(sub); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Update applies the non-nil fields of in to the user's subscription.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*repository.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		sub.Name = *in.Name
	}
	if in.Amount != nil {
		sub.AmountMinor = money.NewFromDecimal(*in.Amount, sub.CurrencyCode).Amount()
	}
	if in.BillingCycle != nil {
		sub.BillingCycle = *in.BillingCycle
	}
	if in.Category != nil {
		sub.Category = *in.Category
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.NextBillingDate != nil {
		sub.NextBillingDate = in.NextBillingDate
	}

	if err := validate(sub); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Delete removes the user's subscription.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// Uploads returns the user's statement upload history.
func (s *Service) Uploads(ctx context.Context, userID uuid.UUID) ([]*repository.StatementUpload, error) {
	return s.repo.ListUploads(ctx, userID)
}

// Analytics aggregates the user's active subscriptions.
func (s *Service) Analytics(ctx context.Context, userID uuid.UUID) (analytics.Summary, error) {
	subs, err := s.repo.ListByUserID(ctx, userID, true)
	if err != nil {
		return analytics.Summary{}, err
	}

	items := make([]analytics.Item, 0, len(subs))
	for _, sub := range subs {
		items = append(items, analytics.Item{
			Amount:       AmountOf(sub),
			BillingCycle: sub.BillingCycle,
			Category:     sub.Category,
		})
	}
	return analytics.Aggregate(items), nil
}

// Ingest persists the candidates of result for userID and records the upload.
// Names are canonicalized before the existence check, so re-uploading a
// statement or seeing a service twice in one statement creates nothing new.
// A failed result still produces an upload record with processed=false.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, filename string, result classify.Result) (int, error) {
	ctx, span := otel.Tracer("subscriptions").Start(ctx, "subscriptions.Ingest")
	defer span.End()

	subs := make([]*repository.Subscription, 0, len(result.Subscriptions))
	for _, c := range result.Subscriptions {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		subs = append(subs, s.fromCandidate(c))
	}

	upload := &repository.StatementUpload{
		Filename:           truncateRunes(filename, maxFilenameLen),
		Processed:          !result.Failed(),
		SubscriptionsFound: len(result.Subscriptions),
	}

	created, err := s.repo.Ingest(ctx, userID, subs, upload)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to ingest statement: %w", err)
	}

	span.SetAttributes(
		attribute.Int("subscriptions.found", len(result.Subscriptions)),
		attribute.Int("subscriptions.created", created),
	)
	s.metrics.SubscriptionsIngested.Add(float64(created))
	s.logger.InfoContext(ctx, "statement ingested",
		slog.String("filename", filename),
		slog.Int("found", len(result.Subscriptions)),
		slog.Int("created", created),
	)
	return created, nil
}

func (s *Service) fromCandidate(c classify.Candidate) *repository.Subscription {
	match := s.catalog.Normalize(c.Name)

	cycle := strings.ToLower(strings.TrimSpace(c.Frequency))
	if cycle == "" {
		cycle = DefaultBillingCycle
	}

	confidence := defaultIngestConfidence
	if c.Confidence != nil {
		confidence = clamp01(*c.Confidence)
	}

	// Model output is unbounded; fit it to the columns rather than fail the
	// whole statement.
	return &repository.Subscription{
		Name: truncateRunes(match.Name, maxNameLen),
		// Statement debits are often negative; a subscription costs its magnitude.
		AmountMinor:  money.NewFromDecimal(c.Amount.Abs(), money.DefaultCurrency).Amount(),
		CurrencyCode: money.DefaultCurrency,
		BillingCycle: truncateRunes(cycle, maxCycleLen),
		Category:     truncateRunes(match.Category, maxCategoryLen),
		IsActive:     true,
		LogoURL:      &match.Logo,
		DetectedFrom: repository.DetectedPDF,
		Confidence:   confidence,
	}
}

// AmountOf converts the stored minor units back to a decimal amount.
func AmountOf(sub *repository.Subscription) decimal.Decimal {
	return money.New(sub.AmountMinor, sub.CurrencyCode).ToDecimal()
}

func validate(sub *repository.Subscription) error {
	switch sub.DetectedFrom {
	case repository.DetectedManual, repository.DetectedPDF, repository.DetectedEmail:
	default:
		return fmt.Errorf("%w: detected_from must be manual, pdf or email", ErrInvalidInput)
	}
	if sub.Confidence < 0 || sub.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidInput)
	}
	if strings.TrimSpace(sub.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(sub.Name) > maxNameLen {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxNameLen)
	}
	if utf8.RuneCountInString(sub.BillingCycle) > maxCycleLen {
		return fmt.Errorf("%w: billing_cycle must be at most %d characters", ErrInvalidInput, maxCycleLen)
	}
	if utf8.RuneCountInString(sub.Category) > maxCategoryLen {
		return fmt.Errorf("%w: category must be at most %d characters", ErrInvalidInput, maxCategoryLen)
	}
	return nil
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
