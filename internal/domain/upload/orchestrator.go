// Package upload runs a statement PDF through extraction, classification and,
// for signed-in users, ingestion. It owns the staged file for the whole request.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/subscription-finder/internal/domain/classify"
	"github.com/FACorreiaa/subscription-finder/pkg/storage"
)

var (
	ErrValidation      = errors.New("invalid upload")
	ErrExtractionEmpty = errors.New("could not extract text from PDF")
	ErrStorage         = errors.New("failed to store subscriptions")
)

// TextExtractor returns "" when no text could be recovered.
type TextExtractor interface {
	Extract(ctx context.Context, path string) string
}

// Classifier never fails; failures come back inside the Result.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Result
}

// Ingester persists a classification result for a user.
type Ingester interface {
	Ingest(ctx context.Context, userID uuid.UUID, filename string, result classify.Result) (int, error)
}

// Outcome is what a handled upload produced.
type Outcome struct {
	Result classify.Result
	// Added is the number of new subscriptions; only meaningful when Persisted.
	Added     int
	Persisted bool
}

// Orchestrator sequences one upload end to end.
type Orchestrator struct {
	store      storage.Storage
	extractor  TextExtractor
	classifier Classifier
	ingester   Ingester
	logger     *slog.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(store storage.Storage, extractor TextExtractor, classifier Classifier, ingester Ingester, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		ingester:   ingester,
		logger:     logger,
	}
}

// ValidateFilename accepts only names ending in .pdf, in any case.
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: no file selected", ErrValidation)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return fmt.Errorf("%w: invalid file type", ErrValidation)
	}
	return nil
}

// Handle stages r, extracts and classifies it, and ingests the result when
// userID is set. The staged file is removed before Handle returns.
func (o *Orchestrator) Handle(ctx context.Context, userID *uuid.UUID, filename string, r io.Reader) (out *Outcome, err error) {
	ctx, span := otel.Tracer("upload").Start(ctx, "upload.Handle")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("upload.filename", filename),
		attribute.Bool("upload.authenticated", userID != nil),
	)

	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	info, err := o.store.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer func() {
		// Detached from ctx so a cancelled request still cleans up.
		if rmErr := o.store.Remove(context.WithoutCancel(ctx), info); rmErr != nil {
			o.logger.ErrorContext(ctx, "failed to remove staged upload",
				slog.String("path", info.Path),
				slog.Any("error", rmErr),
			)
		}
	}()

	text := o.extractor.Extract(ctx, info.Path)
	if strings.TrimSpace(text) == "" {
		return nil, ErrExtractionEmpty
	}

	result := o.classifier.Classify(ctx, text)
	out = &Outcome{Result: result}
	span.SetAttributes(attribute.Int("upload.candidates", len(result.Subscriptions)))

	if userID == nil {
		return out, nil
	}

	added, err := o.ingester.Ingest(ctx, *userID, filepath.Base(filename), result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	out.Added = added
	out.Persisted = true

	o.logger.InfoContext(ctx, "statement processed",
		slog.String("user_id", userID.String()),
		slog.Int("candidates", len(result.Subscriptions)),
		slog.Int("added", added),
		slog.Bool("classification_failed", result.Failed()),
	)
	return out, nil
}
