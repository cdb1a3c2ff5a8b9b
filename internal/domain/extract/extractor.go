// Package extract turns statement PDFs into plain text, trying a layout-aware
// method first and a simpler page-by-page reader when that yields nothing.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

// Method is a single strategy for pulling text out of a PDF.
type Method interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// Extractor runs its methods in order and returns the first non-blank text.
type Extractor struct {
	methods []Method
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewExtractor builds an Extractor over the given methods, in priority order.
func NewExtractor(logger *slog.Logger, m *metrics.Metrics, methods ...Method) *Extractor {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Extractor{methods: methods, metrics: m, logger: logger}
}

// NewDefaultExtractor uses pdftotext in layout mode, then the pure-Go reader.
func NewDefaultExtractor(logger *slog.Logger, m *metrics.Metrics) *Extractor {
	return NewExtractor(logger, m, NewLayoutMethod(""), NewPlainMethod())
}

// Extract returns the statement text at path, or "" when every method failed
// or produced only whitespace. Callers treat "" as "no text could be extracted".
func (e *Extractor) Extract(ctx context.Context, path string) string {
	ctx, span := otel.Tracer("extract").Start(ctx, "extract.pdf")
	defer span.End()

	for _, method := range e.methods {
		text, err := method.Extract(ctx, path)
		switch {
		case err != nil:
			e.metrics.ExtractionAttempts.WithLabelValues(method.Name(), "error").Inc()
			e.logger.WarnContext(ctx, "pdf extraction method failed",
				slog.String("method", method.Name()),
				slog.Any("error", err),
			)
		case strings.TrimSpace(text) == "":
			e.metrics.ExtractionAttempts.WithLabelValues(method.Name(), "empty").Inc()
			e.logger.InfoContext(ctx, "pdf extraction method returned no text",
				slog.String("method", method.Name()),
			)
		default:
			e.metrics.ExtractionAttempts.WithLabelValues(method.Name(), "ok").Inc()
			span.SetAttributes(
				attribute.String("extract.method", method.Name()),
				attribute.Int("extract.chars", len(text)),
			)
			return text
		}

		if ctx.Err() != nil {
			break
		}
	}

	span.SetAttributes(attribute.Bool("extract.empty", true))
	return ""
}
