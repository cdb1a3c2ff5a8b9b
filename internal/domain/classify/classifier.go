package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

// Generator is the capability the classifier needs from a language model:
// one prompt, one document, one text reply.
type Generator interface {
	Generate(ctx context.Context, prompt, document string) (string, error)
}

// Classifier owns the prompt and the defensive parsing of model output.
type Classifier struct {
	gen     Generator
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClassifier creates a classifier. A zero timeout leaves the caller's
// deadline in charge.
func NewClassifier(gen Generator, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Classifier {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Classifier{gen: gen, timeout: timeout, metrics: m, logger: logger}
}

// Classify submits text in a single call and never returns a nil sequence.
// Generator errors, timeouts and unparsable replies all yield Failure.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	ctx, span := otel.Tracer("classify").Start(ctx, "classify.statement")
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.gen.Generate(ctx, Prompt, text)
	c.metrics.ClassificationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fail(ctx, span, "generate", fmt.Errorf("failed to generate content: %w", err))
	}

	result, err := Parse(raw)
	if err != nil {
		c.logger.DebugContext(ctx, "unparsable model reply", slog.Int("reply_chars", len(raw)))
		return c.fail(ctx, span, "parse", err)
	}

	c.metrics.ClassificationResults.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("classify.subscriptions", len(result.Subscriptions)))
	c.logger.InfoContext(ctx, "statement classified",
		slog.Int("subscriptions", len(result.Subscriptions)),
		slog.String("total_monthly_cost", result.TotalMonthlyCost.StringFixed(2)),
	)
	return result
}

func (c *Classifier) fail(ctx context.Context, span trace.Span, stage string, err error) Result {
	c.metrics.ClassificationResults.WithLabelValues(stage + "_error").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	c.logger.WarnContext(ctx, "statement classification failed",
		slog.String("stage", stage),
		slog.Any("error", err),
	)
	return Failure(err)
}
