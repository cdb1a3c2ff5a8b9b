package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

const statement = "01/15 NETFLIX.COM -15.99\n01/17 SPOTIFY PREMIUM -9.99\n01/18 LOCAL CAFE XYZ -4.50"

const fixedReply = "```json\n" + `{
  "subscriptions": [
    {"name": "NETFLIX.COM", "amount": 15.99, "date": "2024-01-15", "frequency": "monthly", "category": "streaming", "confidence": 0.95},
    {"name": "SPOTIFY PREMIUM", "amount": 9.99, "date": "2024-01-17", "frequency": "monthly", "category": "streaming", "confidence": 0.9}
  ],
  "total_monthly_cost": 25.98
}` + "\n```"

func newTestClassifier(gen Generator, timeout time.Duration) (*Classifier, *metrics.Metrics) {
	m := metrics.NewNoop()
	return NewClassifier(gen, timeout, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestClassify_SendsPromptAndDocument(t *testing.T) {
	gen := NewMockGenerator(fixedReply)
	c, m := newTestClassifier(gen, 0)

	result := c.Classify(context.Background(), statement)

	require.False(t, result.Failed(), result.Error)
	require.Len(t, result.Subscriptions, 2)
	assert.Equal(t, "NETFLIX.COM", result.Subscriptions[0].Name)
	assert.Equal(t, "SPOTIFY PREMIUM", result.Subscriptions[1].Name)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Prompt, calls[0].Prompt)
	assert.Equal(t, statement, calls[0].Document)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ClassificationResults.WithLabelValues("ok")))
}

func TestClassify_FailuresCollapseToOneShape(t *testing.T) {
	tests := []struct {
		name  string
		gen   *MockGenerator
		stage string
	}{
		{"service error", &MockGenerator{Err: errors.New("quota exceeded")}, "generate"},
		{"non-JSON prose", NewMockGenerator("Sorry, I can't help with that."), "parse"},
		{"truncated JSON", NewMockGenerator(`{"subscriptions": [{"name": "Net`), "parse"},
		{"empty reply", NewMockGenerator(""), "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newTestClassifier(tt.gen, 0)

			result := c.Classify(context.Background(), statement)

			assert.True(t, result.Failed())
			assert.NotEmpty(t, result.Error)
			assert.NotNil(t, result.Subscriptions)
			assert.Empty(t, result.Subscriptions)
			assert.True(t, result.TotalMonthlyCost.IsZero())
			assert.Equal(t, float64(1), testutil.ToFloat64(m.ClassificationResults.WithLabelValues(tt.stage+"_error")))
		})
	}
}

func TestClassify_TimeoutIsFailure(t *testing.T) {
	gen := &MockGenerator{Block: true}
	c, _ := newTestClassifier(gen, 20*time.Millisecond)

	result := c.Classify(context.Background(), statement)

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, context.DeadlineExceeded.Error())
}

func TestClassify_NoRetry(t *testing.T) {
	gen := &MockGenerator{Err: errors.New("transient")}
	c, _ := newTestClassifier(gen, 0)

	c.Classify(context.Background(), statement)

	assert.Len(t, gen.Calls(), 1)
}

func TestPromptDescribesShape(t *testing.T) {
	for _, want := range []string{`"subscriptions"`, `"total_monthly_cost"`, `"confidence"`, "Only return valid JSON"} {
		assert.Contains(t, Prompt, want)
	}
}
