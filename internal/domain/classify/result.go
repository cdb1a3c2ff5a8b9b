// Package classify sends statement text to a generative model and turns its
// reply into a ClassificationResult. Every failure collapses into a Result with
// an Error message and empty defaults, so callers never branch on error type.
package classify

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Candidate is one recurring charge reported by the model. It is not persisted
// directly; names go through the catalog first.
type Candidate struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date,omitempty"`
	Frequency  string          `json:"frequency,omitempty"`
	Category   string          `json:"category"`
	Confidence *float64        `json:"confidence,omitempty"`
}

// MarshalJSON writes Amount as a JSON number rather than a quoted string.
func (c Candidate) MarshalJSON() ([]byte, error) {
	type alias Candidate
	return json.Marshal(struct {
		alias
		Amount float64 `json:"amount"`
	}{alias: alias(c), Amount: c.Amount.InexactFloat64()})
}

// Result is the classifier output. Subscriptions is never nil.
type Result struct {
	Subscriptions    []Candidate     `json:"subscriptions"`
	TotalMonthlyCost decimal.Decimal `json:"total_monthly_cost"`
	Error            string          `json:"error,omitempty"`
}

// Failed reports whether the result carries a classification failure.
func (r Result) Failed() bool { return r.Error != "" }

// Failure builds the normalized failure shape.
func Failure(err error) Result {
	return Result{
		Subscriptions:    []Candidate{},
		TotalMonthlyCost: decimal.Zero,
		Error:            err.Error(),
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	subs := r.Subscriptions
	if subs == nil {
		subs = []Candidate{}
	}
	return json.Marshal(struct {
		Subscriptions    []Candidate `json:"subscriptions"`
		TotalMonthlyCost float64     `json:"total_monthly_cost"`
		Error            string      `json:"error,omitempty"`
	}{
		Subscriptions:    subs,
		TotalMonthlyCost: r.TotalMonthlyCost.InexactFloat64(),
		Error:            r.Error,
	})
}
