// Package analytics turns a user's subscriptions into spend totals.
package analytics

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	monthsPerYear  = decimal.NewFromInt(12)
	weeksPerMonth  = decimal.RequireFromString("4.33")
	outputDecimals = int32(2)
)

// Item is the slice of a subscription the aggregator needs.
type Item struct {
	Amount       decimal.Decimal
	BillingCycle string
	Category     string
}

// Summary holds totals rounded to cents.
type Summary struct {
	TotalMonthly        decimal.Decimal
	TotalYearly         decimal.Decimal
	ByCategory          map[string]decimal.Decimal
	SubscriptionCount   int
	AverageSubscription decimal.Decimal
}

// MonthlyEquivalent converts amount to a monthly figure. Yearly amounts are
// divided by 12 and weekly ones multiplied by 4.33. Any other cycle,
// including empty or unknown values, is treated as already monthly.
func MonthlyEquivalent(amount decimal.Decimal, cycle string) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "yearly":
		return amount.Div(monthsPerYear)
	case "weekly":
		return amount.Mul(weeksPerMonth)
	default:
		return amount
	}
}

// Aggregate sums items at full precision and rounds once at the end.
func Aggregate(items []Item) Summary {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)

	for _, it := range items {
		monthly := MonthlyEquivalent(it.Amount, it.BillingCycle)
		total = total.Add(monthly)
		byCategory[it.Category] = byCategory[it.Category].Add(monthly)
	}

	s := Summary{
		TotalMonthly:        total.Round(outputDecimals),
		TotalYearly:         total.Mul(monthsPerYear).Round(outputDecimals),
		ByCategory:          make(map[string]decimal.Decimal, len(byCategory)),
		SubscriptionCount:   len(items),
		AverageSubscription: decimal.Zero,
	}
	for cat, v := range byCategory {
		s.ByCategory[cat] = v.Round(outputDecimals)
	}
	if len(items) > 0 {
		s.AverageSubscription = total.Div(decimal.NewFromInt(int64(len(items)))).Round(outputDecimals)
	}
	return s
}

// MarshalJSON emits amounts as plain numbers.
func (s Summary) MarshalJSON() ([]byte, error) {
	byCategory := make(map[string]float64, len(s.ByCategory))
	for cat, v := range s.ByCategory {
		byCategory[cat] = v.InexactFloat64()
	}
	return json.Marshal(struct {
		TotalMonthly        float64            `json:"total_monthly"`
		TotalYearly         float64            `json:"total_yearly"`
		ByCategory          map[string]float64 `json:"by_category"`
		SubscriptionCount   int                `json:"subscription_count"`
		AverageSubscription float64            `json:"average_subscription"`
	}{
		TotalMonthly:        s.TotalMonthly.InexactFloat64(),
		TotalYearly:         s.TotalYearly.InexactFloat64(),
		ByCategory:          byCategory,
		SubscriptionCount:   s.SubscriptionCount,
		AverageSubscription: s.AverageSubscription.InexactFloat64(),
	})
}
