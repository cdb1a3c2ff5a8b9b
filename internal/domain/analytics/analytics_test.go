package analytics

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/subscription-finder/pkg/money"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate_MonthlyAndYearly(t *testing.T) {
	s := Aggregate([]Item{
		{Amount: d("9.99"), BillingCycle: "monthly", Category: "streaming"},
		{Amount: d("120"), BillingCycle: "yearly", Category: "software"},
	})

	assert.Equal(t, "19.99", s.TotalMonthly.StringFixed(2))
	assert.Equal(t, "239.88", s.TotalYearly.StringFixed(2))
	assert.Equal(t, "10.00", s.AverageSubscription.StringFixed(2))
	assert.Equal(t, 2, s.SubscriptionCount)
	assert.Equal(t, "9.99", s.ByCategory["streaming"].StringFixed(2))
	assert.Equal(t, "10.00", s.ByCategory["software"].StringFixed(2))
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)

	assert.True(t, s.TotalMonthly.IsZero())
	assert.True(t, s.TotalYearly.IsZero())
	assert.True(t, s.AverageSubscription.IsZero())
	assert.Equal(t, 0, s.SubscriptionCount)
	assert.Empty(t, s.ByCategory)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_monthly":0,"total_yearly":0,"by_category":{},"subscription_count":0,"average_subscription":0}`, string(out))
}

func TestAggregate_WeeklyAndUnknownCycles(t *testing.T) {
	s := Aggregate([]Item{
		{Amount: d("10"), BillingCycle: "weekly", Category: "other"},
		{Amount: d("5"), BillingCycle: "quarterly", Category: "other"},
		{Amount: d("5"), BillingCycle: "", Category: "other"},
	})

	// 43.30 + 5 + 5
	assert.Equal(t, "53.30", s.TotalMonthly.StringFixed(2))
	assert.Equal(t, "639.60", s.TotalYearly.StringFixed(2))
}

func TestAggregate_RoundsOnlyAtOutput(t *testing.T) {
	// Each yearly 10.00 is 0.8333.. per month. Rounding per item would give
	// 3 * 0.83 = 2.49; rounding the sum gives 2.50.
	items := []Item{
		{Amount: d("10"), BillingCycle: "yearly", Category: "x"},
		{Amount: d("10"), BillingCycle: "yearly", Category: "x"},
		{Amount: d("10"), BillingCycle: "yearly", Category: "x"},
	}

	s := Aggregate(items)
	assert.Equal(t, "2.50", s.TotalMonthly.StringFixed(2))
	assert.Equal(t, "30.00", s.TotalYearly.StringFixed(2))
	assert.Equal(t, "2.50", s.ByCategory["x"].StringFixed(2))
}

func TestAggregate_CycleIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "1.00", MonthlyEquivalent(d("12"), "Yearly").StringFixed(2))
	assert.Equal(t, "4.33", MonthlyEquivalent(d("1"), " WEEKLY ").StringFixed(2))
}

func TestAggregate_GeneratedCharges(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(42)
	charges := gen.Charges(money.USD, 25)

	items := make([]Item, 0, len(charges))
	want := decimal.Zero
	for _, c := range charges {
		items = append(items, Item{Amount: c.Amount.ToDecimal(), BillingCycle: c.BillingCycle, Category: c.Category})
		want = want.Add(MonthlyEquivalent(c.Amount.ToDecimal(), c.BillingCycle))
	}

	s := Aggregate(items)
	assert.Equal(t, len(charges), s.SubscriptionCount)
	assert.True(t, want.Round(2).Equal(s.TotalMonthly))

	sum := decimal.Zero
	for _, v := range s.ByCategory {
		sum = sum.Add(v)
	}
	// Each rounded figure is off by at most half a cent.
	drift := sum.Sub(s.TotalMonthly).Abs()
	limit := decimal.RequireFromString("0.005").Mul(decimal.NewFromInt(int64(len(s.ByCategory) + 1)))
	assert.True(t, drift.LessThanOrEqual(limit))
}
