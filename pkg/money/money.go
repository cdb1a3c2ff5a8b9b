// Package money provides currency-safe arithmetic on integer minor units using
// go-money, with shopspring/decimal at the boundaries where fractional values
// enter or leave the system.
package money

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY" // no minor units
)

// DefaultCurrency is used when a charge carries no currency of its own.
const DefaultCurrency = USD

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, NormalizeCurrency(currencyCode))}
}

// NewFromDecimal converts a major-unit decimal into minor units, rounding half
// away from zero at the currency's precision.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	code := NormalizeCurrency(currencyCode)
	currency := money.GetCurrency(code)

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return New(minor, code)
}

// NormalizeCurrency upper-cases code and falls back to DefaultCurrency for
// unknown or empty codes.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}

// Amount returns the amount in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// String returns the major-unit decimal string, e.g. "15.99".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	currency := m.m.Currency()
	return m.ToDecimal().StringFixed(int32(currency.Fraction))
}

// ToDecimal converts to a major-unit decimal without loss.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	currency := m.m.Currency()
	return decimal.New(m.m.Amount(), -int32(currency.Fraction))
}

// ToFloat64 converts to float64 for JSON responses and spreadsheet cells.
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}
