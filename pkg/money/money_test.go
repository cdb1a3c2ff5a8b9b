package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		want     int64
		wantCode string
	}{
		{"positive cents", 1599, USD, 1599, USD},
		{"zero", 0, USD, 0, USD},
		{"euro", 1000, EUR, 1000, EUR},
		{"lowercase code", 500, "eur", 500, EUR},
		{"unknown code falls back", 500, "XXX1", 500, USD},
		{"empty code falls back", 500, "", 500, USD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cents, tt.currency)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, tt.wantCode, m.Currency())
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"precise decimal", "15.99", USD, 1599},
		{"rounds half up", "9.995", USD, 1000},
		{"whole number", "120", USD, 12000},
		{"yen has no minor units", "1500", JPY, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.want, NewFromDecimal(d, tt.currency).Amount())
		})
	}
}

func TestToDecimalRoundTrip(t *testing.T) {
	m := New(1599, USD)
	assert.True(t, decimal.RequireFromString("15.99").Equal(m.ToDecimal()))
	assert.Equal(t, "15.99", m.String())
	assert.InDelta(t, 15.99, m.ToFloat64(), 1e-9)
}
