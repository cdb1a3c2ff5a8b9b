package money

import (
	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator produces realistic subscription charges for tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// TestCharge is a generated recurring charge.
type TestCharge struct {
	Merchant     string
	Amount       *Money
	BillingCycle string
	Category     string
}

// NewTestDataGenerator creates a generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a fixed seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// RandomAmount generates a value between minCents and maxCents inclusive.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// Charge generates one recurring charge between $0.99 and $99.99.
func (g *TestDataGenerator) Charge(currency string) TestCharge {
	return TestCharge{
		Merchant:     g.faker.Company(),
		Amount:       g.RandomAmount(currency, 99, 9999),
		BillingCycle: g.faker.RandomString([]string{"monthly", "monthly", "yearly", "weekly"}),
		Category:     g.faker.RandomString([]string{"streaming", "software", "storage", "various", "other"}),
	}
}

// Charges generates count charges.
func (g *TestDataGenerator) Charges(currency string, count int) []TestCharge {
	out := make([]TestCharge, count)
	for i := range out {
		out[i] = g.Charge(currency)
	}
	return out
}

// StatementLine renders a charge the way it appears on a card statement.
func (g *TestDataGenerator) StatementLine(c TestCharge) string {
	return g.faker.Date().Format("01/02") + " " + c.Merchant + " -" + c.Amount.String()
}
