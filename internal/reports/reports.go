// Package reports defines the warehouse reports served by the dashboard:
// their request parameters, typed results, and the queries behind them.
package reports

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"bidash/internal/warehouse"
)

// Querier is the warehouse surface the reports need.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]warehouse.Row, error)
	Dialect() warehouse.Dialect
	DatabaseName() string
}

// Source runs report queries against a Querier.
type Source struct {
	db    Querier
	clock clockwork.Clock
}

// Option configures a Source.
type Option func(*Source)

// WithClock sets the clock used for generatedAt stamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Source) {
		s.clock = c
	}
}

// NewSource creates a Source over db.
func NewSource(db Querier, opts ...Option) *Source {
	s := &Source{db: db, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// round2 rounds to two decimals.
func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// ratio returns num/den*scale rounded to two decimals, or 0 when den is 0.
func ratio(num, den, scale float64) float64 {
	if den == 0 {
		return 0
	}
	d := decimal.NewFromFloat(num).Mul(decimal.NewFromFloat(scale)).Div(decimal.NewFromFloat(den))
	return d.Round(2).InexactFloat64()
}
