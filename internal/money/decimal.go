// Package money provides the fixed-point decimal arithmetic and FX lookup
// the engine uses for every monetary computation. All amounts are held as
// github.com/shopspring/decimal values, which carry an arbitrary-precision
// decimal mantissa — comfortably exceeding the 10 fractional digit floor
// spec.md §4.1 requires and never losing precision on intermediate
// products. Rounding only happens at the two points the spec names:
// AggregateScale on totals returned by a component, DisplayScale on
// totals about to be printed or exported.
package money

import "github.com/shopspring/decimal"

// AggregateScale is the number of fractional digits a per-sale or
// per-instrument total is quantized to when returned from the core.
const AggregateScale = 4

// DisplayScale is the number of fractional digits a printed or exported
// report total is quantized to.
const DisplayScale = 2

// Amount is a decimal monetary value. It is a thin alias so call sites in
// this codebase read as domain code ("money.Amount") rather than a raw
// library type.
type Amount = decimal.Decimal

// Zero is the additive identity.
var Zero = decimal.Zero

// New builds an Amount from a string literal, e.g. money.New("100.50").
// Panics on malformed input — this is meant for constants and tests, not
// for parsing untrusted input (use ParseAmount for that).
func New(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("money: invalid literal " + s + ": " + err.Error())
	}
	return d
}

// ParseAmount parses a decimal string coming from ingestion (CSV fields,
// JSON config) where malformed input must be reported, not panicked on.
func ParseAmount(s string) (Amount, error) {
	return decimal.NewFromString(s)
}

// FromFloat builds an Amount from a float64. Only ever used at the
// ingestion boundary (brokerage exports quote prices as floating point);
// the core never produces an Amount this way.
func FromFloat(f float64) Amount {
	return decimal.NewFromFloat(f)
}

// QuantizeAggregate rounds a to AggregateScale fractional digits, half-away-
// from-zero, matching spec.md §4.1's "aggregated totals per product are
// quantized to 4 fractional digits on return".
func QuantizeAggregate(a Amount) Amount {
	return a.Round(AggregateScale)
}

// QuantizeDisplay rounds a to DisplayScale fractional digits for printing
// or CSV export ("printed totals are further quantized to 2 fractional
// digits").
func QuantizeDisplay(a Amount) Amount {
	return a.Round(DisplayScale)
}
