package money

import "fmt"

// Currency is a supported trade/fee currency code.
type Currency string

// Table is the unified-annual-rate FX table described in spec.md §4.1: a
// static mapping (year, currency) -> amount of the reporting currency per
// one unit of the source currency, enumerated at build time. Ported from
// original_source/currency.py's unified_fx_rate, generalized from a
// hardcoded CZK-only table to one that can be extended by config.
type Table struct {
	reporting Currency
	rates     map[Currency]map[int]Amount
}

// NewTable creates an empty FX table targeting the given reporting
// currency. The reporting currency always trivially converts at 1:1 and
// never needs an explicit rate.
func NewTable(reporting Currency) *Table {
	return &Table{
		reporting: reporting,
		rates:     make(map[Currency]map[int]Amount),
	}
}

// ReportingCurrency returns the currency every rate in this table converts
// into.
func (t *Table) ReportingCurrency() Currency {
	return t.reporting
}

// AddRate registers the unified annual rate for one (currency, year) pair.
func (t *Table) AddRate(currency Currency, year int, rate Amount) {
	if t.rates[currency] == nil {
		t.rates[currency] = make(map[int]Amount)
	}
	t.rates[currency][year] = rate
}

// SupportsCurrency reports whether the table has at least one rate on
// file for currency, or whether it is the reporting currency itself.
// Mirrors original_source/currency.py's check_currency, which validates a
// currency by attempting a lookup for the most recent supported year.
func (t *Table) SupportsCurrency(currency Currency) bool {
	if currency == t.reporting {
		return true
	}
	_, ok := t.rates[currency]
	return ok
}

// Rate looks up the unified annual rate for (year, currency). Returns
// ErrCurrencyUnsupported if the currency was never registered at all, and
// ErrFXNotSupported if the currency is known but no rate exists for that
// particular year.
func (t *Table) Rate(year int, currency Currency) (Amount, error) {
	if currency == t.reporting {
		return decimalOne, nil
	}

	byYear, ok := t.rates[currency]
	if !ok {
		return Zero, fmt.Errorf("%w: %s", ErrCurrencyUnsupported, currency)
	}

	rate, ok := byYear[year]
	if !ok {
		return Zero, fmt.Errorf("%w: year %d, currency %s", ErrFXNotSupported, year, currency)
	}
	return rate, nil
}

var decimalOne = New("1")

// DefaultCZKTable returns the FX table ported verbatim from
// original_source/currency.py's unified_fx_rate: USD, EUR and CAD unified
// annual rates against CZK for 2017-2022, sourced from the Czech Ministry
// of Finance / kurzy.cz published tables the original cites in comments.
func DefaultCZKTable() *Table {
	t := NewTable("CZK")

	usd := []string{"23.18", "21.78", "22.93", "23.14", "21.72", "23.41"} // 2017..2022
	eur := []string{"26.29", "25.68", "25.66", "26.50", "25.65", "24.54"}
	cad := []string{"17.87", "16.74", "17.32", "17.23", "17.33", "17.93"}

	const firstYear = 2017
	for i, v := range usd {
		t.AddRate("USD", firstYear+i, New(v))
	}
	for i, v := range eur {
		t.AddRate("EUR", firstYear+i, New(v))
	}
	for i, v := range cad {
		t.AddRate("CAD", firstYear+i, New(v))
	}
	return t
}
