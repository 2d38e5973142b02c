package money

import "errors"

// ErrFXNotSupported is returned when no rate is configured for a
// (year, currency) pair.
var ErrFXNotSupported = errors.New("money: exchange rate not supported for year/currency")

// ErrCurrencyUnsupported is returned when a currency code is not part of
// the enumeration a FX table was built for.
var ErrCurrencyUnsupported = errors.New("money: currency not supported")
