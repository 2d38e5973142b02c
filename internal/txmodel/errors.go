package txmodel

import "errors"

// Error kinds propagated by the engine, per spec.md §7. None of these are
// swallowed silently; the aggregator is the only layer allowed to turn one
// into a per-instrument "Error" status row instead of aborting a run.
var (
	// ErrSplitIndivisible is returned when a split would yield a
	// fractional share on an existing lot.
	ErrSplitIndivisible = errors.New("txmodel: split leaves a fractional share")

	// ErrInsufficientLots is returned by the lot selector when it cannot
	// locate the requested opening quantity. The position engine
	// downgrades this to a partial match (spec.md §4.4) rather than
	// propagating it, but the error value is still used to signal that
	// condition up from the selector.
	ErrInsufficientLots = errors.New("txmodel: insufficient opening lots to pair sale")

	// ErrNoStrategy is returned when the strategy map lacks an entry for
	// a year that contains closes, and that year is later than every
	// configured year.
	ErrNoStrategy = errors.New("txmodel: no lot-selection strategy configured for year")

	// ErrUnexpectedNegativeFee signals an input-normalization invariant
	// violation: a transaction's fee must never be negative.
	ErrUnexpectedNegativeFee = errors.New("txmodel: unexpected negative fee")
)
