// Package lotselect implements the four lot-selection policies spec.md
// §4.3 names: FIFO, LIFO, MaxCost and MinCost, each as a pure function
// over a slice of candidate opening lots. Ported near-verbatim from
// _examples/original_source/optimizer.py's find_buys_fifo,
// find_buys_lifo, find_buys_generic_lifo, is_better_cost_pair and
// is_lower_cost_pair, with the reflection-based strategy dispatch
// (spec.md §9) replaced by the txmodel.Strategy tagged variant.
package lotselect

import (
	"fmt"
	"sort"
	"time"

	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

// Select produces an ordered list of bindings against candidates whose
// quantities sum to the closing transaction's absolute count, under the
// given strategy. candidates must already be filtered to the opposite-
// signed, same-side, time-ordered-before-closing set the position engine
// maintains (spec.md §4.3) — this function does not re-filter by time or
// side; it only skips lots whose remaining quantity is zero.
//
// If candidates cannot supply the full requested quantity,
// ErrInsufficientLots is returned together with whatever partial set of
// bindings was assembled before the shortfall was discovered; the caller
// (internal/engine) decides whether to accept a partial match per
// spec.md §4.4.
func Select(strategy txmodel.Strategy, closing *txmodel.Transaction, candidates []*txmodel.Transaction) ([]*txmodel.LotConsumption, error) {
	needed := closing.AbsCount()

	switch strategy {
	case txmodel.FIFO:
		return selectOrdered(needed, sortedAscending(candidates), false)
	case txmodel.LIFO:
		return selectOrdered(needed, sortedAscending(candidates), true)
	case txmodel.MaxCost:
		return selectGreedyBySignificance(needed, candidates, isBetterCostPair)
	case txmodel.MinCost:
		return selectGreedyBySignificance(needed, candidates, isLowerCostPair)
	default:
		return nil, fmt.Errorf("lotselect: unknown strategy %v", strategy)
	}
}

func sortedAscending(candidates []*txmodel.Transaction) []*txmodel.Transaction {
	out := make([]*txmodel.Transaction, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// selectOrdered walks candidates (already ascending by time) either
// forward (FIFO) or in reverse (LIFO), taking from each lot until needed
// shares are bound. Ported from find_buys_fifo/find_buys_lifo.
func selectOrdered(needed int, ascending []*txmodel.Transaction, reverse bool) ([]*txmodel.LotConsumption, error) {
	var bindings []*txmodel.LotConsumption
	remaining := needed

	order := make([]*txmodel.Transaction, len(ascending))
	copy(order, ascending)
	if reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	for _, lot := range order {
		if remaining == 0 {
			break
		}
		if lot.RemainingCount() <= 0 {
			continue
		}
		take := min(remaining, lot.RemainingCount())
		binding, err := txmodel.NewLotConsumption(lot, take, false)
		if err != nil {
			return bindings, err
		}
		bindings = append(bindings, binding)
		remaining -= take
	}

	if remaining != 0 {
		return bindings, txmodel.ErrInsufficientLots
	}
	return bindings, nil
}

// significanceFilter reports whether candidate should replace best as the
// next lot to drain, given the strategy-specific thresholds of
// spec.md §4.3.
type significanceFilter func(best, candidate *txmodel.Transaction) bool

// isBetterCostPair is the MaxCost significance filter, ported verbatim
// from is_better_cost_pair.
func isBetterCostPair(best, candidate *txmodel.Transaction) bool {
	if best == nil {
		return true
	}
	dayDiff := absDays(best.Time, candidate.Time)
	return (dayDiff < 20 && candidate.UnitPrice.GreaterThan(best.UnitPrice.Mul(mustDecimal("1.02")))) ||
		(dayDiff < 75 && candidate.UnitPrice.GreaterThan(best.UnitPrice.Mul(mustDecimal("1.08")))) ||
		candidate.UnitPrice.GreaterThan(best.UnitPrice.Mul(mustDecimal("1.15")))
}

// isLowerCostPair is the MinCost significance filter. The final
// threshold constant (0.085) is the value the original source actually
// wires into find_buys_min_cost (is_lower_cost_pair), not the
// symmetric-looking 0.75/0.85 variant it keeps alongside as dead code
// (is_lower_cost_pair_orig). spec.md §9 explicitly preserves this
// anomaly rather than silently "fixing" it — do not change this
// constant without product-owner sign-off.
func isLowerCostPair(best, candidate *txmodel.Transaction) bool {
	if best == nil {
		return true
	}
	dayDiff := absDays(best.Time, candidate.Time)
	return (dayDiff < 20 && candidate.UnitPrice.LessThan(best.UnitPrice.Mul(mustDecimal("0.97")))) ||
		(dayDiff < 75 && candidate.UnitPrice.LessThan(best.UnitPrice.Mul(mustDecimal("0.75")))) ||
		candidate.UnitPrice.LessThan(best.UnitPrice.Mul(mustDecimal("0.085")))
}

// selectGreedyBySignificance walks candidates in reverse-chronological
// order (optimizer.py:81, "for t in reversed([...])"), tracking a
// running "best" lot and only replacing it when the next candidate
// clears the strategy's significance threshold against it (spec.md
// §4.3); ties under the threshold therefore resolve to the most
// recently dated lot, not the earliest. Once a full pass settles on a
// best lot it is drained; the scan then repeats over whatever lots
// remain until needed shares are bound or no eligible lot remains.
// Ported from find_buys_generic_lifo.
func selectGreedyBySignificance(needed int, candidates []*txmodel.Transaction, isBetter significanceFilter) ([]*txmodel.LotConsumption, error) {
	var bindings []*txmodel.LotConsumption
	remaining := needed
	descending := sortedAscending(candidates)
	for i, j := 0, len(descending)-1; i < j; i, j = i+1, j-1 {
		descending[i], descending[j] = descending[j], descending[i]
	}

	for remaining > 0 {
		var best *txmodel.Transaction
		for _, candidate := range descending {
			if candidate.RemainingCount() <= 0 {
				continue
			}
			if isBetter(best, candidate) {
				best = candidate
			}
		}

		if best == nil {
			return bindings, txmodel.ErrInsufficientLots
		}

		take := min(remaining, best.RemainingCount())
		binding, err := txmodel.NewLotConsumption(best, take, false)
		if err != nil {
			return bindings, err
		}
		bindings = append(bindings, binding)
		remaining -= take
	}

	return bindings, nil
}

// absDays returns the whole-day span between two timestamps, irrespective
// of order, matching original_source/optimizer.py's (a - b).days checks.
func absDays(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// mustDecimal parses a compile-time constant threshold literal. Panics on
// a malformed literal, which would only happen from a coding mistake in
// this file.
func mustDecimal(s string) money.Amount {
	return money.New(s)
}
