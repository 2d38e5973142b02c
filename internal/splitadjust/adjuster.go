// Package splitadjust rewrites pre-split transactions in place using a
// table of (productID, cutOff, numerator, denominator) events, per
// spec.md §4.2. Ported from
// _examples/original_source/corporate_action.py's
// apply_stock_splits_for_product.
package splitadjust

import (
	"fmt"
	"sort"
	"time"

	"github.com/tugsousa/taxlots/internal/txmodel"
)

// Adjust mutates transactions in place, applying every split event for
// productID whose cut-off is after the instrument's first transaction
// time. Events are deduplicated by (productID, cutOff) — brokers may
// emit the same split under multiple ticker aliases mapping to the same
// product — and applied in ascending cut-off order, each one checked for
// strict integrality as it is applied (spec.md §4.2's rationale: effects
// accumulate multiplicatively via cumulative application, not by
// composing ratios upfront).
func Adjust(transactions []*txmodel.Transaction, splits []txmodel.SplitEvent, productID string) error {
	productTxs := filterByProduct(transactions, productID)
	if len(productTxs) == 0 {
		return nil
	}

	t0 := firstTxTime(productTxs)

	events := dedupAndFilter(splits, productID, t0)
	sort.Slice(events, func(i, j int) bool {
		return events[i].CutOff.Before(events[j].CutOff)
	})

	for _, ev := range events {
		cutOffDate := dateOnly(ev.CutOff)
		for _, tx := range productTxs {
			if dateOnly(tx.Time).Before(cutOffDate) {
				if err := tx.ApplySplit(ev.Numerator, ev.Denominator); err != nil {
					return fmt.Errorf("splitadjust: applying %d:%d cut off %s to %s: %w",
						ev.Numerator, ev.Denominator, ev.CutOff.Format("2006-01-02"), tx, err)
				}
			}
		}
	}

	return nil
}

func filterByProduct(transactions []*txmodel.Transaction, productID string) []*txmodel.Transaction {
	var out []*txmodel.Transaction
	for _, tx := range transactions {
		if tx.ProductID == productID {
			out = append(out, tx)
		}
	}
	return out
}

func firstTxTime(txs []*txmodel.Transaction) time.Time {
	first := txs[0].Time
	for _, tx := range txs[1:] {
		if tx.Time.Before(first) {
			first = tx.Time
		}
	}
	return first
}

// dedupAndFilter keeps only events for productID whose cut-off is after
// t0, collapsing duplicate (productID, cutOff.Date()) rows.
func dedupAndFilter(splits []txmodel.SplitEvent, productID string, t0 time.Time) []txmodel.SplitEvent {
	seen := make(map[time.Time]bool)
	var out []txmodel.SplitEvent
	for _, ev := range splits {
		if ev.ProductID != productID {
			continue
		}
		if !ev.CutOff.After(t0) {
			continue
		}
		key := dateOnly(ev.CutOff)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ev)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
