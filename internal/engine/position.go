// Package engine implements the long/short position state machine
// spec.md §4.4 describes: the sole component that drives internal/
// lotselect and constructs SaleRecords, walking one instrument's
// transactions in chronological order. Ported from
// _examples/original_source/transaction_processor.py's main pairing
// loop, with the short-anchor indirection spec.md §9 calls for
// (arena-indexed records plus an explicit open-shorts queue, rather than
// a map holding live SaleRecord references).
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tugsousa/taxlots/internal/lotselect"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

// AuditKind classifies a non-fatal event the position engine wants
// surfaced to callers, per spec.md §9's instruction to route every
// partial-match and uncovered-short case through a typed audit log
// rather than letting them pass silently.
type AuditKind int

const (
	AuditPartialMatch AuditKind = iota
	AuditUncoveredShort
	AuditDefaultStrategy
)

func (k AuditKind) String() string {
	switch k {
	case AuditPartialMatch:
		return "partial_match"
	case AuditUncoveredShort:
		return "uncovered_short"
	case AuditDefaultStrategy:
		return "default_strategy"
	default:
		return "unknown"
	}
}

// AuditEvent is one entry in a Result's audit trail. ID correlates an
// event across log lines and any persisted run history
// (internal/storage), the same way the teacher's request/session
// identifiers do.
type AuditEvent struct {
	ID        uuid.UUID
	Kind      AuditKind
	ProductID string
	Time      time.Time
	Message   string
}

func newAuditEvent(kind AuditKind, productID string, when time.Time, message string) AuditEvent {
	return AuditEvent{ID: uuid.New(), Kind: kind, ProductID: productID, Time: when, Message: message}
}

// Result is the outcome of running Process over one instrument's
// transaction history.
type Result struct {
	Records []*txmodel.SaleRecord
	Audit   []AuditEvent
}

// shortLot is one still-uncovered short sale waiting for covering buys.
type shortLot struct {
	anchor    *txmodel.Transaction
	remaining int
}

// Process walks transactions (for a single instrument, identified by
// productID for audit labeling only — the caller is responsible for
// having already filtered to one instrument) in time order, producing
// SaleRecords exactly as spec.md §4.4 specifies.
//
// It does not copy or mutate the input slice's order; transactions are
// sorted into a local working copy. Transaction.remaining_count and
// fee_claimed on the elements themselves ARE mutated (through
// txmodel.NewLotConsumption, here and in internal/lotselect); split_ratio
// is left to internal/splitadjust.
func Process(productID string, transactions []*txmodel.Transaction, strategies txmodel.StrategyMap) (*Result, error) {
	sorted := make([]*txmodel.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	result := &Result{}
	var longOpens []*txmodel.Transaction
	var openShorts []*shortLot
	anchorIndex := make(map[*txmodel.Transaction]int)
	warnedDefault := false

	minYear, hasMin := strategies.MinYear()

	for _, t := range sorted {
		if t.IsSale() {
			year := t.Time.Year()
			strategy, err := strategies.For(year)
			if err != nil {
				return nil, fmt.Errorf("engine: %s: %w (year %d)", productID, err, year)
			}
			if hasMin && year < minYear && !warnedDefault {
				result.Audit = append(result.Audit, newAuditEvent(AuditDefaultStrategy, productID, t.Time,
					fmt.Sprintf("year %d precedes the configured strategy range, defaulting to fifo", year)))
				warnedDefault = true
			}

			bindings, selErr := lotselect.Select(strategy, t, longOpens)
			if selErr != nil && !errors.Is(selErr, txmodel.ErrInsufficientLots) {
				return nil, fmt.Errorf("engine: %s: %w", productID, selErr)
			}

			matched := 0
			for _, b := range bindings {
				matched += b.Quantity
			}

			record := txmodel.NewSaleRecord(t, bindings)
			result.Records = append(result.Records, record)
			anchorIndex[t] = len(result.Records) - 1

			shortfall := t.AbsCount() - matched
			if shortfall > 0 {
				openShorts = append(openShorts, &shortLot{anchor: t, remaining: shortfall})
				result.Audit = append(result.Audit, newAuditEvent(AuditPartialMatch, productID, t.Time,
					fmt.Sprintf("sell of %d matched only %d prior openings; %d opened as a new short", t.AbsCount(), matched, shortfall)))
			}
			continue
		}

		// T is a buy: first drain any open shorts, then bank whatever's
		// left as new long inventory.
		remaining := t.RemainingCount()
		for remaining > 0 && len(openShorts) > 0 {
			head := openShorts[0]
			k := remaining
			if head.remaining < k {
				k = head.remaining
			}

			binding, err := txmodel.NewLotConsumption(t, k, true)
			if err != nil {
				return nil, fmt.Errorf("engine: %s: covering short from %s: %w", productID, t, err)
			}

			id, ok := anchorIndex[head.anchor]
			if !ok {
				return nil, fmt.Errorf("engine: %s: no sale record indexed for short anchor at %s", productID, head.anchor.Time.Format("2006-01-02"))
			}
			result.Records[id].AppendBinding(binding)

			head.remaining -= k
			remaining -= k
			if head.remaining == 0 {
				openShorts = openShorts[1:]
			}
		}

		longOpens = append(longOpens, t)
	}

	for _, s := range openShorts {
		result.Audit = append(result.Audit, newAuditEvent(AuditUncoveredShort, productID, s.anchor.Time,
			fmt.Sprintf("short opened %s for %d shares remains uncovered at end of run", s.anchor.Time.Format("2006-01-02"), s.remaining)))
	}

	return result, nil
}
