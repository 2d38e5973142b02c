package txmodel

import (
	"time"

	"github.com/tugsousa/taxlots/internal/money"
)

// SaleRecord is one closing event: a sell that reduces (or opens) a
// position. Ported from transaction.py's SaleRecord. For a long close,
// Anchor is the sell and CloseTime equals its time. For a short close,
// Anchor is the original short sale and CloseTime tracks the latest
// covering buy seen so far, per spec.md §3/§4.4 and §9's close-time
// design note.
type SaleRecord struct {
	Anchor    *Transaction
	Bindings  []*LotConsumption
	CloseTime time.Time

	// Computed by internal/pnl.
	IncomeConverted money.Amount
	CostConverted   money.Amount
	FeesConverted   money.Amount
	UntaxedQuantity int
}

// NewSaleRecord starts a record anchored on a sell (or short-sale)
// transaction. CloseTime starts at the anchor's own time; AppendBinding
// advances it for short covers.
func NewSaleRecord(anchor *Transaction, bindings []*LotConsumption) *SaleRecord {
	return &SaleRecord{
		Anchor:    anchor,
		Bindings:  bindings,
		CloseTime: anchor.Time,
	}
}

// AppendBinding adds a binding to this record (used when a later buy
// covers a short this record anchors) and advances CloseTime to the
// binding's lot time if it is later — the invariant spec.md §4.4/§8
// names: "close_time ≥ max(binding.cover_buy.time) and equals the
// latest".
func (s *SaleRecord) AppendBinding(b *LotConsumption) {
	s.Bindings = append(s.Bindings, b)
	if b.Lot.Time.After(s.CloseTime) {
		s.CloseTime = b.Lot.Time
	}
}

// MatchedQuantity sums the quantities of all bindings so far.
func (s *SaleRecord) MatchedQuantity() int {
	total := 0
	for _, b := range s.Bindings {
		total += b.Quantity
	}
	return total
}

// FullyMatched reports whether the sum of binding quantities equals the
// anchor's absolute count (spec.md §3's conservation-of-quantity
// invariant).
func (s *SaleRecord) FullyMatched() bool {
	return s.MatchedQuantity() == s.Anchor.AbsCount()
}

// Profit is income minus cost. It reports ok=false, with the zero value,
// only for a record that has no bindings and zero converted income and
// cost; a record with bindings reports ok=true whether or not the P&L
// calculator has run on it.
func (s *SaleRecord) Profit() (money.Amount, bool) {
	if s.IncomeConverted.IsZero() && s.CostConverted.IsZero() && len(s.Bindings) == 0 {
		return money.Zero, false
	}
	return s.IncomeConverted.Sub(s.CostConverted), true
}
