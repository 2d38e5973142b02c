package txmodel

import "github.com/tugsousa/taxlots/internal/money"

// LotConsumption binds one opening transaction to a closing transaction
// for a specific quantity (spec.md §3). Ported from transaction.py's
// BuyRecord — renamed because, for short covers, the "opening" side is
// the original short sale and the "closing" side is the covering buy, so
// "BuyRecord" would be misleading in Go where both directions share this
// type.
type LotConsumption struct {
	Lot            *Transaction // the transaction this binding consumes from: the opening buy of a long close, or the covering buy of a short cover
	Quantity       int          // positive, <= Lot.RemainingCount() at time of binding
	FeeClaimedHere bool         // true if this binding was the first to claim Lot's fee
	IsShortCover   bool         // true when this binds a short sale to a later covering buy

	// Populated by the P&L calculator (internal/pnl).
	FXRate         money.Amount
	CostConverted  money.Amount
	FeesConverted  money.Amount
	TimeTestPassed bool
}

// NewLotConsumption builds a binding and marks Lot's fee as claimed for
// the first binding against it, mirroring transaction.py's
// add_buy_record/consume_shares pairing.
func NewLotConsumption(lot *Transaction, quantity int, isShortCover bool) (*LotConsumption, error) {
	feeClaimedHere, err := lot.ConsumeShares(quantity)
	if err != nil {
		return nil, err
	}
	return &LotConsumption{
		Lot:            lot,
		Quantity:       quantity,
		FeeClaimedHere: feeClaimedHere,
		IsShortCover:   isShortCover,
	}, nil
}
