// Package txmodel holds the data model spec.md §3 describes: the
// Transaction value plus its mutable consumption state, LotConsumption
// bindings, SaleRecords, split events and the lot-selection Strategy
// variant. It is ported field-for-field from
// _examples/original_source/transaction.py's Transaction/BuyRecord/
// SaleRecord classes, translated from Python's private-attribute-plus-
// property idiom into a Go struct with unexported mutable fields and
// accessor methods that preserve the same invariants.
package txmodel

import (
	"fmt"
	"time"

	"github.com/tugsousa/taxlots/internal/money"
)

// Transaction is one executed trade for one instrument. The fields above
// the blank line are the trade facts, changed after construction only by
// ApplySplit (Count and UnitPrice); the fields below it are the mutable
// companion state the position engine and lot selector maintain as the
// transaction is consumed by pairing (spec.md §3).
type Transaction struct {
	Time          time.Time
	ProductID     string
	DisplayName   string
	Count         int // signed: positive = buy/cover, negative = sell/short-open
	UnitPrice     money.Amount
	TradeCurrency money.Currency
	Fee           money.Amount
	FeeCurrency   money.Currency
	Multiplier    int // 1 for shares, 100 for option contracts

	remainingCount int
	feeClaimed     bool
	splitRatio     money.Amount
	bep            *money.Amount
}

// New constructs a Transaction, validating the invariants spec.md §3
// names: count must be non-zero, unit price and fee must be non-negative.
func New(t time.Time, productID, displayName string, count int, unitPrice money.Amount, tradeCurrency money.Currency, fee money.Amount, feeCurrency money.Currency, multiplier int) (*Transaction, error) {
	if count == 0 {
		return nil, fmt.Errorf("txmodel: count must not be zero (product %s, time %s)", productID, t)
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("txmodel: unit price must not be negative (product %s, time %s)", productID, t)
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("%w: product %s, time %s", ErrUnexpectedNegativeFee, productID, t)
	}
	if multiplier < 1 {
		multiplier = 1
	}

	abs := count
	if abs < 0 {
		abs = -abs
	}

	return &Transaction{
		Time:           t,
		ProductID:      productID,
		DisplayName:    displayName,
		Count:          count,
		UnitPrice:      unitPrice,
		TradeCurrency:  tradeCurrency,
		Fee:            fee,
		FeeCurrency:    feeCurrency,
		Multiplier:     multiplier,
		remainingCount: abs,
		splitRatio:     money.New("1"),
	}, nil
}

// IsSale reports whether this transaction reduces a long position (or
// opens/deepens a short): count < 0.
func (t *Transaction) IsSale() bool {
	return t.Count < 0
}

// AbsCount is |Count|.
func (t *Transaction) AbsCount() int {
	if t.Count < 0 {
		return -t.Count
	}
	return t.Count
}

// RemainingCount is the quantity of this transaction not yet bound to any
// LotConsumption. It starts at AbsCount(), is decremented by ConsumeShares,
// and is scaled together with Count by ApplySplit.
func (t *Transaction) RemainingCount() int {
	return t.remainingCount
}

// FeeClaimed reports whether some prior binding already claimed this
// transaction's fee.
func (t *Transaction) FeeClaimed() bool {
	return t.feeClaimed
}

// SplitRatio is the cumulative split adjustment applied to this
// transaction so far, retained for audit (spec.md §3).
func (t *Transaction) SplitRatio() money.Amount {
	return t.splitRatio
}

// BEP is the break-even price recorded on this transaction by the BEP
// pre-pass, or nil if BEP mode is not in use.
func (t *Transaction) BEP() *money.Amount {
	return t.bep
}

// SetBEP records the running break-even price at the time of this
// transaction. Ported from transaction.py's set_bep.
func (t *Transaction) SetBEP(bep money.Amount) {
	t.bep = &bep
}

// EffectivePrice selects the price this transaction should be valued at:
// the recorded BEP when useBEP is true and a BEP has been computed,
// otherwise its own unit price. In BEP mode a bound opening lot's cost
// basis comes from the closing sale's EffectivePrice, not the lot's own
// (transaction.py:235 overwrites buy_rec.buy_t._share_price with
// self.sale_t.bep) — callers must call this on the anchor, not the lot,
// to get that override. This keeps BEP from ever overwriting the stored
// UnitPrice in place, per spec.md §9's design note (the original Python
// source does overwrite share_price in place as a "BEP hack"; we keep
// the same numeric behavior without the mutation).
func (t *Transaction) EffectivePrice(useBEP bool) money.Amount {
	if useBEP && t.bep != nil {
		return *t.bep
	}
	return t.UnitPrice
}

// ConsumeShares binds count shares of this transaction to a closing
// transaction. It returns feeClaimedHere = true the first time this
// transaction is consumed (and marks the fee claimed from then on), false
// on every subsequent consumption — ensuring each transaction's fee is
// counted at most once (spec.md §3). Ported from transaction.py's
// consume_shares.
func (t *Transaction) ConsumeShares(count int) (feeClaimedHere bool, err error) {
	if count < 1 {
		return false, fmt.Errorf("txmodel: cannot consume %d shares (must be >= 1)", count)
	}
	if t.remainingCount < 1 {
		return false, fmt.Errorf("txmodel: no remaining shares to consume on %s", t.describe())
	}
	if count > t.remainingCount {
		return false, fmt.Errorf("txmodel: cannot consume %d shares, only %d remaining on %s", count, t.remainingCount, t.describe())
	}

	t.remainingCount -= count

	if !t.feeClaimed {
		t.feeClaimed = true
		return true, nil
	}
	return false, nil
}

// ApplySplit scales count, remainingCount and unitPrice in place by
// numerator/denominator, accumulating the split ratio for audit. Returns
// ErrSplitIndivisible if the new count would not be integral. Ported from
// transaction.py's apply_split.
func (t *Transaction) ApplySplit(numerator, denominator int) error {
	if numerator == denominator {
		return nil
	}

	if (t.Count*numerator)%denominator != 0 {
		return fmt.Errorf("%w: %s", ErrSplitIndivisible, t.describe())
	}

	t.Count = t.Count * numerator / denominator
	t.splitRatio = t.splitRatio.Mul(money.New(fmt.Sprint(numerator))).Div(money.New(fmt.Sprint(denominator)))
	t.remainingCount = t.remainingCount * numerator / denominator

	t.UnitPrice = t.UnitPrice.Mul(money.New(fmt.Sprint(denominator))).Div(money.New(fmt.Sprint(numerator)))

	return nil
}

func (t *Transaction) describe() string {
	return fmt.Sprintf("%s %s count=%d @ %s %s", t.Time.Format("2006-01-02"), t.ProductID, t.Count, t.UnitPrice, t.TradeCurrency)
}

func (t *Transaction) String() string {
	return t.describe()
}
