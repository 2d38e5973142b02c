// Package ingest converts brokerage export formats (DEGIRO CSV, IBKR Flex
// Query XML) into txmodel.Transaction values the engine can pair. Every
// format-specific parser produces the same intermediate Transaction
// below; the conversion to txmodel lives here, once, so neither parser
// has to know about lot-selection, split adjustment, or any other core
// concern. Ported from the teacher's src/models/canonical.go
// (CanonicalTransaction) and src/processors/transaction_processor.go
// (the raw-to-processed promotion step), narrowed to only the fields the
// tax-lot engine consumes.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

// Transaction is the unified, broker-agnostic shape every parser in this
// package produces. It carries the same fields the teacher's
// CanonicalTransaction does for trades, dropped down to what the tax-lot
// engine needs: dividends, deposits and withdrawals are not positions and
// never reach txmodel.
type Transaction struct {
	Source       string // "degiro" or "ibkr"
	Time         time.Time
	ProductID    string // ISIN when present, else a source-qualified symbol
	DisplayName  string
	Kind         string // "STOCK" or "OPTION"
	BuySell      string // "BUY" or "SELL"
	Quantity     float64
	UnitPrice    float64
	Currency     string
	Commission   float64
	FeeCurrency  string
	OrderID      string
}

// IsTrade reports whether this canonical record represents a stock or
// option trade, as opposed to a dividend, fee or cash movement the
// parser surfaced but the engine has no use for.
func (c Transaction) IsTrade() bool {
	return c.Kind == "STOCK" || c.Kind == "OPTION"
}

// ToTransaction converts a canonical trade record into a txmodel.Transaction.
// Quantity is always recorded unsigned by the parsers; the sign here comes
// from BuySell, matching spec.md §3's "count: signed" convention (positive
// = buy/cover, negative = sell/short-open). Option contracts get the
// multiplier of 100 spec.md §9 calls for; everything else uses 1.
func (c Transaction) ToTransaction() (*txmodel.Transaction, error) {
	if !c.IsTrade() {
		return nil, fmt.Errorf("ingest: %s is not a trade record, has no transaction form", c.Kind)
	}

	qty := int(c.Quantity)
	if qty == 0 {
		return nil, fmt.Errorf("ingest: zero-quantity trade for %s at %s", c.ProductID, c.Time)
	}

	count := qty
	switch strings.ToUpper(c.BuySell) {
	case "BUY":
		// positive, as constructed
	case "SELL":
		count = -count
	default:
		return nil, fmt.Errorf("ingest: unrecognized buy/sell side %q for %s", c.BuySell, c.ProductID)
	}

	multiplier := 1
	if c.Kind == "OPTION" {
		multiplier = 100
	}

	feeCurrency := c.FeeCurrency
	if feeCurrency == "" {
		feeCurrency = c.Currency
	}

	return txmodel.New(
		c.Time,
		c.ProductID,
		c.DisplayName,
		count,
		money.FromFloat(c.UnitPrice),
		money.Currency(c.Currency),
		money.FromFloat(c.Commission),
		money.Currency(feeCurrency),
		multiplier,
	)
}

// GroupByProduct buckets a flat stream of canonical trades by ProductID,
// the unit of work the aggregator and position engine operate on
// (spec.md §2: "a flat stream of executed transactions for one
// instrument"). Non-trade records (dividends, cash movements) are
// silently dropped; they carry no position state for the engine to pair.
func GroupByProduct(records []Transaction) (map[string][]*txmodel.Transaction, error) {
	out := make(map[string][]*txmodel.Transaction)
	for _, r := range records {
		if !r.IsTrade() {
			continue
		}
		tx, err := r.ToTransaction()
		if err != nil {
			return nil, err
		}
		out[r.ProductID] = append(out[r.ProductID], tx)
	}
	return out, nil
}
