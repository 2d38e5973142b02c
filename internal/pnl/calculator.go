// Package pnl implements the per-SaleRecord income/cost/fee computation
// spec.md §4.5 describes: the BEP pre-pass, the time-test exemption, the
// sell-side fee rule, and the short-cover-before-tax-year skip. Ported
// from _examples/original_source/transaction.py's
// SaleRecord.calculate_income_and_cost and BuyRecord.calculate_cost,
// plus optimizer.py's calculate_break_even_prices.
package pnl

import (
	"sort"
	"strconv"
	"time"

	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

// timeTestThreshold is the calendar-day holding period spec.md §9
// preserves verbatim (3×365, not a calendar-accurate 3-year interval).
const timeTestThreshold = 3 * 365 * 24 * time.Hour

// Options selects the independent calculation modes spec.md §4.5 names.
type Options struct {
	TaxYear  int
	BEP      bool // value every lot bound to a sale at that sale's break-even price instead of the lot's own unit price
	TimeTest bool // exclude bindings held longer than the time-test threshold from totals
}

// Totals is the tax-year summary produced by Calculate.
type Totals struct {
	Income          money.Amount
	Cost            money.Amount
	Fees            money.Amount
	UntaxedQuantity int
}

// ProfitBeforeFees is Income - Cost.
func (t Totals) ProfitBeforeFees() money.Amount {
	return t.Income.Sub(t.Cost)
}

// ProfitAfterFees is Income - Cost - Fees.
func (t Totals) ProfitAfterFees() money.Amount {
	return t.Income.Sub(t.Cost).Sub(t.Fees)
}

func intAmount(n int) money.Amount {
	return money.New(strconv.Itoa(n))
}

// ComputeBreakEvenPrices runs the BEP pre-pass over one instrument's full
// chronological transaction history, recording a running average long-
// position cost on every transaction via Transaction.SetBEP. It must run
// before Calculate is called with Options.BEP set, and it is idempotent:
// running it twice over the same transactions recomputes the same
// values.
//
// Ported from optimizer.py's calculate_break_even_prices: buys update
// the running (qty, total_cost) and record the post-update average;
// sells record the *prevailing* average first, then fold the sale back
// into (qty, total_cost) at that recorded price (count is negative, so
// this reduces total_cost proportionally).
func ComputeBreakEvenPrices(transactions []*txmodel.Transaction) {
	sorted := make([]*txmodel.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	qty := 0
	totalCost := money.Zero

	for _, tx := range sorted {
		if tx.IsSale() {
			var bep money.Amount
			if qty != 0 {
				bep = totalCost.Div(intAmount(qty))
			} else {
				bep = money.Zero
			}
			tx.SetBEP(bep)
			totalCost = totalCost.Add(intAmount(tx.Count).Mul(bep))
			qty += tx.Count
			continue
		}

		totalCost = totalCost.Add(intAmount(tx.Count).Mul(tx.UnitPrice))
		qty += tx.Count
		if qty != 0 {
			tx.SetBEP(totalCost.Div(intAmount(qty)))
		} else {
			tx.SetBEP(money.Zero)
		}
	}
}

// Calculate computes income, cost and fees for every record whose
// CloseTime falls in opts.TaxYear, mutating each SaleRecord's
// *Converted fields and each binding's FXRate/CostConverted/
// FeesConverted/TimeTestPassed fields as it goes, and returns the
// tax-year Totals.
func Calculate(records []*txmodel.SaleRecord, fxTable *money.Table, opts Options) (Totals, error) {
	var totals Totals
	totals.Income = money.Zero
	totals.Cost = money.Zero
	totals.Fees = money.Zero

	for _, record := range records {
		if record.CloseTime.Year() != opts.TaxYear {
			continue
		}

		record.IncomeConverted = money.Zero
		record.CostConverted = money.Zero
		record.FeesConverted = money.Zero
		record.UntaxedQuantity = 0

		includedCount := 0

		for _, binding := range record.Bindings {
			if binding.IsShortCover && binding.Lot.Time.Year() < opts.TaxYear {
				continue
			}

			held := record.Anchor.Time.Sub(binding.Lot.Time)
			binding.TimeTestPassed = held > timeTestThreshold

			if binding.TimeTestPassed && opts.TimeTest {
				record.UntaxedQuantity += binding.Quantity
				continue
			}

			fxBuy, err := fxTable.Rate(binding.Lot.Time.Year(), binding.Lot.TradeCurrency)
			if err != nil {
				return Totals{}, err
			}
			fxSell, err := fxTable.Rate(record.Anchor.Time.Year(), record.Anchor.TradeCurrency)
			if err != nil {
				return Totals{}, err
			}

			qty := intAmount(binding.Quantity)
			// BEP overrides the bound lot's cost with the anchor sale's own
			// break-even price, not the lot's (transaction.py:235,
			// buy_rec.buy_t._share_price = self.sale_t.bep): the two can
			// differ because the lot's BEP is the running average at the
			// time it was bought, while the anchor's is the running
			// average as of the sale, after any intervening buys or sells.
			// Without BEP the cost basis is the bound lot's own unit price.
			effectivePrice := binding.Lot.UnitPrice
			if opts.BEP && record.Anchor.BEP() != nil {
				effectivePrice = *record.Anchor.BEP()
			}

			income := qty.Mul(record.Anchor.UnitPrice).Mul(fxSell).Mul(intAmount(record.Anchor.Multiplier))
			cost := qty.Mul(effectivePrice).Mul(fxBuy).Mul(intAmount(binding.Lot.Multiplier))

			fee := money.Zero
			if binding.FeeClaimedHere {
				feeFX, err := fxTable.Rate(binding.Lot.Time.Year(), binding.Lot.FeeCurrency)
				if err != nil {
					return Totals{}, err
				}
				fee = binding.Lot.Fee.Mul(feeFX)
			}

			binding.FXRate = fxBuy
			binding.CostConverted = cost
			binding.FeesConverted = fee

			record.IncomeConverted = record.IncomeConverted.Add(income)
			record.CostConverted = record.CostConverted.Add(cost)
			record.FeesConverted = record.FeesConverted.Add(fee)

			includedCount++
		}

		// Sale-side fee: charged only if some binding actually contributed
		// income in this tax year (spec.md §9's resolved open question:
		// charge in the year of the anchor sell if any cover in that year
		// contributes).
		if includedCount > 0 {
			sellFeeFX, err := fxTable.Rate(record.Anchor.Time.Year(), record.Anchor.FeeCurrency)
			if err != nil {
				return Totals{}, err
			}
			record.FeesConverted = record.FeesConverted.Add(record.Anchor.Fee.Mul(sellFeeFX))
		}

		totals.Income = totals.Income.Add(record.IncomeConverted)
		totals.Cost = totals.Cost.Add(record.CostConverted)
		totals.Fees = totals.Fees.Add(record.FeesConverted)
		totals.UntaxedQuantity += record.UntaxedQuantity
	}

	return totals, nil
}
