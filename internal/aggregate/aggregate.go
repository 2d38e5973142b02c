// Package aggregate runs the full pipeline (split adjustment, optional
// BEP pre-pass, position engine, P&L calculation) over a set of
// instruments and produces the tax-year report spec.md §4.6 and §6
// describe, sandboxing per-instrument failures per spec.md §7. Ported
// from _examples/original_source/main.py's optimize_all and
// optimizer.py's calculate_totals/calculate_untaxed_totals/print_report.
package aggregate

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"

	"github.com/tugsousa/taxlots/internal/engine"
	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/pnl"
	"github.com/tugsousa/taxlots/internal/splitadjust"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

// defaultTaxRate is the supplemented tax-estimate rate (spec.md §13):
// illustrative only, never authoritative.
var defaultTaxRate = money.New("0.15")

// RowStatus classifies one instrument's outcome in the report.
type RowStatus int

const (
	StatusOK RowStatus = iota
	StatusNoSales
	StatusError
)

func (s RowStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoSales:
		return "NoSales"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Row is one instrument's line in the report (spec.md §6).
type Row struct {
	DisplayName string
	ProductID   string
	Status      RowStatus
	Income      money.Amount
	Cost        money.Amount
	Profit      money.Amount
	Fees        money.Amount
	Err         error
}

// PairRow is one binding-side row of the detailed pairing listing
// (spec.md §6): every binding contributes an "open" row and a "close"
// row sharing PairID.
type PairRow struct {
	PairID          string
	ProductID       string
	Side            string // "open" or "close"
	Quantity        int
	SplitRatio      money.Amount
	UnitPrice       money.Amount
	Currency        money.Currency
	TimeTestPassed  bool
	ProfitPerShare  money.Amount
	HasProfitPerShare bool
}

// Totals is the run-level summary, quantized to 2 fractional digits for
// display (spec.md §6).
type Totals struct {
	TotalIncome            money.Amount
	TotalCost              money.Amount
	TotalFees              money.Amount
	TotalProfitBeforeFees  money.Amount
	TotalProfitAfterFees   money.Amount
	TotalUntaxedQuantity   int
	TaxEstimate            money.Amount
}

// Report is the full output of Run for one requested tax year.
type Report struct {
	TaxYear    int
	Rows       []Row
	Pairs      []PairRow
	Totals     Totals
	Audit      []engine.AuditEvent
	ErrorCount int
}

// Instrument is one instrument's input to Run: its identity plus its
// full (unfiltered, unsplit-adjusted) transaction history.
type Instrument struct {
	ProductID    string
	DisplayName  string
	Transactions []*txmodel.Transaction
}

// Options configures one Run.
type Options struct {
	TaxYear    int
	Strategies txmodel.StrategyMap
	FX         *money.Table
	Splits     []txmodel.SplitEvent
	BEP        bool
	TimeTest   bool
	Parallel   bool
	TaxRate    money.Amount // zero value means defaultTaxRate
}

// Run processes every instrument and returns a Report plus a combined
// error whenever at least one instrument failed; per spec.md §7, a failure on
// one instrument never aborts the others — it surfaces as a
// StatusError row instead, and contributes to the returned
// *multierror.Error purely for observability.
func Run(instruments []Instrument, opts Options) (*Report, error) {
	taxRate := opts.TaxRate
	if taxRate.IsZero() {
		taxRate = defaultTaxRate
	}

	rows := make([]Row, len(instruments))
	pairSets := make([][]PairRow, len(instruments))
	auditSets := make([][]engine.AuditEvent, len(instruments))

	var errs *multierror.Error
	var errMu sync.Mutex
	errorCount := atomic.NewInt64(0)
	completed := atomic.NewInt64(0)

	process := func(i int) {
		inst := instruments[i]
		row, pairs, audit, err := runOne(inst, opts, taxRate)
		rows[i] = row
		pairSets[i] = pairs
		auditSets[i] = audit
		if err != nil {
			errorCount.Inc()
			errMu.Lock()
			errs = multierror.Append(errs, fmt.Errorf("%s (%s): %w", inst.DisplayName, inst.ProductID, err))
			errMu.Unlock()
		}
		completed.Inc()
	}

	if opts.Parallel {
		var wg sync.WaitGroup
		for i := range instruments {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				process(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range instruments {
			process(i)
		}
	}

	report := &Report{TaxYear: opts.TaxYear, Rows: rows}
	report.Totals.TotalIncome = money.Zero
	report.Totals.TotalCost = money.Zero
	report.Totals.TotalFees = money.Zero

	for i := range rows {
		report.Pairs = append(report.Pairs, pairSets[i]...)
		report.Audit = append(report.Audit, auditSets[i]...)

		if rows[i].Status == StatusError {
			continue
		}
		report.Totals.TotalIncome = report.Totals.TotalIncome.Add(rows[i].Income)
		report.Totals.TotalCost = report.Totals.TotalCost.Add(rows[i].Cost)
		report.Totals.TotalFees = report.Totals.TotalFees.Add(rows[i].Fees)
	}

	report.Totals.TotalProfitBeforeFees = report.Totals.TotalIncome.Sub(report.Totals.TotalCost)
	report.Totals.TotalProfitAfterFees = report.Totals.TotalProfitBeforeFees.Sub(report.Totals.TotalFees)
	report.Totals.TaxEstimate = money.QuantizeDisplay(report.Totals.TotalProfitAfterFees.Mul(taxRate))

	report.Totals.TotalIncome = money.QuantizeDisplay(report.Totals.TotalIncome)
	report.Totals.TotalCost = money.QuantizeDisplay(report.Totals.TotalCost)
	report.Totals.TotalFees = money.QuantizeDisplay(report.Totals.TotalFees)
	report.Totals.TotalProfitBeforeFees = money.QuantizeDisplay(report.Totals.TotalProfitBeforeFees)
	report.Totals.TotalProfitAfterFees = money.QuantizeDisplay(report.Totals.TotalProfitAfterFees)

	report.ErrorCount = int(errorCount.Load())

	return report, errs.ErrorOrNil()
}

// runOne runs the full pipeline for a single instrument, returning a
// non-nil error only when the instrument's own processing fails; all
// monetary values on the returned Row are left zero in that case.
func runOne(inst Instrument, opts Options, taxRate money.Amount) (Row, []PairRow, []engine.AuditEvent, error) {
	row := Row{DisplayName: inst.DisplayName, ProductID: inst.ProductID}

	transactions := make([]*txmodel.Transaction, len(inst.Transactions))
	copy(transactions, inst.Transactions)

	if err := splitadjust.Adjust(transactions, opts.Splits, inst.ProductID); err != nil {
		row.Status = StatusError
		row.Err = err
		return row, nil, nil, err
	}

	if opts.BEP {
		pnl.ComputeBreakEvenPrices(transactions)
	}

	result, err := engine.Process(inst.ProductID, transactions, opts.Strategies)
	if err != nil {
		row.Status = StatusError
		row.Err = err
		return row, nil, nil, err
	}

	totals, err := pnl.Calculate(result.Records, opts.FX, pnl.Options{
		TaxYear:  opts.TaxYear,
		BEP:      opts.BEP,
		TimeTest: opts.TimeTest,
	})
	if err != nil {
		row.Status = StatusError
		row.Err = err
		return row, nil, result.Audit, err
	}

	row.Income = money.QuantizeAggregate(totals.Income)
	row.Cost = money.QuantizeAggregate(totals.Cost)
	row.Fees = money.QuantizeAggregate(totals.Fees)
	row.Profit = money.QuantizeAggregate(totals.Income.Sub(totals.Cost))

	inYear := 0
	for _, r := range result.Records {
		if r.CloseTime.Year() == opts.TaxYear {
			inYear++
		}
	}
	if inYear == 0 {
		row.Status = StatusNoSales
	} else {
		row.Status = StatusOK
	}

	return row, buildPairRows(result.Records, opts.TaxYear), result.Audit, nil
}

// buildPairRows renders the detailed pairing listing (spec.md §6): one
// open/close row pair per binding, sharing a PairID built from the
// record's close time and the binding's position within it.
func buildPairRows(records []*txmodel.SaleRecord, taxYear int) []PairRow {
	var out []PairRow

	for _, record := range records {
		if record.CloseTime.Year() != taxYear {
			continue
		}

		for i, binding := range record.Bindings {
			pairID := fmt.Sprintf("%s_%d", record.CloseTime.Format(time.RFC3339), i)
			profitPerShare := record.Anchor.UnitPrice.Sub(binding.Lot.EffectivePrice(false))

			out = append(out, PairRow{
				PairID:            pairID,
				ProductID:         record.Anchor.ProductID,
				Side:              "open",
				Quantity:          binding.Quantity,
				SplitRatio:        binding.Lot.SplitRatio(),
				UnitPrice:         binding.Lot.UnitPrice,
				Currency:          binding.Lot.TradeCurrency,
				TimeTestPassed:    binding.TimeTestPassed,
				ProfitPerShare:    profitPerShare,
				HasProfitPerShare: true,
			})
			out = append(out, PairRow{
				PairID:     pairID,
				ProductID:  record.Anchor.ProductID,
				Side:       "close",
				Quantity:   binding.Quantity,
				SplitRatio: record.Anchor.SplitRatio(),
				UnitPrice:  record.Anchor.UnitPrice,
				Currency:   record.Anchor.TradeCurrency,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PairID < out[j].PairID })
	return out
}
