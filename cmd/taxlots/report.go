package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/tugsousa/taxlots/internal/aggregate"
)

// printReport renders a human-readable summary table to w, the way the
// original (original_source/optimizer.py's print_report) prints a
// console report, enriched with go-humanize's comma-grouped formatting
// for the monetary columns (a teacher dependency previously unwired).
func printReport(w io.Writer, report *aggregate.Report) {
	fmt.Fprintf(w, "Tax year %d\n", report.TaxYear)
	fmt.Fprintf(w, "%-12s %-28s %-8s %14s %14s %14s %12s\n",
		"Product", "Name", "Status", "Income", "Cost", "Profit", "Fees")

	for _, row := range report.Rows {
		fmt.Fprintf(w, "%-12s %-28s %-8s %14s %14s %14s %12s\n",
			row.ProductID, truncate(row.DisplayName, 28), row.Status.String(),
			money2(row.Income), money2(row.Cost), money2(row.Profit), money2(row.Fees))
		if row.Err != nil {
			fmt.Fprintf(w, "    error: %v\n", row.Err)
		}
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Total income:             %s\n", money2(report.Totals.TotalIncome))
	fmt.Fprintf(w, "Total cost:               %s\n", money2(report.Totals.TotalCost))
	fmt.Fprintf(w, "Total fees:               %s\n", money2(report.Totals.TotalFees))
	fmt.Fprintf(w, "Total profit (before fees): %s\n", money2(report.Totals.TotalProfitBeforeFees))
	fmt.Fprintf(w, "Total profit (after fees):  %s\n", money2(report.Totals.TotalProfitAfterFees))
	fmt.Fprintf(w, "Estimated tax (illustrative only): %s\n", money2(report.Totals.TaxEstimate))
	fmt.Fprintf(w, "Untaxed quantity (time-test exempt): %s\n", humanize.Comma(int64(report.Totals.TotalUntaxedQuantity)))
	if report.ErrorCount > 0 {
		fmt.Fprintf(w, "Instruments with errors: %d\n", report.ErrorCount)
	}
	if len(report.Audit) > 0 {
		fmt.Fprintf(w, "Audit events: %d (see --record to persist)\n", len(report.Audit))
	}
}

func money2(a interface{ StringFixed(int32) string }) string {
	v := a.StringFixed(2)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return humanize.CommafWithDigits(f, 2)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// writeReportFiles writes the summary and detailed-pairing listings
// spec.md §6 names ("commands produce result files under a writable
// output directory") as CSV files under dir.
func writeReportFiles(dir string, report *aggregate.Report) error {
	if err := writeSummaryCSV(filepath.Join(dir, "summary.csv"), report); err != nil {
		return err
	}
	return writePairingsCSV(filepath.Join(dir, "pairings.csv"), report)
}

func writeSummaryCSV(path string, report *aggregate.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"product_id", "display_name", "status", "income", "cost", "profit", "fees"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := w.Write([]string{
			row.ProductID, row.DisplayName, row.Status.String(),
			row.Income.StringFixed(2), row.Cost.StringFixed(2), row.Profit.StringFixed(2), row.Fees.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

func writePairingsCSV(path string, report *aggregate.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"pair_id", "product_id", "side", "quantity", "split_ratio", "unit_price", "currency", "time_test_passed", "profit_per_share"}); err != nil {
		return err
	}
	for _, p := range report.Pairs {
		profitPerShare := ""
		if p.HasProfitPerShare {
			profitPerShare = p.ProfitPerShare.StringFixed(4)
		}
		if err := w.Write([]string{
			p.PairID, p.ProductID, p.Side, strconv.Itoa(p.Quantity),
			p.SplitRatio.StringFixed(6), p.UnitPrice.StringFixed(4), string(p.Currency),
			strconv.FormatBool(p.TimeTestPassed), profitPerShare,
		}); err != nil {
			return err
		}
	}
	return w.Error()
}
