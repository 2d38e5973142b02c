package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tugsousa/taxlots/internal/aggregate"
	"github.com/tugsousa/taxlots/internal/config"
	"github.com/tugsousa/taxlots/internal/ingest"
	"github.com/tugsousa/taxlots/internal/logger"
	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/storage"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

var (
	computeDegiroFiles   []string
	computeIBKRFiles     []string
	computeYear          int
	computeStrategy      string
	computeStrategyPath  string
	computeSplitsPath    string
	computeNoSplits      bool
	computeBEP           bool
	computeTimeTest      bool
	computeSymbols       []string
	computeParallel      bool
	computeOutDir        string
	computeRecord        bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute a tax-year realized-gain report from DEGIRO/IBKR exports",
	RunE:  runCompute,
}

func init() {
	f := computeCmd.Flags()
	f.StringSliceVar(&computeDegiroFiles, "degiro", nil, "DEGIRO CSV export (repeatable)")
	f.StringSliceVar(&computeIBKRFiles, "ibkr", nil, "IBKR Flex Query XML export (repeatable)")
	f.IntVar(&computeYear, "year", 0, "target tax year (required)")
	f.StringVar(&computeStrategy, "strategy", "fifo", "lot-selection strategy (fifo|lifo|max_cost|min_cost), used when --strategy-config is not set")
	f.StringVar(&computeStrategyPath, "strategy-config", "", "path to a year->strategy JSON/YAML config file")
	f.StringVar(&computeSplitsPath, "splits", "", "path to a stock-split table JSON/YAML file")
	f.BoolVar(&computeNoSplits, "no-splits", false, "disable split back-adjustment entirely")
	f.BoolVar(&computeBEP, "bep", false, "enable break-even-price averaging")
	f.BoolVar(&computeTimeTest, "time-test", false, "enable the multi-year holding-period exemption")
	f.StringSliceVar(&computeSymbols, "symbols", nil, "instrument product-ID allow-list (default: all instruments seen)")
	f.BoolVar(&computeParallel, "parallel", false, "process instruments concurrently")
	f.StringVar(&computeOutDir, "out", "", "output directory for result files (default: OUTPUT_DIR from config)")
	f.BoolVar(&computeRecord, "record", false, "persist this run's rows and audit events to the SQLite audit trail")
	computeCmd.MarkFlagRequired("year")
}

func runCompute(cmd *cobra.Command, args []string) error {
	canonical, err := loadCanonicalTransactions(computeDegiroFiles, computeIBKRFiles)
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	grouped, err := ingest.GroupByProduct(canonical)
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	allowed := toSet(computeSymbols)
	instruments := instrumentsFromGroups(grouped, allowed)
	if len(instruments) == 0 {
		return fmt.Errorf("compute: no instruments found in the given input files (after any --symbols filter)")
	}

	strategies, err := resolveStrategies()
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	splits, err := resolveSplits()
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	outDir := computeOutDir
	if outDir == "" {
		outDir = config.Cfg.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("compute: creating output directory %s: %w", outDir, err)
	}

	opts := aggregate.Options{
		TaxYear:    computeYear,
		Strategies: strategies,
		FX:         money.DefaultCZKTable(),
		Splits:     splits,
		BEP:        computeBEP,
		TimeTest:   computeTimeTest,
		Parallel:   computeParallel,
		TaxRate:    config.Cfg.DefaultTaxRate,
	}

	report, runErr := aggregate.Run(instruments, opts)
	if runErr != nil {
		logger.L.Warn("one or more instruments failed", "errorCount", report.ErrorCount, "detail", runErr)
	}

	printReport(os.Stdout, report)

	if err := writeReportFiles(outDir, report); err != nil {
		return fmt.Errorf("compute: %w", err)
	}

	if computeRecord {
		if err := recordReport(report); err != nil {
			return fmt.Errorf("compute: %w", err)
		}
	}

	if report.ErrorCount > 0 && report.ErrorCount == len(instruments) {
		return fmt.Errorf("compute: every instrument failed (%d/%d), see log output", report.ErrorCount, len(instruments))
	}
	return nil
}

// loadCanonicalTransactions runs every configured DEGIRO/IBKR input file
// through its parser and concatenates the resulting trade records.
func loadCanonicalTransactions(degiroFiles, ibkrFiles []string) ([]ingest.Transaction, error) {
	var out []ingest.Transaction

	parseAll := func(source string, paths []string) error {
		if len(paths) == 0 {
			return nil
		}
		parser, err := ingest.NewParser(source)
		if err != nil {
			return err
		}
		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			txs, err := parser.Parse(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			out = append(out, txs...)
		}
		return nil
	}

	if err := parseAll("degiro", degiroFiles); err != nil {
		return nil, err
	}
	if err := parseAll("ibkr", ibkrFiles); err != nil {
		return nil, err
	}
	return out, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

func instrumentsFromGroups(grouped map[string][]*txmodel.Transaction, allowed map[string]bool) []aggregate.Instrument {
	var out []aggregate.Instrument
	for productID, txs := range grouped {
		if allowed != nil && !allowed[productID] {
			continue
		}
		displayName := productID
		if len(txs) > 0 && txs[0].DisplayName != "" {
			displayName = txs[0].DisplayName
		}
		out = append(out, aggregate.Instrument{
			ProductID:    productID,
			DisplayName:  displayName,
			Transactions: txs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func resolveStrategies() (txmodel.StrategyMap, error) {
	if computeStrategyPath != "" {
		return config.LoadStrategyMap(computeStrategyPath)
	}
	strategy, ok := txmodel.ParseStrategy(computeStrategy)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (want one of %v)", computeStrategy, txmodel.StrategyNames())
	}
	return txmodel.StrategyMap{computeYear: strategy}, nil
}

func resolveSplits() ([]txmodel.SplitEvent, error) {
	if computeNoSplits {
		return nil, nil
	}
	if computeSplitsPath == "" {
		return nil, nil
	}
	return config.LoadSplitTable(computeSplitsPath)
}

func recordReport(report *aggregate.Report) error {
	dbPath := config.Cfg.DatabasePath
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening audit store %s: %w", dbPath, err)
	}
	defer store.Close()

	if err := store.RecordRows(report.TaxYear, report.Rows); err != nil {
		return err
	}
	for _, ev := range report.Audit {
		if err := store.RecordAudit(ev.ProductID, ev.Kind.String(), ev.Message, ev.Time); err != nil {
			return err
		}
	}
	logger.L.Info("recorded run to audit store", "path", dbPath, "rows", len(report.Rows), "auditEvents", len(report.Audit))
	return nil
}
