package pnl

import (
	"testing"
	"time"

	"github.com/tugsousa/taxlots/internal/engine"
	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

func mustTx(t *testing.T, when time.Time, count int, price, unitCurrency, fee, feeCurrency string) *txmodel.Transaction {
	t.Helper()
	tx, err := txmodel.New(when, "US0000", "Widget Inc", count, money.New(price), money.Currency(unitCurrency), money.New(fee), money.Currency(feeCurrency), 1)
	if err != nil {
		t.Fatalf("txmodel.New: %v", err)
	}
	return tx
}

func fifoOnly() txmodel.StrategyMap {
	return txmodel.StrategyMap{2000: txmodel.FIFO, 2030: txmodel.FIFO}
}

// TestSellInTwoPartsFeesAndIncome is spec.md §8 scenario S1.
func TestSellInTwoPartsFeesAndIncome(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

	buy := mustTx(t, day(1), 10, "100", "USD", "0.50", "EUR")
	sell1 := mustTx(t, day(10), -2, "150", "USD", "0.50", "EUR")
	sell2 := mustTx(t, day(20), -8, "150", "USD", "0.50", "EUR")

	result, err := engine.Process("US0000", []*txmodel.Transaction{buy, sell1, sell2}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	fx := money.DefaultCZKTable()
	totals, err := Calculate(result.Records, fx, Options{TaxYear: 2021})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if totals.UntaxedQuantity != 0 {
		t.Errorf("untaxed = %d, want 0", totals.UntaxedQuantity)
	}

	eurRate, _ := fx.Rate(2021, "EUR")
	wantFirstFee := money.New("1.00").Mul(eurRate)
	wantSecondFee := money.New("0.50").Mul(eurRate)

	first, second := result.Records[0], result.Records[1]
	if !first.FeesConverted.Equal(wantFirstFee) {
		t.Errorf("first record fees = %s, want %s", first.FeesConverted, wantFirstFee)
	}
	if !second.FeesConverted.Equal(wantSecondFee) {
		t.Errorf("second record fees = %s, want %s", second.FeesConverted, wantSecondFee)
	}
}

// TestTimeTestExemption is spec.md §8 scenario S6.
func TestTimeTestExemption(t *testing.T) {
	taxYear := 2024
	sellTime := time.Date(taxYear, 1, 2, 0, 0, 0, 0, time.UTC)
	oldBuyTime := sellTime.AddDate(-3, 0, -4)  // comfortably more than 3*365 days before the sell
	recentBuyTime := sellTime.AddDate(-2, 0, 0) // comfortably less than 3*365 days before the sell

	oldBuy := mustTx(t, oldBuyTime, 5, "100", "USD", "0", "USD")
	recentBuy := mustTx(t, recentBuyTime, 3, "120", "USD", "0", "USD")
	sell := mustTx(t, sellTime, -8, "200", "USD", "0", "USD")

	fx := money.NewTable("USD")

	// With time-test enabled, only the 3-share lot (held less than 3*365
	// days) contributes; the 5-share lot is excluded and counted untaxed.
	resultEnabled, err := engine.Process("US0000", []*txmodel.Transaction{
		cloneBuy(t, oldBuy), cloneBuy(t, recentBuy), cloneSell(t, sell),
	}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	totals, err := Calculate(resultEnabled.Records, fx, Options{TaxYear: taxYear, TimeTest: true})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if totals.UntaxedQuantity != 5 {
		t.Errorf("untaxed = %d, want 5", totals.UntaxedQuantity)
	}
	wantIncome := money.New("3").Mul(money.New("200"))
	wantCost := money.New("3").Mul(money.New("120"))
	if !totals.Income.Equal(wantIncome) {
		t.Errorf("income = %s, want %s", totals.Income, wantIncome)
	}
	if !totals.Cost.Equal(wantCost) {
		t.Errorf("cost = %s, want %s", totals.Cost, wantCost)
	}

	// With time-test disabled, both lots contribute.
	resultDisabled, err := engine.Process("US0000", []*txmodel.Transaction{
		cloneBuy(t, oldBuy), cloneBuy(t, recentBuy), cloneSell(t, sell),
	}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	totalsDisabled, err := Calculate(resultDisabled.Records, fx, Options{TaxYear: taxYear})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if totalsDisabled.UntaxedQuantity != 0 {
		t.Errorf("untaxed (disabled) = %d, want 0", totalsDisabled.UntaxedQuantity)
	}
	wantIncomeAll := money.New("8").Mul(money.New("200"))
	wantCostAll := money.New("5").Mul(money.New("100")).Add(money.New("3").Mul(money.New("120")))
	if !totalsDisabled.Income.Equal(wantIncomeAll) {
		t.Errorf("income (disabled) = %s, want %s", totalsDisabled.Income, wantIncomeAll)
	}
	if !totalsDisabled.Cost.Equal(wantCostAll) {
		t.Errorf("cost (disabled) = %s, want %s", totalsDisabled.Cost, wantCostAll)
	}
}

func cloneBuy(t *testing.T, src *txmodel.Transaction) *txmodel.Transaction {
	t.Helper()
	tx, err := txmodel.New(src.Time, src.ProductID, src.DisplayName, src.Count, src.UnitPrice, src.TradeCurrency, src.Fee, src.FeeCurrency, src.Multiplier)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	return tx
}

func cloneSell(t *testing.T, src *txmodel.Transaction) *txmodel.Transaction {
	return cloneBuy(t, src)
}

// TestShortCoverTimeTestUsesAnchorTimeNotCloseTime guards against using
// record.CloseTime (the latest covering buy seen so far) in place of
// record.Anchor.Time (the short sale itself) for the held-period
// calculation. A sell for 10 shares with only 5 prior long shares on
// hand partially opens a short: 5 shares close against the pre-existing
// long (an ordinary, non-short-cover binding), and 5 shares are covered
// years later. Both bindings share one SaleRecord, so its CloseTime
// ends up years after the long binding's own lot time — if held were
// computed from CloseTime, the long binding would spuriously clear the
// time-test threshold it never held long enough for.
func TestShortCoverTimeTestUsesAnchorTimeNotCloseTime(t *testing.T) {
	longLot := mustTx(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), 5, "100", "USD", "0", "USD")
	shortSell := mustTx(t, time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC), -10, "50", "USD", "0", "USD")
	coverBuy := mustTx(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 5, "80", "USD", "0", "USD")

	result, err := engine.Process("US0000", []*txmodel.Transaction{longLot, shortSell, coverBuy}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Records) != 1 || len(result.Records[0].Bindings) != 2 {
		t.Fatalf("expected one record with two bindings, got %+v", result.Records)
	}

	fx := money.NewTable("USD")
	totals, err := Calculate(result.Records, fx, Options{TaxYear: 2023, TimeTest: true})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if result.Records[0].Bindings[0].TimeTestPassed {
		t.Errorf("the long-matched binding held only 14 days and must not pass the time test, regardless of when the short it shares a record with was eventually covered")
	}
	if result.Records[0].Bindings[1].TimeTestPassed {
		t.Errorf("a short-cover binding must never pass the time test (held is structurally negative against its anchor)")
	}
	if totals.UntaxedQuantity != 0 {
		t.Errorf("untaxed = %d, want 0", totals.UntaxedQuantity)
	}

	wantIncome := money.New("500") // 10 shares at 50
	wantCost := money.New("900")   // 5@100 (long lot) + 5@80 (cover)
	if !totals.Income.Equal(wantIncome) {
		t.Errorf("income = %s, want %s", totals.Income, wantIncome)
	}
	if !totals.Cost.Equal(wantCost) {
		t.Errorf("cost = %s, want %s", totals.Cost, wantCost)
	}
}

// TestCalculateBEPUsesAnchorSaleBEPNotLotBEP pins down transaction.py:235
// (buy_rec.buy_t._share_price = self.sale_t.bep): in BEP mode, a bound
// opening lot's cost basis is the closing sale's own break-even price,
// not the running average the lot itself carried at purchase time. Here
// buy1's own BEP (100) differs from the sell's BEP (150, after buy2
// raised the running average) and the sell must use 150.
func TestCalculateBEPUsesAnchorSaleBEPNotLotBEP(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

	buy1 := mustTx(t, day(0), 10, "100", "USD", "0", "USD")
	buy2 := mustTx(t, day(1), 10, "200", "USD", "0", "USD")
	sell := mustTx(t, day(2), -5, "300", "USD", "0", "USD")

	result, err := engine.Process("US0000", []*txmodel.Transaction{buy1, buy2, sell}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	ComputeBreakEvenPrices([]*txmodel.Transaction{buy1, buy2, sell})

	if bep := buy1.BEP(); bep == nil || !bep.Equal(money.New("100")) {
		t.Fatalf("buy1 BEP = %v, want 100 (precondition: lot's own BEP differs from the sell's)", bep)
	}
	if bep := sell.BEP(); bep == nil || !bep.Equal(money.New("150")) {
		t.Fatalf("sell BEP = %v, want 150 (precondition: lot's own BEP differs from the sell's)", bep)
	}

	fx := money.NewTable("USD")
	totals, err := Calculate(result.Records, fx, Options{TaxYear: 2021, BEP: true})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	wantCost := money.New("5").Mul(money.New("150")) // anchor sell's BEP, not buy1's own (100)
	if !totals.Cost.Equal(wantCost) {
		t.Errorf("cost = %s, want %s (sell's BEP of 150, not the lot's own BEP of 100)", totals.Cost, wantCost)
	}
}

func TestComputeBreakEvenPricesTracksRunningAverage(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

	buy1 := mustTx(t, day(0), 10, "100", "USD", "0", "USD")
	buy2 := mustTx(t, day(1), 10, "200", "USD", "0", "USD")
	sell := mustTx(t, day(2), -5, "500", "USD", "0", "USD")

	ComputeBreakEvenPrices([]*txmodel.Transaction{buy1, buy2, sell})

	if bep := buy1.BEP(); bep == nil || !bep.Equal(money.New("100")) {
		t.Errorf("buy1 BEP = %v, want 100", bep)
	}
	if bep := buy2.BEP(); bep == nil || !bep.Equal(money.New("150")) {
		t.Errorf("buy2 BEP = %v, want 150", bep)
	}
	if bep := sell.BEP(); bep == nil || !bep.Equal(money.New("150")) {
		t.Errorf("sell BEP = %v, want 150 (prevailing average before the sale)", bep)
	}
}
