package engine

import (
	"testing"
	"time"

	"github.com/tugsousa/taxlots/internal/money"
	"github.com/tugsousa/taxlots/internal/txmodel"
)

func mustTx(t *testing.T, days int, count int, price, fee string) *txmodel.Transaction {
	t.Helper()
	when := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	tx, err := txmodel.New(when, "US0000", "Widget Inc", count, money.New(price), "USD", money.New(fee), "EUR", 1)
	if err != nil {
		t.Fatalf("txmodel.New: %v", err)
	}
	return tx
}

func fifoOnly() txmodel.StrategyMap {
	return txmodel.StrategyMap{2000: txmodel.FIFO, 2030: txmodel.FIFO}
}

// TestSellInTwoPartsClaimsFeeOnce is spec.md §8 scenario S1: a sell split
// into two parts binds the single buy's fee to the first part only.
func TestSellInTwoPartsClaimsFeeOnce(t *testing.T) {
	buy := mustTx(t, 1, 10, "100", "0.50")
	sell1 := mustTx(t, 10, -2, "150", "0")
	sell2 := mustTx(t, 20, -8, "150", "0")

	result, err := Process("US0000", []*txmodel.Transaction{buy, sell1, sell2}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	first, second := result.Records[0], result.Records[1]
	if !first.FullyMatched() || first.MatchedQuantity() != 2 {
		t.Errorf("first record matched = %d, want 2", first.MatchedQuantity())
	}
	if !second.FullyMatched() || second.MatchedQuantity() != 8 {
		t.Errorf("second record matched = %d, want 8", second.MatchedQuantity())
	}
	if !first.Bindings[0].FeeClaimedHere {
		t.Error("first record's binding should claim the buy's fee")
	}
	if second.Bindings[0].FeeClaimedHere {
		t.Error("second record's binding must not re-claim the fee")
	}
}

// TestSingleShort is spec.md §8 scenario S3.
func TestSingleShort(t *testing.T) {
	sell := mustTx(t, 1, -100, "100", "0")
	buy := mustTx(t, 4, 100, "150", "0")

	result, err := Process("US0000", []*txmodel.Transaction{sell, buy}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}

	record := result.Records[0]
	if record.Anchor != sell {
		t.Error("anchor should be the short sale")
	}
	if !record.FullyMatched() {
		t.Error("expected a fully matched short")
	}
	if len(record.Bindings) != 1 || record.Bindings[0].Lot != buy || record.Bindings[0].Quantity != 100 {
		t.Errorf("expected a single binding of 100 against the cover buy, got %+v", record.Bindings)
	}
	if !record.Bindings[0].IsShortCover {
		t.Error("binding should be flagged as a short cover")
	}
	if !record.CloseTime.Equal(buy.Time) {
		t.Errorf("close time = %v, want %v (the cover buy's time)", record.CloseTime, buy.Time)
	}
}

// TestDeepenThenTwoStepCover is spec.md §8 scenario S4.
func TestDeepenThenTwoStepCover(t *testing.T) {
	sell1 := mustTx(t, 0, -50, "100", "0")
	sell2 := mustTx(t, 1, -70, "120", "0")
	buy1 := mustTx(t, 2, 60, "90", "0")
	buy2 := mustTx(t, 3, 60, "80", "0")

	result, err := Process("US0000", []*txmodel.Transaction{sell1, sell2, buy1, buy2}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	first, second := result.Records[0], result.Records[1]
	if first.Anchor != sell1 || second.Anchor != sell2 {
		t.Fatal("records should be anchored at sell1 then sell2, in anchor-chronological order")
	}

	if len(first.Bindings) != 1 || first.Bindings[0].Lot != buy1 || first.Bindings[0].Quantity != 50 {
		t.Errorf("first record bindings = %+v, want single binding of 50 against buy1", first.Bindings)
	}

	if len(second.Bindings) != 2 {
		t.Fatalf("second record bindings = %d, want 2", len(second.Bindings))
	}
	if second.Bindings[0].Lot != buy1 || second.Bindings[0].Quantity != 10 {
		t.Errorf("second record's first binding = %+v, want 10 against buy1", second.Bindings[0])
	}
	if second.Bindings[1].Lot != buy2 || second.Bindings[1].Quantity != 60 {
		t.Errorf("second record's second binding = %+v, want 60 against buy2", second.Bindings[1])
	}
}

// TestPartialMatchOpensShortAndAudits covers spec.md §9's partial-match
// fallback and its required audit trail.
func TestPartialMatchOpensShortAndAudits(t *testing.T) {
	buy := mustTx(t, 0, 3, "100", "0")
	sell := mustTx(t, 1, -5, "150", "0")

	result, err := Process("US0000", []*txmodel.Transaction{buy, sell}, fifoOnly())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	if result.Records[0].FullyMatched() {
		t.Error("expected a partial match")
	}
	if result.Records[0].MatchedQuantity() != 3 {
		t.Errorf("matched = %d, want 3", result.Records[0].MatchedQuantity())
	}

	foundPartial := false
	foundUncovered := false
	for _, a := range result.Audit {
		if a.Kind == AuditPartialMatch {
			foundPartial = true
		}
		if a.Kind == AuditUncoveredShort {
			foundUncovered = true
		}
	}
	if !foundPartial {
		t.Error("expected a partial-match audit event")
	}
	if !foundUncovered {
		t.Error("expected an uncovered-short audit event at end of run")
	}
}

// TestNoOverConsumption is spec.md §8 invariant 2: bindings against a lot
// never exceed its original count.
func TestNoOverConsumption(t *testing.T) {
	buy := mustTx(t, 0, 10, "100", "0")
	sell1 := mustTx(t, 1, -4, "150", "0")
	sell2 := mustTx(t, 2, -6, "150", "0")

	if _, err := Process("US0000", []*txmodel.Transaction{buy, sell1, sell2}, fifoOnly()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if buy.RemainingCount() != 0 {
		t.Errorf("remaining = %d, want 0", buy.RemainingCount())
	}
}

func TestNoStrategyForYearBeyondConfig(t *testing.T) {
	sell := mustTx(t, 0, -1, "100", "0")
	strategies := txmodel.StrategyMap{2000: txmodel.FIFO}
	if _, err := Process("US0000", []*txmodel.Transaction{sell}, strategies); err == nil {
		t.Fatal("expected a NoStrategy error for a year beyond the configured range")
	}
}
