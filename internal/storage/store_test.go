package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tugsousa/taxlots/internal/aggregate"
	"github.com/tugsousa/taxlots/internal/money"
)

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := store.ListRuns(2021); err != nil {
		t.Fatalf("ListRuns on a freshly migrated schema: %v", err)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	rows := []aggregate.Row{
		{
			ProductID:   "US0000",
			DisplayName: "Widget Inc",
			Status:      aggregate.StatusOK,
			Income:      money.New("100.00"),
			Cost:        money.New("50.00"),
			Fees:        money.New("1.00"),
			Profit:      money.New("50.00"),
		},
	}
	if err := store.RecordRows(2021, rows); err != nil {
		t.Fatalf("RecordRows: %v", err)
	}

	got, err := store.ListRuns(2021)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("runs = %d, want 1", len(got))
	}
	if got[0].ProductID != "US0000" || got[0].Status != "OK" {
		t.Errorf("unexpected row: %+v", got[0])
	}
}

func TestRecordAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.RecordAudit("US0000", "partial_match", "sell matched only 3 of 5", time.Now().UTC()); err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}
}
