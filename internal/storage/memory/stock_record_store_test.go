package memory

import (
	"context"
	"errors"
	"testing"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

func TestStockRecordStore_InsertBulkAndGet(t *testing.T) {
	store := NewStockRecordStore()
	ctx := context.Background()

	records := []domain.StockDailyRecord{
		{Date: 20200102, Code: "B", Close: 2, Amount: 20, OI: 3},
		{Date: 20200102, Code: "A", Close: 11, Amount: 150, OI: 8},
		{Date: 20200101, Code: "A", Close: 10, Amount: 100, OI: 5},
		{Date: 20200103, Code: "A", Close: 12, Amount: 90, OI: 9},
	}

	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByDateRange(ctx, 20200101, 20200102)
	if err != nil {
		t.Fatalf("GetByDateRange failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(result))
	}
	// Ordered by code, then date
	want := []string{"A@20200101", "A@20200102", "B@20200102"}
	for i, r := range result {
		if got := r.Code + "@" + r.Date.String(); got != want[i] {
			t.Errorf("record %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestStockRecordStore_DuplicateKey(t *testing.T) {
	store := NewStockRecordStore()
	ctx := context.Background()

	records := []domain.StockDailyRecord{{Date: 20200101, Code: "A", OI: 1}}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, records)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestStockRecordStore_IntraBatchDuplicate(t *testing.T) {
	store := NewStockRecordStore()
	ctx := context.Background()

	records := []domain.StockDailyRecord{
		{Date: 20200101, Code: "A", OI: 1},
		{Date: 20200101, Code: "A", OI: 2},
	}

	err := store.InsertBulk(ctx, records)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	// Verify nothing was inserted
	result, _ := store.GetByDateRange(ctx, 20200101, 20200101)
	if len(result) != 0 {
		t.Errorf("Expected 0 records (rollback), got %d", len(result))
	}
}

func TestStockRecordStore_InvalidInput(t *testing.T) {
	store := NewStockRecordStore()

	err := store.InsertBulk(context.Background(), []domain.StockDailyRecord{{Date: 20200101}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
