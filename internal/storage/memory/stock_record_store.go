package memory

import (
	"context"
	"sort"
	"sync"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

type stockKey struct {
	date domain.TradeDate
	code string
}

// StockRecordStore is an in-memory implementation of storage.StockRecordStore.
type StockRecordStore struct {
	mu   sync.RWMutex
	data map[stockKey]domain.StockDailyRecord
}

// NewStockRecordStore creates a new in-memory stock record store.
func NewStockRecordStore() *StockRecordStore {
	return &StockRecordStore{data: make(map[stockKey]domain.StockDailyRecord)}
}

// InsertBulk adds records. Fails entire batch on duplicate.
func (s *StockRecordStore) InsertBulk(_ context.Context, records []domain.StockDailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and check duplicates (existing + intra-batch)
	batch := make(map[stockKey]struct{}, len(records))
	for _, r := range records {
		if r.Code == "" || !r.Date.Valid() {
			return storage.ErrInvalidInput
		}
		k := stockKey{r.Date, r.Code}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		s.data[stockKey{r.Date, r.Code}] = r
	}
	return nil
}

// GetByDateRange retrieves records within [start, end], ordered by code, date.
func (s *StockRecordStore) GetByDateRange(_ context.Context, start, end domain.TradeDate) ([]domain.StockDailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.StockDailyRecord
	for k, r := range s.data {
		if k.date >= start && k.date <= end {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Code != result[j].Code {
			return result[i].Code < result[j].Code
		}
		return result[i].Date < result[j].Date
	})
	return result, nil
}

var _ storage.StockRecordStore = (*StockRecordStore)(nil)
