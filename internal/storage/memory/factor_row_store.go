package memory

import (
	"context"
	"sort"
	"sync"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

type factorKey struct {
	instrument string
	date       domain.TradeDate
}

// FactorRowStore is an in-memory implementation of storage.FactorRowStore.
type FactorRowStore struct {
	mu   sync.RWMutex
	data map[factorKey]domain.FactorRow
}

// NewFactorRowStore creates a new in-memory factor row store.
func NewFactorRowStore() *FactorRowStore {
	return &FactorRowStore{data: make(map[factorKey]domain.FactorRow)}
}

// UpsertBulk writes rows, replacing stored rows with the same date.
// Fails entire batch on a date repeated within rows.
func (s *FactorRowStore) UpsertBulk(_ context.Context, instrument string, rows []domain.FactorRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[factorKey]struct{}, len(rows))
	for _, r := range rows {
		k := factorKey{instrument, r.Date}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, r := range rows {
		s.data[factorKey{instrument, r.Date}] = copyFactorRow(r)
	}
	return nil
}

// GetByDateRange retrieves rows within [start, end], ordered by date.
func (s *FactorRowStore) GetByDateRange(_ context.Context, instrument string, start, end domain.TradeDate) ([]domain.FactorRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FactorRow
	for k, r := range s.data {
		if k.instrument == instrument && k.date >= start && k.date <= end {
			result = append(result, copyFactorRow(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

// copyFactorRow detaches the Futures pointer so callers cannot mutate stored state.
func copyFactorRow(r domain.FactorRow) domain.FactorRow {
	if r.Futures != nil {
		bar := *r.Futures
		r.Futures = &bar
	}
	return r
}

var _ storage.FactorRowStore = (*FactorRowStore)(nil)
