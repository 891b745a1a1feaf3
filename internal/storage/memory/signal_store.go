package memory

import (
	"context"
	"sort"
	"sync"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

type signalKey struct {
	instrument string
	variant    domain.Variant
	date       domain.TradeDate
}

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[signalKey]domain.SignalRow
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{data: make(map[signalKey]domain.SignalRow)}
}

// UpsertBulk writes rows, replacing stored rows with the same date.
// Fails entire batch on a date repeated within rows.
func (s *SignalStore) UpsertBulk(_ context.Context, instrument string, variant domain.Variant, rows []domain.SignalRow) error {
	if len(rows) == 0 {
		return nil
	}
	if instrument == "" || !variant.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[signalKey]struct{}, len(rows))
	for _, r := range rows {
		if !r.Sig.IsValid() {
			return storage.ErrInvalidInput
		}
		k := signalKey{instrument, variant, r.Date}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, r := range rows {
		r.FactorRow = copyFactorRow(r.FactorRow)
		s.data[signalKey{instrument, variant, r.Date}] = r
	}
	return nil
}

// GetByVariant retrieves a series ordered by date. Returns ErrNotFound when
// nothing was stored for (instrument, variant).
func (s *SignalStore) GetByVariant(_ context.Context, instrument string, variant domain.Variant) ([]domain.SignalRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SignalRow
	for k, r := range s.data {
		if k.instrument == instrument && k.variant == variant {
			r.FactorRow = copyFactorRow(r.FactorRow)
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

var _ storage.SignalStore = (*SignalStore)(nil)
