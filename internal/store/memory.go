// Package store provides an in-memory TransactionStore for tests and local
// development. The durable implementation lives in store/sqlite.
package store

import (
	"context"
	"sync"

	"github.com/jcmexdev/upi-payments/internal/payments/entity"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
)

// InMemory is a map-backed TransactionStore keyed on transaction id. It
// stores and returns clones so callers never share mutable state with the
// store.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*entity.Transaction
}

var _ ports.TransactionStore = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*entity.Transaction)}
}

func (s *InMemory) Save(ctx context.Context, tx *entity.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[tx.TransactionID] = tx.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.records[transactionID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return tx.Clone(), nil
}

// Len reports the number of stored records.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
