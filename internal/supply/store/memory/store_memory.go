// Package memory provides the in-memory supply store. One mutex serializes
// every Update, so each validate-then-commit unit runs in isolation.
package memory

import (
	"context"
	"sync"

	"mintledger/internal/supply/models"
	id "mintledger/pkg/domain"
)

type InMemorySupplyStore struct {
	mu      sync.RWMutex
	records map[id.TokenID]*models.SupplyRecord
}

func New() *InMemorySupplyStore {
	return &InMemorySupplyStore{
		records: make(map[id.TokenID]*models.SupplyRecord),
	}
}

func (s *InMemorySupplyStore) Get(_ context.Context, tokenID id.TokenID) (*models.SupplyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneOrZero(tokenID), nil
}

func (s *InMemorySupplyStore) GetBatch(_ context.Context, tokenIDs []id.TokenID) ([]*models.SupplyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SupplyRecord, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		out[i] = s.cloneOrZero(tokenID)
	}
	return out, nil
}

// Update hands fn deep copies of the touched records and swaps them in only
// when fn succeeds, so a failed batch leaves no trace.
func (s *InMemorySupplyStore) Update(_ context.Context, tokenIDs []id.TokenID, fn func(recs map[id.TokenID]*models.SupplyRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[id.TokenID]*models.SupplyRecord, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if _, seen := staged[tokenID]; seen {
			continue
		}
		staged[tokenID] = s.cloneOrZero(tokenID)
	}

	if err := fn(staged); err != nil {
		return err
	}

	for tokenID, rec := range staged {
		s.records[tokenID] = rec
	}
	return nil
}

// cloneOrZero must be called with the lock held.
func (s *InMemorySupplyStore) cloneOrZero(tokenID id.TokenID) *models.SupplyRecord {
	if rec, exists := s.records[tokenID]; exists {
		return rec.Clone()
	}
	return models.NewSupplyRecord(tokenID)
}
