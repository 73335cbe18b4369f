package core

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryTransactionStateStore keeps the last observed status per transaction
// so late resolutions can be deduplicated against an already-terminal truth.
type MemoryTransactionStateStore struct {
	mu     sync.Mutex
	states map[string]TransactionState
}

func NewMemoryTransactionStateStore() *MemoryTransactionStateStore {
	return &MemoryTransactionStateStore{
		states: map[string]TransactionState{},
	}
}

func (s *MemoryTransactionStateStore) Get(_ context.Context, transactionID string) (TransactionState, bool, error) {
	if s == nil {
		return TransactionState{}, false, scaInternal("core: transaction state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[strings.TrimSpace(transactionID)]
	return state, ok, nil
}

func (s *MemoryTransactionStateStore) Record(_ context.Context, state TransactionState) error {
	if s == nil {
		return scaInternal("core: transaction state store is nil")
	}
	transactionID := strings.TrimSpace(state.TransactionID)
	if transactionID == "" {
		return scaBadInput("core: transaction id is required")
	}
	state.TransactionID = transactionID
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[transactionID] = state
	return nil
}

var _ TransactionStateStore = (*MemoryTransactionStateStore)(nil)
