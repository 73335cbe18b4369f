package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// MemoryScaEntryStore is the in-process correlation table between opened
// authentication tabs and the transactions awaiting out-of-band completion.
// Entries do not survive a process restart; use the SQL-backed store when
// orphaned tabs must be reclaimable after one.
type MemoryScaEntryStore struct {
	mu      sync.Mutex
	entries map[string]PendingScaEntry
	Now     func() time.Time
}

func NewMemoryScaEntryStore() *MemoryScaEntryStore {
	return &MemoryScaEntryStore{
		entries: map[string]PendingScaEntry{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryScaEntryStore) Register(_ context.Context, entry PendingScaEntry) error {
	if s == nil {
		return scaInternal("core: sca entry store is nil")
	}
	transactionID := strings.TrimSpace(entry.TransactionID)
	if transactionID == "" {
		return scaBadInput("core: transaction id is required")
	}
	if entry.TabID <= 0 {
		return scaBadInput(fmt.Sprintf("core: tab id %d is not a valid tab handle", entry.TabID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[transactionID]; exists {
		return scaConflict(fmt.Sprintf("core: sca entry already registered for transaction %q", transactionID))
	}
	for _, existing := range s.entries {
		if existing.TabID == entry.TabID {
			return scaConflict(fmt.Sprintf("core: tab %d already correlates transaction %q", entry.TabID, existing.TransactionID))
		}
	}
	entry.TransactionID = transactionID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.entries[transactionID] = entry
	return nil
}

func (s *MemoryScaEntryStore) ResolveByTab(_ context.Context, tabID int) (PendingScaEntry, bool, error) {
	if s == nil {
		return PendingScaEntry{}, false, scaInternal("core: sca entry store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.TabID == tabID {
			return entry, true, nil
		}
	}
	return PendingScaEntry{}, false, nil
}

func (s *MemoryScaEntryStore) Remove(_ context.Context, transactionID string) error {
	if s == nil {
		return scaInternal("core: sca entry store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, strings.TrimSpace(transactionID))
	return nil
}

func (s *MemoryScaEntryStore) List(_ context.Context) ([]PendingScaEntry, error) {
	if s == nil {
		return nil, scaInternal("core: sca entry store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]PendingScaEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *MemoryScaEntryStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func scaConflict(message string) error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(PaymentErrorScaConflict)
}

func scaBadInput(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(PaymentErrorInvalidTransaction)
}

func scaInternal(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(PaymentErrorInternal)
}

var _ ScaEntryStore = (*MemoryScaEntryStore)(nil)
