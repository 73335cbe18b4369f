package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

type stubScaEntryStore struct {
	mu           sync.Mutex
	entries      map[string]core.PendingScaEntry
	resolveCalls int
	registerErr  error
}

func newStubScaEntryStore() *stubScaEntryStore {
	return &stubScaEntryStore{entries: map[string]core.PendingScaEntry{}}
}

func (s *stubScaEntryStore) Register(_ context.Context, entry core.PendingScaEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registerErr != nil {
		return s.registerErr
	}
	s.entries[entry.TransactionID] = entry
	return nil
}

func (s *stubScaEntryStore) ResolveByTab(_ context.Context, tabID int) (core.PendingScaEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveCalls++
	for _, entry := range s.entries {
		if entry.TabID == tabID {
			return entry, true, nil
		}
	}
	return core.PendingScaEntry{}, false, nil
}

func (s *stubScaEntryStore) Remove(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, transactionID)
	return nil
}

func (s *stubScaEntryStore) List(_ context.Context) ([]core.PendingScaEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]core.PendingScaEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

func newTestScaCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedScaEntryStoreResolveByTabMissFetchThenHit(t *testing.T) {
	base := newStubScaEntryStore()
	base.entries["tx-1"] = core.PendingScaEntry{TransactionID: "tx-1", TabID: 7, RedirectURL: "https://bank.example/sca"}

	store, err := NewCachedScaEntryStore(base, newTestScaCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	entry, found, err := store.ResolveByTab(context.Background(), 7)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !found || entry.TransactionID != "tx-1" {
		t.Fatalf("unexpected entry %+v found=%v", entry, found)
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected first resolve to hit base once, got %d", base.resolveCalls)
	}

	if _, _, err := store.ResolveByTab(context.Background(), 7); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected second resolve to be a cache hit, base calls=%d", base.resolveCalls)
	}
}

func TestCachedScaEntryStoreRegisterInvalidatesTabKey(t *testing.T) {
	base := newStubScaEntryStore()
	store, err := NewCachedScaEntryStore(base, newTestScaCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	// Prime a negative entry for the tab, then register and re-resolve.
	if _, found, err := store.ResolveByTab(context.Background(), 3); err != nil || found {
		t.Fatalf("expected empty resolve, found=%v err=%v", found, err)
	}

	entry := core.PendingScaEntry{TransactionID: "tx-2", TabID: 3, RedirectURL: "https://bank.example/sca"}
	if err := store.Register(context.Background(), entry); err != nil {
		t.Fatalf("register: %v", err)
	}

	resolved, found, err := store.ResolveByTab(context.Background(), 3)
	if err != nil {
		t.Fatalf("resolve after register: %v", err)
	}
	if !found || resolved.TransactionID != "tx-2" {
		t.Fatalf("expected registered entry after invalidation, got %+v found=%v", resolved, found)
	}
}

func TestCachedScaEntryStoreRemoveInvalidatesTabKey(t *testing.T) {
	base := newStubScaEntryStore()
	base.entries["tx-3"] = core.PendingScaEntry{TransactionID: "tx-3", TabID: 9}

	store, err := NewCachedScaEntryStore(base, newTestScaCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if _, found, err := store.ResolveByTab(context.Background(), 9); err != nil || !found {
		t.Fatalf("expected cached entry, found=%v err=%v", found, err)
	}

	if err := store.Remove(context.Background(), "tx-3"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, found, err := store.ResolveByTab(context.Background(), 9); err != nil || found {
		t.Fatalf("expected entry gone after remove, found=%v err=%v", found, err)
	}
}

func TestCachedScaEntryStoreRegisterErrorSkipsInvalidation(t *testing.T) {
	base := newStubScaEntryStore()
	base.registerErr = sqlConflict("sqlstore: duplicate")

	store, err := NewCachedScaEntryStore(base, newTestScaCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	entry := core.PendingScaEntry{TransactionID: "tx-4", TabID: 2}
	if err := store.Register(context.Background(), entry); err == nil {
		t.Fatalf("expected register error to propagate")
	}
}

func TestScaEntryTabCacheKeyIsDeterministic(t *testing.T) {
	key := ScaEntryTabCacheKey(42)
	if key != "finsec::sca_entry::v1::tab::42" {
		t.Fatalf("unexpected cache key %q", key)
	}
}
