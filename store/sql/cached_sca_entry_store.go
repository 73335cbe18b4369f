package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

const scaEntryCacheKeyPrefix = "finsec::sca_entry::v1"

// CachedScaEntryStore layers a read-through cache over the SQL correlation
// table. Tab-update observers resolve entries on every navigation event of an
// open authentication tab, so tab lookups dominate reads by a wide margin.
type CachedScaEntryStore struct {
	base  core.ScaEntryStore
	cache repositorycache.CacheService
}

func NewCachedScaEntryStore(
	base core.ScaEntryStore,
	cacheService repositorycache.CacheService,
) (*CachedScaEntryStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base sca entry store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: sca entry cache service is required")
	}
	return &CachedScaEntryStore{base: base, cache: cacheService}, nil
}

// ScaEntryTabCacheKey returns the deterministic cache key contract for
// tab-scoped entry reads: finsec::sca_entry::v1::tab::<tab_id>.
func ScaEntryTabCacheKey(tabID int) string {
	return strings.Join([]string{
		scaEntryCacheKeyPrefix,
		"tab",
		url.PathEscape(strconv.Itoa(tabID)),
	}, "::")
}

type cachedTabLookup struct {
	Entry core.PendingScaEntry
	Found bool
}

func (s *CachedScaEntryStore) Register(ctx context.Context, entry core.PendingScaEntry) error {
	if s == nil || s.base == nil || s.cache == nil {
		return sqlInternal("sqlstore: cached sca entry store is not configured")
	}
	if err := s.base.Register(ctx, entry); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, ScaEntryTabCacheKey(entry.TabID)); err != nil {
		return sqlWrap(err, "sqlstore: invalidating sca entry cache failed")
	}
	return nil
}

func (s *CachedScaEntryStore) ResolveByTab(ctx context.Context, tabID int) (core.PendingScaEntry, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.PendingScaEntry{}, false, sqlInternal("sqlstore: cached sca entry store is not configured")
	}
	lookup, err := repositorycache.GetOrFetch(ctx, s.cache, ScaEntryTabCacheKey(tabID), func(ctx context.Context) (cachedTabLookup, error) {
		entry, found, fetchErr := s.base.ResolveByTab(ctx, tabID)
		if fetchErr != nil {
			return cachedTabLookup{}, fetchErr
		}
		return cachedTabLookup{Entry: entry, Found: found}, nil
	})
	if err != nil {
		return core.PendingScaEntry{}, false, err
	}
	return lookup.Entry, lookup.Found, nil
}

func (s *CachedScaEntryStore) Remove(ctx context.Context, transactionID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return sqlInternal("sqlstore: cached sca entry store is not configured")
	}
	entry, found, err := s.lookupByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if err := s.base.Remove(ctx, transactionID); err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := s.cache.Delete(ctx, ScaEntryTabCacheKey(entry.TabID)); err != nil {
		return sqlWrap(err, "sqlstore: invalidating sca entry cache failed")
	}
	return nil
}

func (s *CachedScaEntryStore) List(ctx context.Context) ([]core.PendingScaEntry, error) {
	if s == nil || s.base == nil {
		return nil, sqlInternal("sqlstore: cached sca entry store is not configured")
	}
	return s.base.List(ctx)
}

func (s *CachedScaEntryStore) lookupByTransaction(ctx context.Context, transactionID string) (core.PendingScaEntry, bool, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return core.PendingScaEntry{}, false, nil
	}
	entries, err := s.base.List(ctx)
	if err != nil {
		return core.PendingScaEntry{}, false, err
	}
	for _, entry := range entries {
		if entry.TransactionID == transactionID {
			return entry, true, nil
		}
	}
	return core.PendingScaEntry{}, false, nil
}
