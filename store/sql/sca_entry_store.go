package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	repository "github.com/goliatone/go-repository-bun"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// ScaEntryStore persists the tab-to-transaction correlation table so that
// entries survive a worker restart and orphaned authentication tabs stay
// reclaimable by the sweeper.
type ScaEntryStore struct {
	db   *bun.DB
	repo repository.Repository[*scaEntryRecord]
	now  func() time.Time
}

func NewScaEntryStore(db *bun.DB) (*ScaEntryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*scaEntryRecord](db, scaEntryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid sca entry repository wiring: %w", err)
		}
	}
	return &ScaEntryStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *ScaEntryStore) Register(ctx context.Context, entry core.PendingScaEntry) error {
	if s == nil || s.db == nil {
		return sqlInternal("sqlstore: sca entry store is not configured")
	}
	entry.TransactionID = strings.TrimSpace(entry.TransactionID)
	if entry.TransactionID == "" {
		return sqlBadInput("sqlstore: transaction id is required")
	}
	if entry.TabID <= 0 {
		return sqlBadInput(fmt.Sprintf("sqlstore: tab id %d is not a valid tab handle", entry.TabID))
	}

	record := newScaEntryRecord(entry, s.now())
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*scaEntryRecord)(nil)).
			Where("?TableAlias.tab_id = ?", entry.TabID).
			Exists(ctx)
		if err != nil {
			return sqlWrap(err, "sqlstore: checking tab correlation failed")
		}
		if exists {
			return sqlConflict(fmt.Sprintf("sqlstore: tab %d already correlates a pending transaction", entry.TabID))
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return sqlConflict(fmt.Sprintf("sqlstore: sca entry already registered for transaction %q", entry.TransactionID))
			}
			return sqlWrap(err, "sqlstore: inserting sca entry failed")
		}
		return nil
	})
}

func (s *ScaEntryStore) ResolveByTab(ctx context.Context, tabID int) (core.PendingScaEntry, bool, error) {
	if s == nil || s.db == nil {
		return core.PendingScaEntry{}, false, sqlInternal("sqlstore: sca entry store is not configured")
	}
	record := &scaEntryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.tab_id = ?", tabID).
		OrderExpr("?TableAlias.created_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.PendingScaEntry{}, false, nil
		}
		return core.PendingScaEntry{}, false, sqlWrap(err, "sqlstore: resolving sca entry by tab failed")
	}
	return record.toDomain(), true, nil
}

func (s *ScaEntryStore) Remove(ctx context.Context, transactionID string) error {
	if s == nil || s.db == nil {
		return sqlInternal("sqlstore: sca entry store is not configured")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*scaEntryRecord)(nil)).
		Where("?TableAlias.transaction_id = ?", transactionID).
		Exec(ctx)
	if err != nil {
		return sqlWrap(err, "sqlstore: removing sca entry failed")
	}
	return nil
}

func (s *ScaEntryStore) List(ctx context.Context) ([]core.PendingScaEntry, error) {
	if s == nil || s.db == nil {
		return nil, sqlInternal("sqlstore: sca entry store is not configured")
	}
	records := []*scaEntryRecord{}
	err := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, sqlWrap(err, "sqlstore: listing sca entries failed")
	}
	entries := make([]core.PendingScaEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toDomain())
	}
	return entries, nil
}
