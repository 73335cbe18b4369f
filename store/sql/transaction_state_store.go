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

// TransactionStateStore is the durable terminal-status ledger. A terminal row
// is immutable: later writes for the same transaction are dropped so replayed
// push frames cannot resurrect a settled payment.
type TransactionStateStore struct {
	db   *bun.DB
	repo repository.Repository[*transactionStateRecord]
	now  func() time.Time
}

func NewTransactionStateStore(db *bun.DB) (*TransactionStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*transactionStateRecord](db, transactionStateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid transaction state repository wiring: %w", err)
		}
	}
	return &TransactionStateStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *TransactionStateStore) Get(ctx context.Context, transactionID string) (core.TransactionState, bool, error) {
	if s == nil || s.db == nil {
		return core.TransactionState{}, false, sqlInternal("sqlstore: transaction state store is not configured")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return core.TransactionState{}, false, sqlBadInput("sqlstore: transaction id is required")
	}
	record := &transactionStateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.transaction_id = ?", transactionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.TransactionState{}, false, nil
		}
		return core.TransactionState{}, false, sqlWrap(err, "sqlstore: loading transaction state failed")
	}
	return record.toDomain(), true, nil
}

func (s *TransactionStateStore) Record(ctx context.Context, state core.TransactionState) error {
	if s == nil || s.db == nil {
		return sqlInternal("sqlstore: transaction state store is not configured")
	}
	state.TransactionID = strings.TrimSpace(state.TransactionID)
	if state.TransactionID == "" {
		return sqlBadInput("sqlstore: transaction id is required")
	}
	state.Status = core.NormalizeStatus(string(state.Status))
	record := newTransactionStateRecord(state, s.now())

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &transactionStateRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.transaction_id = ?", state.TransactionID).
			Limit(1).
			Scan(ctx)
		if err != nil && err != sql.ErrNoRows {
			return sqlWrap(err, "sqlstore: loading transaction state failed")
		}
		if err == nil {
			if existing.Terminal {
				return nil
			}
			_, err := tx.NewUpdate().
				Model((*transactionStateRecord)(nil)).
				Set("status = ?", record.Status).
				Set("terminal = ?", record.Terminal).
				Set("updated_at = ?", record.UpdatedAt).
				Where("?TableAlias.transaction_id = ?", state.TransactionID).
				Exec(ctx)
			if err != nil {
				return sqlWrap(err, "sqlstore: updating transaction state failed")
			}
			return nil
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				// A concurrent writer won the insert; its row stands.
				return nil
			}
			return sqlWrap(err, "sqlstore: inserting transaction state failed")
		}
		return nil
	})
}
