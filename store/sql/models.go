package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

type scaEntryRecord struct {
	bun.BaseModel `bun:"table:finsec_sca_entries,alias:fse"`

	ID            string    `bun:"id,pk"`
	TransactionID string    `bun:"transaction_id,notnull,unique"`
	TabID         int       `bun:"tab_id,notnull"`
	RedirectURL   string    `bun:"redirect_url,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *scaEntryRecord) toDomain() core.PendingScaEntry {
	if r == nil {
		return core.PendingScaEntry{}
	}
	return core.PendingScaEntry{
		TransactionID: r.TransactionID,
		TabID:         r.TabID,
		RedirectURL:   r.RedirectURL,
		CreatedAt:     r.CreatedAt,
	}
}

func newScaEntryRecord(entry core.PendingScaEntry, now time.Time) *scaEntryRecord {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &scaEntryRecord{
		ID:            newRecordID(),
		TransactionID: entry.TransactionID,
		TabID:         entry.TabID,
		RedirectURL:   entry.RedirectURL,
		CreatedAt:     createdAt.UTC(),
	}
}

type transactionStateRecord struct {
	bun.BaseModel `bun:"table:finsec_transaction_states,alias:fts"`

	ID            string    `bun:"id,pk"`
	TransactionID string    `bun:"transaction_id,notnull,unique"`
	Status        string    `bun:"status,notnull"`
	Terminal      bool      `bun:"terminal,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *transactionStateRecord) toDomain() core.TransactionState {
	if r == nil {
		return core.TransactionState{}
	}
	return core.TransactionState{
		TransactionID: r.TransactionID,
		Status:        core.NormalizeStatus(r.Status),
		Terminal:      r.Terminal,
		UpdatedAt:     r.UpdatedAt,
	}
}

func newTransactionStateRecord(state core.TransactionState, now time.Time) *transactionStateRecord {
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return &transactionStateRecord{
		ID:            newRecordID(),
		TransactionID: state.TransactionID,
		Status:        string(state.Status),
		Terminal:      state.Terminal,
		UpdatedAt:     updatedAt.UTC(),
	}
}
