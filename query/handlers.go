package query

import (
	"context"
	"strings"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// ChannelStateReader exposes the push-channel singleton state.
type ChannelStateReader interface {
	ChannelState(ctx context.Context) (core.ChannelState, error)
}

// ScaReader lists the live correlation entries.
type ScaReader interface {
	ListPendingSca(ctx context.Context) ([]core.PendingScaEntry, error)
}

// TransactionStateReader loads the ledger row for one transaction.
type TransactionStateReader interface {
	GetTransactionState(ctx context.Context, transactionID string) (core.TransactionState, bool, error)
}

type GetChannelStateQuery struct {
	reader ChannelStateReader
}

func NewGetChannelStateQuery(reader ChannelStateReader) *GetChannelStateQuery {
	return &GetChannelStateQuery{reader: reader}
}

func (q *GetChannelStateQuery) Query(ctx context.Context, _ GetChannelStateMessage) (core.ChannelState, error) {
	if q == nil || q.reader == nil {
		return core.ChannelState{}, queryDependencyError("query: channel state reader is required")
	}
	return q.reader.ChannelState(ctx)
}

type ListPendingScaQuery struct {
	reader ScaReader
}

func NewListPendingScaQuery(reader ScaReader) *ListPendingScaQuery {
	return &ListPendingScaQuery{reader: reader}
}

func (q *ListPendingScaQuery) Query(ctx context.Context, _ ListPendingScaMessage) ([]core.PendingScaEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: sca reader is required")
	}
	return q.reader.ListPendingSca(ctx)
}

type GetTransactionStateQuery struct {
	reader TransactionStateReader
}

func NewGetTransactionStateQuery(reader TransactionStateReader) *GetTransactionStateQuery {
	return &GetTransactionStateQuery{reader: reader}
}

func (q *GetTransactionStateQuery) Query(ctx context.Context, msg GetTransactionStateMessage) (core.TransactionState, error) {
	if q == nil || q.reader == nil {
		return core.TransactionState{}, queryDependencyError("query: transaction state reader is required")
	}
	state, known, err := q.reader.GetTransactionState(ctx, strings.TrimSpace(msg.TransactionID))
	if err != nil {
		return core.TransactionState{}, err
	}
	if !known {
		return core.TransactionState{}, queryNotFoundError("query: transaction state not found")
	}
	return state, nil
}
