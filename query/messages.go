package query

import (
	"strings"
)

const (
	TypeGetChannelState     = "payflow.query.channel.state"
	TypeListPendingSca      = "payflow.query.sca.list_pending"
	TypeGetTransactionState = "payflow.query.transaction.state"
)

type GetChannelStateMessage struct{}

func (GetChannelStateMessage) Type() string { return TypeGetChannelState }

func (GetChannelStateMessage) Validate() error { return nil }

type ListPendingScaMessage struct{}

func (ListPendingScaMessage) Type() string { return TypeListPendingSca }

func (ListPendingScaMessage) Validate() error { return nil }

type GetTransactionStateMessage struct {
	TransactionID string
}

func (GetTransactionStateMessage) Type() string { return TypeGetTransactionState }

func (m GetTransactionStateMessage) Validate() error {
	if strings.TrimSpace(m.TransactionID) == "" {
		return queryValidationError("transactionId", "transaction id is required")
	}
	return nil
}
