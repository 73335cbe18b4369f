package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

var (
	_ gocmd.Querier[GetChannelStateMessage, core.ChannelState]          = (*GetChannelStateQuery)(nil)
	_ gocmd.Querier[ListPendingScaMessage, []core.PendingScaEntry]      = (*ListPendingScaQuery)(nil)
	_ gocmd.Querier[GetTransactionStateMessage, core.TransactionState]  = (*GetTransactionStateQuery)(nil)
)
