package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// TokenSource obtains an opaque bearer credential from the identity
// collaborator. interactive=true may prompt the user and must only be used in
// direct response to an explicit user action.
type TokenSource interface {
	Acquire(ctx context.Context, interactive bool) (string, error)
}

// TokenRevoker clears a cached credential on logout.
type TokenRevoker interface {
	RemoveCached(ctx context.Context, credential string) error
}

// TabController abstracts the host browser's tab surface.
type TabController interface {
	Open(ctx context.Context, url string) (int, error)
	Close(ctx context.Context, tabID int) error
}

// PaymentSubmitter submits a validated transaction to the backend's
// payment-submission endpoint using the supplied bearer credential.
type PaymentSubmitter interface {
	SubmitPayment(ctx context.Context, credential string, req TransactionRequest) (PaymentResponse, error)
}

// StatusSink receives a single status delivery for a transaction. The
// notification fan-out implements this; the orchestrator never cares whether
// the event landed on a popup or a durable system notification.
type StatusSink interface {
	Deliver(ctx context.Context, transactionID string, event StatusEvent) error
}

// ChannelConnector is the push-channel lifecycle seam consumed by login,
// logout, and the runtime hooks.
type ChannelConnector interface {
	Connect(ctx context.Context, credential string) error
	Disconnect() error
	State() ChannelState
}

// ScaEntryStore owns the correlation entries between authentication tabs and
// pending transactions. Register fails on a duplicate transaction id and on a
// tab id already held by a live entry.
type ScaEntryStore interface {
	Register(ctx context.Context, entry PendingScaEntry) error
	ResolveByTab(ctx context.Context, tabID int) (PendingScaEntry, bool, error)
	Remove(ctx context.Context, transactionID string) error
	List(ctx context.Context) ([]PendingScaEntry, error)
}

// TransactionStateStore backs the terminal-status ledger. Record overwrites
// the previous row for the transaction id.
type TransactionStateStore interface {
	Get(ctx context.Context, transactionID string) (TransactionState, bool, error)
	Record(ctx context.Context, state TransactionState) error
}

type StoreProvider interface {
	ScaEntryStore() ScaEntryStore
	TransactionStateStore() TransactionStateStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}
