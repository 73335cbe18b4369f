package finsec

import "github.com/StavoMidnite661/FinSec-Chrome-Extension/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type TransactionRequest = core.TransactionRequest
type PaymentResponse = core.PaymentResponse
type InitiateResult = core.InitiateResult
type StatusEvent = core.StatusEvent
type PendingScaEntry = core.PendingScaEntry
type TransactionState = core.TransactionState
type TabUpdate = core.TabUpdate
type ChannelState = core.ChannelState
type PaymentStatus = core.PaymentStatus

type TokenSource = core.TokenSource
type TokenRevoker = core.TokenRevoker
type TabController = core.TabController
type PaymentSubmitter = core.PaymentSubmitter
type StatusSink = core.StatusSink
type ChannelConnector = core.ChannelConnector
type ScaEntryStore = core.ScaEntryStore
type TransactionStateStore = core.TransactionStateStore
type StoreProvider = core.StoreProvider
type JobEnqueuer = core.JobEnqueuer

var (
	WithLogger                = core.WithLogger
	WithLoggerProvider        = core.WithLoggerProvider
	WithMetricsRecorder       = core.WithMetricsRecorder
	WithErrorFactory          = core.WithErrorFactory
	WithErrorMapper           = core.WithErrorMapper
	WithConfigProvider        = core.WithConfigProvider
	WithOptionsResolver       = core.WithOptionsResolver
	WithTokenSource           = core.WithTokenSource
	WithTokenRevoker          = core.WithTokenRevoker
	WithPaymentSubmitter      = core.WithPaymentSubmitter
	WithTabController         = core.WithTabController
	WithScaEntryStore         = core.WithScaEntryStore
	WithTransactionStateStore = core.WithTransactionStateStore
	WithStatusSink            = core.WithStatusSink
	WithChannelConnector      = core.WithChannelConnector
	WithJobEnqueuer           = core.WithJobEnqueuer
	WithPersistenceClient     = core.WithPersistenceClient
	WithRepositoryFactory     = core.WithRepositoryFactory
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
