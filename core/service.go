package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const scaPromptMessage = "Please complete authentication in the new tab."

// Service sequences a detected checkout into a completed payment: silent
// credential acquisition, structural validation, backend submission, the SCA
// redirect detour, and fan-out of the outcome. It owns the correlation table
// and the terminal-status ledger; the push channel and notification surfaces
// are collaborators behind contracts.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	tokenSource     TokenSource
	tokenRevoker    TokenRevoker
	submitter       PaymentSubmitter
	tabs            TabController
	scaStore        ScaEntryStore
	stateStore      TransactionStateStore
	statusSink      StatusSink
	channel         ChannelConnector
	jobEnqueuer     JobEnqueuer
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("payflow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("payflow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.scaStore == nil || builder.stateStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.scaStore == nil {
					builder.scaStore = storeProvider.ScaEntryStore()
				}
				if builder.stateStore == nil {
					builder.stateStore = storeProvider.TransactionStateStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.scaStore == nil {
				builder.scaStore = storeProvider.ScaEntryStore()
			}
			if builder.stateStore == nil {
				builder.stateStore = storeProvider.TransactionStateStore()
			}
		}
	}
	if builder.scaStore == nil {
		builder.scaStore = NewMemoryScaEntryStore()
	}
	if builder.stateStore == nil {
		builder.stateStore = NewMemoryTransactionStateStore()
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		tokenSource:     builder.tokenSource,
		tokenRevoker:    builder.tokenRevoker,
		submitter:       builder.submitter,
		tabs:            builder.tabs,
		scaStore:        builder.scaStore,
		stateStore:      builder.stateStore,
		statusSink:      builder.statusSink,
		channel:         builder.channel,
		jobEnqueuer:     builder.jobEnqueuer,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

// InitiatePayment drives a single transaction from checkout payload to either
// a terminal outcome or a pending SCA redirect. The caller must have logged
// in previously: credential acquisition is strictly non-interactive here.
func (s *Service) InitiatePayment(ctx context.Context, req TransactionRequest) (result InitiateResult, err error) {
	if s == nil {
		return InitiateResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"merchant": strings.TrimSpace(req.MerchantName),
		"currency": strings.TrimSpace(req.Currency),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "payment_initiate", err, fields)
	}()

	credential, err := s.acquireCredential(ctx, false)
	if err != nil {
		return InitiateResult{}, err
	}

	if validateErr := ValidateTransaction(req); validateErr != nil {
		err = s.mapError(validateErr)
		return InitiateResult{}, err
	}

	if s.submitter == nil {
		err = s.mapError(paymentInternal("core: payment submitter is not configured"))
		return InitiateResult{}, err
	}
	response, submitErr := s.submitter.SubmitPayment(ctx, credential, req)
	if submitErr != nil {
		err = s.mapError(submitErr)
		return InitiateResult{}, err
	}

	if response.RequiresSCA && strings.TrimSpace(response.RedirectURL) != "" {
		result, err = s.beginScaRedirect(ctx, response)
		if err == nil {
			fields["transaction_id"] = result.TransactionID
			fields["payment_status"] = string(result.Status)
		}
		return result, err
	}

	status := response.Status
	if strings.TrimSpace(string(status)) == "" {
		status = StatusSuccess
	}
	message := strings.TrimSpace(response.Message)
	if message == "" {
		message = "Payment initiated successfully."
	}
	transactionID := strings.TrimSpace(response.TransactionID)
	fields["transaction_id"] = transactionID
	fields["payment_status"] = string(status)

	if transactionID != "" && status.IsTerminal() {
		if recordErr := s.stateStore.Record(ctx, TransactionState{
			TransactionID: transactionID,
			Status:        NormalizeStatus(string(status)),
			Terminal:      true,
		}); recordErr != nil {
			s.logError(ctx, "recording terminal transaction state failed", map[string]any{
				"transaction_id": transactionID,
				"error":          recordErr.Error(),
			})
		}
	}

	// The initiating surface may be gone by the time the popup re-opens, so
	// the same outcome is also pushed through the fan-out exactly once.
	s.deliverStatus(ctx, transactionID, StatusEvent{
		TransactionID: transactionID,
		Status:        status,
		Message:       message,
		Data:          response.Raw,
	})

	return InitiateResult{
		Status:        status,
		TransactionID: transactionID,
		Message:       message,
		Data:          response.Raw,
	}, nil
}

func (s *Service) beginScaRedirect(ctx context.Context, response PaymentResponse) (InitiateResult, error) {
	transactionID := strings.TrimSpace(response.TransactionID)
	if transactionID == "" {
		return InitiateResult{}, s.mapError(
			goerrors.New(
				"core: backend signaled sca without a transaction id",
				goerrors.CategoryOperation,
			).
				WithCode(http.StatusBadGateway).
				WithTextCode(PaymentErrorProtocol),
		)
	}
	if s.tabs == nil {
		return InitiateResult{}, s.mapError(paymentInternal("core: tab controller is not configured"))
	}

	tabID, openErr := s.tabs.Open(ctx, strings.TrimSpace(response.RedirectURL))
	if openErr != nil {
		return InitiateResult{}, s.mapError(
			goerrors.Wrap(openErr, goerrors.CategoryOperation, "core: open sca redirect tab").
				WithTextCode(PaymentErrorProtocol),
		)
	}
	if registerErr := s.scaStore.Register(ctx, PendingScaEntry{
		TransactionID: transactionID,
		TabID:         tabID,
		RedirectURL:   strings.TrimSpace(response.RedirectURL),
	}); registerErr != nil {
		// An unregisterable tab would be unrecoverable; reclaim it before failing.
		_ = s.tabs.Close(ctx, tabID)
		return InitiateResult{}, s.mapError(registerErr)
	}

	return InitiateResult{
		Status:        StatusPendingSCA,
		TransactionID: transactionID,
		Message:       scaPromptMessage,
	}, nil
}

// ResolveStatus is the single entry point for late resolutions arriving via
// the push channel or any future polling surface. Once a transaction has
// reached a terminal status, later events for it are logged and dropped.
func (s *Service) ResolveStatus(ctx context.Context, transactionID string, event StatusEvent) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return s.mapError(scaBadInput("core: transaction id is required"))
	}
	event.TransactionID = transactionID
	event.Status = NormalizeStatus(string(event.Status))

	state, known, getErr := s.stateStore.Get(ctx, transactionID)
	if getErr != nil {
		return s.mapError(getErr)
	}
	if known && state.Terminal {
		s.logInfo(ctx, "dropping status update for terminal transaction", map[string]any{
			"transaction_id": transactionID,
			"stored_status":  string(state.Status),
			"event_status":   string(event.Status),
		})
		s.releaseScaEntry(ctx, transactionID)
		return nil
	}

	if strings.TrimSpace(string(event.Status)) != "" {
		if recordErr := s.stateStore.Record(ctx, TransactionState{
			TransactionID: transactionID,
			Status:        event.Status,
			Terminal:      event.Status.IsTerminal(),
		}); recordErr != nil {
			return s.mapError(recordErr)
		}
	}
	if event.Status.IsTerminal() {
		s.releaseScaEntry(ctx, transactionID)
	}

	s.deliverStatus(ctx, transactionID, event)
	return nil
}

// releaseScaEntry closes the correlated authentication tab, if one is still
// open, and drops the correlation entry. Best effort on both counts.
func (s *Service) releaseScaEntry(ctx context.Context, transactionID string) {
	entries, listErr := s.scaStore.List(ctx)
	if listErr != nil {
		s.logError(ctx, "listing sca entries failed", map[string]any{
			"transaction_id": transactionID,
			"error":          listErr.Error(),
		})
		return
	}
	for _, entry := range entries {
		if entry.TransactionID != transactionID {
			continue
		}
		if s.tabs != nil {
			_ = s.tabs.Close(ctx, entry.TabID)
		}
		break
	}
	if removeErr := s.scaStore.Remove(ctx, transactionID); removeErr != nil {
		s.logError(ctx, "removing sca entry failed", map[string]any{
			"transaction_id": transactionID,
			"error":          removeErr.Error(),
		})
	}
}

// Login acquires a credential interactively and brings up the push channel.
// A channel failure is logged, not surfaced: the payment flow works without
// push delivery, it just degrades to durable notifications arriving later.
func (s *Service) Login(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	credential, err := s.acquireCredential(ctx, true)
	s.observeOperation(ctx, startedAt, "login", err, map[string]any{})
	if err != nil {
		return "", err
	}
	if s.channel != nil {
		if connectErr := s.channel.Connect(ctx, credential); connectErr != nil {
			s.logError(ctx, "push channel connect failed after login", map[string]any{
				"error": connectErr.Error(),
			})
		}
	}
	return credential, nil
}

// ResumeChannel brings the push channel up using a silently acquired
// credential. Nothing happens when no credential is cached, so it is safe to
// call on every worker start.
func (s *Service) ResumeChannel(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if s.channel == nil || s.tokenSource == nil {
		return nil
	}
	credential, err := s.tokenSource.Acquire(ctx, false)
	if err != nil || strings.TrimSpace(credential) == "" {
		return nil
	}
	if connectErr := s.channel.Connect(ctx, credential); connectErr != nil {
		return s.mapError(connectErr)
	}
	return nil
}

// Logout revokes the cached credential and tears the push channel down. The
// channel is disconnected even when revocation fails.
func (s *Service) Logout(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if s.channel != nil {
		defer func() {
			_ = s.channel.Disconnect()
		}()
	}

	if s.tokenSource == nil || s.tokenRevoker == nil {
		return nil
	}
	credential, acquireErr := s.tokenSource.Acquire(ctx, false)
	if acquireErr != nil || strings.TrimSpace(credential) == "" {
		// Nothing cached; logout is a no-op beyond the channel teardown.
		return nil
	}
	if revokeErr := s.tokenRevoker.RemoveCached(ctx, credential); revokeErr != nil {
		return s.mapError(revokeErr)
	}
	s.logInfo(ctx, "credential cache cleared on logout", map[string]any{})
	return nil
}

// ChannelState exposes the push channel singleton state to the query surface.
func (s *Service) ChannelState(context.Context) (ChannelState, error) {
	if s == nil {
		return ChannelState{}, fmt.Errorf("core: service is nil")
	}
	if s.channel == nil {
		return ChannelState{State: ChannelDisconnected}, nil
	}
	return s.channel.State(), nil
}

func (s *Service) ListPendingSca(ctx context.Context) ([]PendingScaEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("core: service is nil")
	}
	entries, err := s.scaStore.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return entries, nil
}

func (s *Service) GetTransactionState(ctx context.Context, transactionID string) (TransactionState, bool, error) {
	if s == nil {
		return TransactionState{}, false, fmt.Errorf("core: service is nil")
	}
	state, known, err := s.stateStore.Get(ctx, strings.TrimSpace(transactionID))
	if err != nil {
		return TransactionState{}, false, s.mapError(err)
	}
	return state, known, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) acquireCredential(ctx context.Context, interactive bool) (string, error) {
	if s.tokenSource == nil {
		return "", s.mapError(paymentInternal("core: token source is not configured"))
	}
	credential, err := s.tokenSource.Acquire(ctx, interactive)
	if err != nil {
		return "", s.mapError(
			goerrors.Wrap(err, goerrors.CategoryAuth, "core: credential acquisition failed").
				WithCode(http.StatusUnauthorized).
				WithTextCode(PaymentErrorAuthFailed),
		)
	}
	if strings.TrimSpace(credential) == "" {
		return "", s.mapError(
			goerrors.New("core: no cached credential; login required", goerrors.CategoryAuth).
				WithCode(http.StatusUnauthorized).
				WithTextCode(PaymentErrorAuthFailed),
		)
	}
	return credential, nil
}

func (s *Service) deliverStatus(ctx context.Context, transactionID string, event StatusEvent) {
	if s.statusSink == nil {
		s.logInfo(ctx, "no status sink configured; dropping status event", map[string]any{
			"transaction_id": transactionID,
			"status":         string(event.Status),
		})
		return
	}
	if deliverErr := s.statusSink.Deliver(ctx, transactionID, event); deliverErr != nil {
		s.logError(ctx, "status delivery failed", map[string]any{
			"transaction_id": transactionID,
			"status":         string(event.Status),
			"error":          deliverErr.Error(),
		})
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func paymentInternal(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(PaymentErrorInternal)
}
