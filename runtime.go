package finsec

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/adapters/gologger"
	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
	"github.com/StavoMidnite661/FinSec-Chrome-Extension/inbound"
)

// BackgroundRuntime ties the orchestrator to the host surfaces a background
// worker exposes: the inbound message port, tab navigation events, and the
// startup hook.
type BackgroundRuntime struct {
	service *core.Service
	router  *inbound.Router
	logger  glog.Logger

	sweepOlderThan time.Duration
}

type RuntimeOption func(*BackgroundRuntime)

// WithSweepOlderThan overrides the age threshold the startup orphan sweep
// enqueues. Zero keeps the configured entry TTL.
func WithSweepOlderThan(olderThan time.Duration) RuntimeOption {
	return func(r *BackgroundRuntime) {
		r.sweepOlderThan = olderThan
	}
}

func WithRuntimeLogger(logger glog.Logger) RuntimeOption {
	return func(r *BackgroundRuntime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRuntimeLoggerProvider resolves the runtime logger from a provider, so
// hosts with a shared logging stack hand it down in one call.
func WithRuntimeLoggerProvider(provider glog.LoggerProvider) RuntimeOption {
	return func(r *BackgroundRuntime) {
		if provider == nil {
			return
		}
		r.logger = gologger.NewStack("payflow.runtime", provider, r.logger).Logger
	}
}

func NewBackgroundRuntime(service *core.Service, opts ...RuntimeOption) (*BackgroundRuntime, error) {
	if service == nil {
		return nil, fmt.Errorf("finsec: service is required")
	}
	runtime := &BackgroundRuntime{
		service: service,
		logger:  glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(runtime)
	}

	router, err := inbound.NewPaymentRouter(service, runtime.logger)
	if err != nil {
		return nil, err
	}
	runtime.router = router
	return runtime, nil
}

// Startup resumes the push channel from a cached credential and schedules an
// orphan sweep for correlation entries left behind by the previous run.
// Neither step is fatal: a fresh install has no credential and no queue.
func (r *BackgroundRuntime) Startup(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("finsec: background runtime is not configured")
	}
	if err := r.service.ResumeChannel(ctx); err != nil {
		r.logger.Warn("push channel resume failed on startup", "error", err)
	}
	if err := r.service.EnqueueOrphanSweep(ctx, r.sweepOlderThan); err != nil {
		r.logger.Warn("orphan sweep enqueue failed on startup", "error", err)
	}
	return nil
}

// HandleMessage dispatches one raw inbound frame and returns the encoded
// reply. It never returns an empty payload.
func (r *BackgroundRuntime) HandleMessage(ctx context.Context, raw []byte, sender inbound.Sender) []byte {
	if r == nil || r.router == nil {
		return []byte(`{"status":"error","error":"runtime is not configured"}`)
	}
	return r.router.DispatchJSON(ctx, raw, sender)
}

// HandleTabUpdate forwards a host tab navigation event to the correlation
// observer.
func (r *BackgroundRuntime) HandleTabUpdate(ctx context.Context, update core.TabUpdate) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("finsec: background runtime is not configured")
	}
	return r.service.HandleTabUpdate(ctx, update)
}

// Router exposes the inbound router for hosts that register handlers of
// their own next to the payment actions.
func (r *BackgroundRuntime) Router() *inbound.Router {
	if r == nil {
		return nil
	}
	return r.router
}
