package gojob

import (
	"context"
	"errors"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// SweepJobRunner executes one orphan-sweep delivery. *core.Service satisfies
// this contract.
type SweepJobRunner interface {
	RunSweepJob(ctx context.Context, msg *core.JobExecutionMessage) error
}

// SweepWorker drains the job queue and executes orphan-sweep deliveries.
// Deliveries for other job ids are dead-lettered so a misrouted message never
// cycles through the queue forever.
type SweepWorker struct {
	dequeuer core.JobDequeuer
	runner   SweepJobRunner
	policy   RedeliveryPolicy
	logger   glog.Logger

	mu       sync.Mutex
	attempts map[string]int
}

type SweepWorkerConfig struct {
	Dequeuer core.JobDequeuer
	Runner   SweepJobRunner
	Policy   RedeliveryPolicy
	Logger   glog.Logger
}

func NewSweepWorker(cfg SweepWorkerConfig) (*SweepWorker, error) {
	if cfg.Dequeuer == nil {
		return nil, errors.New("gojob: dequeuer is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("gojob: sweep job runner is required")
	}
	return &SweepWorker{
		dequeuer: cfg.Dequeuer,
		runner:   cfg.Runner,
		policy:   cfg.Policy,
		logger:   glog.Ensure(cfg.Logger),
		attempts: map[string]int{},
	}, nil
}

// Run processes deliveries until the context is cancelled or the dequeuer
// reports an error.
func (w *SweepWorker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("gojob: sweep worker is nil")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := w.dequeuer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		w.process(ctx, delivery)
	}
}

// ProcessOne handles a single delivery, exposed for drive-by draining in
// tests and manual runs.
func (w *SweepWorker) ProcessOne(ctx context.Context) error {
	if w == nil {
		return errors.New("gojob: sweep worker is nil")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	w.process(ctx, delivery)
	return nil
}

func (w *SweepWorker) process(ctx context.Context, delivery core.JobDelivery) {
	if delivery == nil {
		return
	}
	msg := delivery.Message()
	if msg == nil || strings.TrimSpace(msg.JobID) == "" {
		w.logger.Warn("dropping delivery without a job id")
		_ = delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "missing job id"})
		return
	}
	if msg.JobID != core.OrphanSweepJobID {
		w.logger.Warn("dead-lettering unsupported job", "job_id", msg.JobID)
		_ = delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: "unsupported job id"})
		return
	}

	if err := w.runner.RunSweepJob(ctx, msg); err != nil {
		attempt := w.bumpAttempt(msg.IdempotencyKey)
		w.logger.Error("orphan sweep failed", "error", err, "attempt", attempt)
		opts := w.policy.Bound(core.JobNackOptions{Requeue: true, Reason: err.Error()}, attempt)
		_ = delivery.Nack(ctx, opts)
		return
	}

	w.clearAttempt(msg.IdempotencyKey)
	if err := delivery.Ack(ctx); err != nil {
		w.logger.Error("acking sweep delivery failed", "error", err)
	}
}

func (w *SweepWorker) bumpAttempt(key string) int {
	key = strings.TrimSpace(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *SweepWorker) clearAttempt(key string) {
	key = strings.TrimSpace(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}
