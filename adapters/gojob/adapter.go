package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// RedeliveryPolicy bounds how a failed sweep delivery goes back to the queue.
type RedeliveryPolicy struct {
	// MaxAttempts caps requeues. Zero means unbounded.
	MaxAttempts int
	// MaxDelay caps the requeue delay. Zero leaves the delay as requested.
	MaxDelay time.Duration
	// DeadLetterOnMax routes a delivery that exhausted MaxAttempts to the
	// dead-letter queue instead of dropping it.
	DeadLetterOnMax bool
}

// Bound clamps the nack options for the given attempt number. The result
// always either requeues or dead-letters; a delivery is never silently
// dropped.
func (p RedeliveryPolicy) Bound(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	bounded := opts
	bounded.Reason = strings.TrimSpace(bounded.Reason)

	if bounded.Delay < 0 {
		bounded.Delay = 0
	}
	if p.MaxDelay > 0 && bounded.Delay > p.MaxDelay {
		bounded.Delay = p.MaxDelay
	}

	exhausted := p.MaxAttempts > 0 && attempt >= p.MaxAttempts
	if exhausted {
		bounded.Requeue = false
		if p.DeadLetterOnMax {
			bounded.DeadLetter = true
		}
	}
	if bounded.DeadLetter {
		bounded.Requeue = false
	}
	if !bounded.Requeue && !bounded.DeadLetter {
		bounded.Requeue = true
	}
	return bounded
}

// Publisher submits orchestrator job messages to a go-job queue.
type Publisher struct {
	enqueuer queue.Enqueuer
}

func NewPublisher(enqueuer queue.Enqueuer) *Publisher {
	return &Publisher{enqueuer: enqueuer}
}

func (p *Publisher) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("gojob: publisher is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	return p.enqueuer.Enqueue(ctx, toQueueMessage(msg))
}

// Lease is one dequeued delivery. Nack settlement goes through the
// redelivery policy.
type Lease struct {
	delivery queue.Delivery
	policy   RedeliveryPolicy
}

func NewLease(delivery queue.Delivery, policy RedeliveryPolicy) *Lease {
	return &Lease{delivery: delivery, policy: policy}
}

func (l *Lease) Message() *core.JobExecutionMessage {
	if l == nil || l.delivery == nil {
		return nil
	}
	return fromQueueMessage(l.delivery.Message())
}

func (l *Lease) Ack(ctx context.Context) error {
	if l == nil || l.delivery == nil {
		return fmt.Errorf("gojob: lease is not configured")
	}
	return l.delivery.Ack(ctx)
}

func (l *Lease) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return l.NackForAttempt(ctx, opts, 0)
}

func (l *Lease) NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error {
	if l == nil || l.delivery == nil {
		return fmt.Errorf("gojob: lease is not configured")
	}
	bounded := l.policy.Bound(opts, attempt)
	return l.delivery.Nack(ctx, queue.NackOptions{
		Delay:      bounded.Delay,
		Requeue:    bounded.Requeue,
		DeadLetter: bounded.DeadLetter,
		Reason:     bounded.Reason,
	})
}

// Source drains a go-job dequeuer and hands out leases that carry the
// redelivery policy.
type Source struct {
	dequeuer queue.Dequeuer
	policy   RedeliveryPolicy
}

func NewSource(dequeuer queue.Dequeuer, policy RedeliveryPolicy) *Source {
	return &Source{dequeuer: dequeuer, policy: policy}
}

func (s *Source) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if s == nil || s.dequeuer == nil {
		return nil, fmt.Errorf("gojob: source is not configured")
	}
	delivery, err := s.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	return NewLease(delivery, s.policy), nil
}

func toQueueMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

func fromQueueMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     cloneParameters(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

func cloneParameters(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.JobEnqueuer = (*Publisher)(nil)
	_ core.JobDelivery = (*Lease)(nil)
	_ core.JobDequeuer = (*Source)(nil)
)
