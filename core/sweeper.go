package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// OrphanSweepJobID identifies the background job that reclaims correlation
// entries whose authentication tab was abandoned, closed by the user, or
// left behind by a process restart.
const OrphanSweepJobID = "payflow.sca.orphan_sweep"

// SweepOrphanedScaEntries closes the tab of, and removes, every correlation
// entry older than olderThan. A non-positive olderThan falls back to the
// configured entry TTL. It returns the number of entries reclaimed.
func (s *Service) SweepOrphanedScaEntries(ctx context.Context, olderThan time.Duration) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: service is nil")
	}
	startedAt := time.Now().UTC()
	if olderThan <= 0 {
		olderThan = s.config.Sca.EntryTTL
	}
	if olderThan <= 0 {
		olderThan = defaultScaEntryTTL
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	entries, err := s.scaStore.List(ctx)
	if err != nil {
		err = s.mapError(err)
		s.observeOperation(ctx, startedAt, "sca_orphan_sweep", err, map[string]any{})
		return 0, err
	}

	swept := 0
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() || entry.CreatedAt.After(cutoff) {
			continue
		}
		if s.tabs != nil {
			_ = s.tabs.Close(ctx, entry.TabID)
		}
		if removeErr := s.scaStore.Remove(ctx, entry.TransactionID); removeErr != nil {
			s.logError(ctx, "removing orphaned sca entry failed", map[string]any{
				"transaction_id": entry.TransactionID,
				"error":          removeErr.Error(),
			})
			continue
		}
		swept++
	}

	s.observeOperation(ctx, startedAt, "sca_orphan_sweep", nil, map[string]any{
		"swept":       swept,
		"older_than":  olderThan.String(),
		"entry_count": len(entries),
	})
	return swept, nil
}

// EnqueueOrphanSweep schedules a sweep on the background job queue. Callers
// that have no queue configured get the error back and may sweep inline.
func (s *Service) EnqueueOrphanSweep(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if s.jobEnqueuer == nil {
		return s.mapError(paymentInternal("core: job enqueuer is not configured"))
	}
	params := map[string]any{}
	if olderThan > 0 {
		params["older_than"] = olderThan.String()
	}
	return s.mapError(s.jobEnqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID:          OrphanSweepJobID,
		Parameters:     params,
		IdempotencyKey: OrphanSweepJobID,
		DedupPolicy:    "ignore",
	}))
}

// RunSweepJob executes a dequeued sweep message. It is the worker-side
// counterpart of EnqueueOrphanSweep.
func (s *Service) RunSweepJob(ctx context.Context, msg *JobExecutionMessage) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if msg == nil || strings.TrimSpace(msg.JobID) != OrphanSweepJobID {
		return s.mapError(scaBadInput("core: unexpected job message for sca sweep"))
	}
	olderThan := time.Duration(0)
	if raw, ok := msg.Parameters["older_than"]; ok {
		if text := strings.TrimSpace(fmt.Sprint(raw)); text != "" {
			parsed, parseErr := time.ParseDuration(text)
			if parseErr != nil {
				return s.mapError(scaBadInput("core: invalid older_than parameter"))
			}
			olderThan = parsed
		}
	}
	_, err := s.SweepOrphanedScaEntries(ctx, olderThan)
	return err
}
