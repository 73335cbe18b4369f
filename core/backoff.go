package core

import (
	"time"
)

const (
	defaultBaseReconnectDelay = time.Second
	defaultMaxReconnectDelay  = 30 * time.Second
)

type BackoffScheduler interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoffScheduler doubles the delay per attempt, capped at Max.
// Attempt numbering starts at zero: NextDelay(0) == Base.
type ExponentialBackoffScheduler struct {
	Base time.Duration
	Max  time.Duration
}

func (s ExponentialBackoffScheduler) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := s.Base
	if base <= 0 {
		base = defaultBaseReconnectDelay
	}
	max := s.Max
	if max <= 0 {
		max = defaultMaxReconnectDelay
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
