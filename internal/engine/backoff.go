package engine

import "time"

// FailureKind classifies a failed poll attempt for backoff purposes.
type FailureKind int

const (
	// FailureTransientNetwork covers connection errors and 5xx responses.
	FailureTransientNetwork FailureKind = iota
	// FailureRateLimited covers 429 responses. Rate limits get a longer
	// floor delay than plain network failures.
	FailureRateLimited
	// FailureUnknown covers everything else and is treated like
	// FailureTransientNetwork, conservatively.
	FailureUnknown
)

// String returns a short label for logging.
func (k FailureKind) String() string {
	switch k {
	case FailureTransientNetwork:
		return "transient_network"
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// BackoffPolicy computes retry delays for failed poll attempts and the
// steady-state poll cadence. Delays are deterministic given the attempt
// count and failure kind: no wall-clock randomness, so tests reproduce.
type BackoffPolicy struct {
	// PollInterval is the steady-state cadence between successful polls.
	// This is not backoff; it applies when no failure occurred.
	PollInterval time.Duration
	// BaseDelay is the delay before the first retry after a transient
	// network failure. Growth is exponential from here.
	BaseDelay time.Duration
	// RateLimitFloor replaces BaseDelay for rate-limited failures.
	RateLimitFloor time.Duration
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
	// MaxAttempts bounds consecutive failed attempts before the engine
	// abandons polling with ErrRetriesExhausted.
	MaxAttempts int
}

// DefaultBackoffPolicy mirrors the service defaults: poll every 3s,
// retry from 2s doubling up to 2m, give rate limits a 60s floor, and
// give up after 3 consecutive failures.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		PollInterval:   3 * time.Second,
		BaseDelay:      2 * time.Second,
		RateLimitFloor: 60 * time.Second,
		MaxDelay:       2 * time.Minute,
		MaxAttempts:    3,
	}
}

// NextDelay returns the delay before retry attempt n (1-indexed, counting
// consecutive failures since the last successful poll). The delay is
// non-decreasing in the attempt count and never exceeds MaxDelay.
func (p BackoffPolicy) NextDelay(attempt int, kind FailureKind) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := p.BaseDelay
	if kind == FailureRateLimited && p.RateLimitFloor > base {
		base = p.RateLimitFloor
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Exhausted reports whether the attempt count has passed the retry budget.
func (p BackoffPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}
