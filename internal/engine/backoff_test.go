package engine

import (
	"testing"
	"time"
)

func TestBackoffPolicy_NonDecreasing(t *testing.T) {
	p := DefaultBackoffPolicy()

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.NextDelay(attempt, FailureTransientNetwork)
		if d < prev {
			t.Errorf("delay decreased: attempt %d gave %s, previous %s", attempt, d, prev)
		}
		prev = d
	}
}

func TestBackoffPolicy_Ceiling(t *testing.T) {
	p := DefaultBackoffPolicy()

	for attempt := 1; attempt <= 20; attempt++ {
		if d := p.NextDelay(attempt, FailureTransientNetwork); d > p.MaxDelay {
			t.Errorf("attempt %d exceeded MaxDelay: %s > %s", attempt, d, p.MaxDelay)
		}
		if d := p.NextDelay(attempt, FailureRateLimited); d > p.MaxDelay {
			t.Errorf("rate limited attempt %d exceeded MaxDelay: %s > %s", attempt, d, p.MaxDelay)
		}
	}
}

func TestBackoffPolicy_ExponentialGrowth(t *testing.T) {
	p := BackoffPolicy{BaseDelay: 2 * time.Second, MaxDelay: time.Hour}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
	}
	for _, tt := range tests {
		if got := p.NextDelay(tt.attempt, FailureTransientNetwork); got != tt.want {
			t.Errorf("NextDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffPolicy_RateLimitFloor(t *testing.T) {
	p := DefaultBackoffPolicy()

	got := p.NextDelay(1, FailureRateLimited)
	if got < p.RateLimitFloor {
		t.Errorf("first rate limited delay %s below floor %s", got, p.RateLimitFloor)
	}

	network := p.NextDelay(1, FailureTransientNetwork)
	if network >= got {
		t.Errorf("network delay %s should start below rate limit delay %s", network, got)
	}
}

func TestBackoffPolicy_Deterministic(t *testing.T) {
	p := DefaultBackoffPolicy()

	for attempt := 1; attempt <= 6; attempt++ {
		for _, kind := range []FailureKind{FailureTransientNetwork, FailureRateLimited, FailureUnknown} {
			a := p.NextDelay(attempt, kind)
			b := p.NextDelay(attempt, kind)
			if a != b {
				t.Errorf("NextDelay(%d, %v) not deterministic: %s vs %s", attempt, kind, a, b)
			}
		}
	}
}

func TestBackoffPolicy_AttemptFloor(t *testing.T) {
	p := DefaultBackoffPolicy()

	if got := p.NextDelay(0, FailureTransientNetwork); got != p.BaseDelay {
		t.Errorf("NextDelay(0) = %s, want %s", got, p.BaseDelay)
	}
	if got := p.NextDelay(-3, FailureTransientNetwork); got != p.BaseDelay {
		t.Errorf("NextDelay(-3) = %s, want %s", got, p.BaseDelay)
	}
}

func TestBackoffPolicy_Exhausted(t *testing.T) {
	p := BackoffPolicy{MaxAttempts: 3}

	for attempt := 1; attempt <= 3; attempt++ {
		if p.Exhausted(attempt) {
			t.Errorf("attempt %d should be within budget", attempt)
		}
	}
	if !p.Exhausted(4) {
		t.Error("attempt 4 should exhaust a budget of 3")
	}

	unbounded := BackoffPolicy{}
	if unbounded.Exhausted(1000) {
		t.Error("zero MaxAttempts should never exhaust")
	}
}
