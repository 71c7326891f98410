package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Client submits generation jobs and polls them to a terminal state. One
// logical job is in flight per client at any time; the batch sequencer
// calls it strictly sequentially.
type Client struct {
	svc     Service
	policy  BackoffPolicy
	maxWait time.Duration
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBackoffPolicy replaces the default backoff policy.
func WithBackoffPolicy(p BackoffPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithMaxWait sets the overall wall-clock deadline for one job, measured
// from submission.
func WithMaxWait(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxWait = d
	}
}

// NewClient creates a job client over the given service. Defaults: the
// default backoff policy and a 20 minute per-job deadline.
func NewClient(svc Service, opts ...ClientOption) *Client {
	c := &Client{
		svc:     svc,
		policy:  DefaultBackoffPolicy(),
		maxWait: 20 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Submit performs one network call to create the job and returns a fresh
// handle in the Queued state. Rejections are fatal and never retried;
// they wrap ErrSubmissionRejected, and credential rejections additionally
// wrap ErrCredentialRejected.
func (c *Client) Submit(ctx context.Context, item WorkItem) (*JobHandle, error) {
	jobID, err := c.svc.CreateJob(ctx, item.Request)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrSubmissionRejected, item.Name, err)
	}
	if jobID == "" {
		return nil, fmt.Errorf("%w: %q: %w", ErrSubmissionRejected, item.Name, ErrNoJobID)
	}

	h := newHandle(jobID, time.Now())
	c.logger.Info("job submitted",
		slog.String("item", item.Name),
		slog.String("job_id", jobID),
		slog.String("model", item.Request.Model),
	)
	return h, nil
}

// PollUntilTerminal repeatedly queries the job's status, applies the
// extractor, updates the handle, and sleeps per the backoff policy until
// a terminal state is reached or the deadline elapses. The deadline is a
// wall-clock cut-off set at submission and checked before every poll
// attempt, not a mid-call interrupt.
//
// Calling it on an already-terminal handle returns immediately with the
// same handle and no network call. onProgress, if non-nil, receives at
// most one event per observed change.
func (c *Client) PollUntilTerminal(ctx context.Context, h *JobHandle, onProgress ProgressFunc) (*JobHandle, error) {
	if h.IsTerminal() {
		if !h.staleLogged {
			c.logger.Debug("poll requested for terminal job, ignoring",
				slog.String("job_id", h.ID),
				slog.String("status", string(h.Status)),
			)
			h.staleLogged = true
		}
		return h, c.terminalErr(h)
	}

	deadline := h.CreatedAt.Add(c.maxWait)
	attempt := 0

	for {
		if !time.Now().Before(deadline) {
			return h, fmt.Errorf("%w: job %s still %s after %s",
				ErrGenerationTimeout, h.ID, h.Status, c.maxWait)
		}

		raw, err := c.svc.GetJobStatus(ctx, h.ID)
		if err != nil {
			if ctx.Err() != nil {
				return h, fmt.Errorf("poll job %s: %w", h.ID, ctx.Err())
			}
			attempt++
			if c.policy.Exhausted(attempt) {
				return h, fmt.Errorf("%w: job %s after %d attempts: %w",
					ErrRetriesExhausted, h.ID, attempt, err)
			}
			kind := classifyFailure(err)
			delay := c.policy.NextDelay(attempt, kind)
			c.logger.Warn("status poll failed, backing off",
				slog.String("job_id", h.ID),
				slog.Int("attempt", attempt),
				slog.String("failure_kind", kind.String()),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
			if err := sleep(ctx, delay); err != nil {
				return h, fmt.Errorf("poll job %s: %w", h.ID, err)
			}
			continue
		}
		attempt = 0

		now := time.Now()
		prevStatus := h.Status
		var prevProgress *float64
		if h.Progress != nil {
			v := *h.Progress
			prevProgress = &v
		}

		status, progress := Extract(raw)
		h.observe(status, progress, now)

		switch status {
		case StatusSucceeded:
			if raw.OutputRef == "" {
				// Succeeded without an artifact is a failure.
				h.fail("completed without an output artifact", now)
			} else {
				h.succeed(raw.OutputRef, now)
			}
		case StatusFailed:
			h.fail(failureDetail(raw), now)
		}

		if h.Status != prevStatus {
			c.logStatusChange(h, prevStatus)
		}
		if onProgress != nil && (h.Status != prevStatus || !progressEqual(prevProgress, h.Progress)) {
			onProgress(event(h))
		}

		if h.IsTerminal() {
			return h, c.terminalErr(h)
		}

		if err := sleep(ctx, c.policy.PollInterval); err != nil {
			return h, fmt.Errorf("poll job %s: %w", h.ID, err)
		}
	}
}

// Cancel attempts one remote cancellation call and, regardless of its
// outcome, moves the handle to Canceled so local polling stops.
func (c *Client) Cancel(ctx context.Context, h *JobHandle) error {
	if h.IsTerminal() {
		return nil
	}
	if err := c.svc.CancelJob(ctx, h.ID); err != nil {
		c.logger.Warn("remote cancel failed, canceling locally",
			slog.String("job_id", h.ID),
			slog.String("error", err.Error()),
		)
	}
	h.cancel(time.Now())
	return nil
}

// terminalErr maps a terminal handle to the error its consumer sees.
func (c *Client) terminalErr(h *JobHandle) error {
	switch h.Status {
	case StatusFailed:
		return fmt.Errorf("%w: job %s: %s", ErrRemoteFailure, h.ID, h.ErrorDetail)
	case StatusCanceled:
		return fmt.Errorf("%w: job %s", ErrCanceled, h.ID)
	default:
		return nil
	}
}

func (c *Client) logStatusChange(h *JobHandle, prev Status) {
	c.logger.Info("job status changed",
		slog.String("job_id", h.ID),
		slog.String("from", string(prev)),
		slog.String("to", string(h.Status)),
		slog.Duration("elapsed", h.Elapsed()),
	)
}

// progressEqual compares two optional progress readings.
func progressEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
