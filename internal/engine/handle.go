package engine

import "time"

// JobHandle tracks the identity and last-known status of one remote job.
// A handle is created fresh per work item at submission time and discarded
// after its terminal status is consumed. It is exclusively owned by the
// single poll loop driving it; only the engine mutates it.
type JobHandle struct {
	// ID is the opaque identifier assigned by the remote service.
	// Immutable once set.
	ID string
	// Status is the last-known lifecycle state.
	Status Status
	// Progress is the normalized completion percentage (0-100), or nil
	// when unknown. Best-effort, derived from service log output.
	Progress *float64
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time
	// LastPolledAt is when the status was last queried.
	LastPolledAt time.Time
	// OutputRef is the artifact URI. Set only on Succeeded.
	OutputRef string
	// ErrorDetail is the human-readable failure cause. Set only on
	// Failed or Canceled. OutputRef and ErrorDetail are mutually
	// exclusive and both empty until a terminal state is reached.
	ErrorDetail string

	staleLogged bool
}

// newHandle creates a handle in the Queued state.
func newHandle(id string, now time.Time) *JobHandle {
	return &JobHandle{
		ID:        id,
		Status:    StatusQueued,
		CreatedAt: now,
	}
}

// IsTerminal returns true once the handle reached a terminal state.
func (h *JobHandle) IsTerminal() bool {
	return h.Status.IsTerminal()
}

// Elapsed returns the wall-clock time since submission.
func (h *JobHandle) Elapsed() time.Duration {
	return time.Since(h.CreatedAt)
}

// observe applies a polled non-terminal status and progress reading.
// Status updates are monotonic: a stale or out-of-order response never
// regresses the handle to an earlier state, while a newer progress value
// is still accepted. Terminal states are entered only through succeed,
// fail or cancel. Returns true if status or progress changed.
func (h *JobHandle) observe(s Status, progress *float64, now time.Time) bool {
	h.LastPolledAt = now
	if h.Status.IsTerminal() {
		return false
	}

	changed := false
	if !s.IsTerminal() && s.rank() > h.Status.rank() {
		h.Status = s
		changed = true
	}
	if progress != nil && (h.Progress == nil || *h.Progress != *progress) {
		v := *progress
		h.Progress = &v
		changed = true
	}
	return changed
}

// succeed moves the handle to Succeeded with the produced artifact.
// The output reference is mandatory; callers must coerce an empty one
// to a failure instead.
func (h *JobHandle) succeed(outputRef string, now time.Time) {
	if h.Status.IsTerminal() {
		return
	}
	h.Status = StatusSucceeded
	h.OutputRef = outputRef
	h.LastPolledAt = now
}

// fail moves the handle to Failed with a human-readable cause.
func (h *JobHandle) fail(detail string, now time.Time) {
	if h.Status.IsTerminal() {
		return
	}
	if detail == "" {
		detail = "generation failed without detail"
	}
	h.Status = StatusFailed
	h.ErrorDetail = detail
	h.LastPolledAt = now
}

// cancel moves the handle to Canceled. Reachable from any non-terminal
// state, but only through an explicit local cancellation.
func (h *JobHandle) cancel(now time.Time) {
	if h.Status.IsTerminal() {
		return
	}
	h.Status = StatusCanceled
	h.ErrorDetail = "canceled"
	h.LastPolledAt = now
}
