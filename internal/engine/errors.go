package engine

import "errors"

// Static errors surfaced by the engine. The batch sequencer downgrades
// each of them into a recorded failure outcome; only ErrCredentialRejected
// on the very first submission aborts a whole batch.
var (
	// ErrSubmissionRejected is returned when the service rejects a job at
	// creation time. Submission is never retried: a rejection indicates a
	// caller-side defect, not a transient condition.
	ErrSubmissionRejected = errors.New("engine: submission rejected")
	// ErrCredentialRejected is returned when the service rejects the
	// credential itself. Wrapped inside ErrSubmissionRejected.
	ErrCredentialRejected = errors.New("engine: credential rejected")
	// ErrNoJobID is returned when the create call succeeds but carries no
	// job identifier.
	ErrNoJobID = errors.New("engine: service returned no job id")
	// ErrGenerationTimeout is returned when the deadline elapses before a
	// terminal state. The job may still be running remotely; the remote
	// side is not cancelled unless an explicit Cancel call is made.
	ErrGenerationTimeout = errors.New("engine: generation timed out")
	// ErrRetriesExhausted is returned after too many consecutive failed
	// poll attempts.
	ErrRetriesExhausted = errors.New("engine: polling retries exhausted")
	// ErrRemoteFailure is returned when the job itself reached Failed.
	// Not a client defect; carries the service's failure detail.
	ErrRemoteFailure = errors.New("engine: job failed remotely")
	// ErrCanceled is returned for a job that was locally canceled.
	ErrCanceled = errors.New("engine: job canceled")
)

// TransientError marks a service error as retryable under the backoff
// policy. The service adapter wraps network errors, 5xx responses and
// rate limits with it; anything unmarked is classified FailureUnknown
// and still retried, conservatively.
type TransientError struct {
	Err         error
	RateLimited bool
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// classifyFailure maps a failed poll to its backoff failure kind.
func classifyFailure(err error) FailureKind {
	var te *TransientError
	if errors.As(err, &te) {
		if te.RateLimited {
			return FailureRateLimited
		}
		return FailureTransientNetwork
	}
	return FailureUnknown
}
