// Package engine drives a single remote generation job from submission to a
// terminal state. It owns the job lifecycle state machine, the polling and
// backoff discipline, and the Service port to the remote prediction API.
package engine

import "context"

// Status represents the lifecycle state of a generation job.
type Status string

// Job lifecycle states. Transitions are monotonic: a handle never moves
// back to an earlier state, and no transition leaves a terminal state.
const (
	StatusQueued     Status = "QUEUED"
	StatusStarting   Status = "STARTING"
	StatusProcessing Status = "PROCESSING"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// rank orders states for monotonic transitions. Terminal states share the
// highest rank; they are entered through dedicated transitions, never
// through observe.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusStarting:
		return 1
	case StatusProcessing:
		return 2
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return 3
	default:
		return 2
	}
}

// GenerationRequest is the normalized request handed to the remote service.
// The parameter map already contains the prompt, the source image reference,
// and the unit-converted duration value; the engine never derives them.
type GenerationRequest struct {
	// Model is the endpoint identifier, e.g. "wavespeedai/wan-2.1-i2v-480p".
	Model string
	// Input is the parameter mapping sent verbatim to the service.
	Input map[string]any
}

// WorkItem is one unit of batch input. It is read-only to the engine.
type WorkItem struct {
	// Name labels the item in logs, events and reports.
	Name string
	// ImageURL is the source image reference.
	ImageURL string
	// Prompt is the motion prompt text.
	Prompt string
	// Frames is the requested duration in frames, before conversion.
	Frames int
	// Request is the prepared request for the remote service.
	Request GenerationRequest
}

// RawStatus is one raw status payload from the remote service. Extract
// normalizes it onto the engine's status vocabulary.
type RawStatus struct {
	// Status is the service-specific status string.
	Status string
	// Logs is the accumulated free-text log output, if any.
	Logs string
	// OutputRef is the artifact URI, populated by the service on success.
	OutputRef string
	// ErrorDetail is the service's failure payload, if any.
	ErrorDetail string
}

// Service is the port to the remote generation service. Submission is
// idempotent-unsafe and must not be retried blindly; status queries are
// idempotent-safe and may be retried freely.
type Service interface {
	// CreateJob submits a generation job and returns the service-assigned
	// job ID.
	CreateJob(ctx context.Context, req GenerationRequest) (jobID string, err error)

	// GetJobStatus fetches the raw status payload for a job.
	GetJobStatus(ctx context.Context, jobID string) (RawStatus, error)

	// CancelJob requests cancellation of a running job (best-effort).
	CancelJob(ctx context.Context, jobID string) error
}
