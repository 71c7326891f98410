package engine

import "time"

// ProgressEvent describes one observed change in a job's status or
// progress. The engine emits at most one event per change, never one per
// poll, so a display layer can render live state without throttling.
type ProgressEvent struct {
	JobID    string
	Status   Status
	Progress *float64
	Elapsed  time.Duration
}

// ProgressFunc receives progress events during polling. Implementations
// must not mutate the handle; only the engine does. A nil ProgressFunc
// disables notification.
type ProgressFunc func(ProgressEvent)

// event builds a ProgressEvent snapshot from the handle.
func event(h *JobHandle) ProgressEvent {
	var progress *float64
	if h.Progress != nil {
		v := *h.Progress
		progress = &v
	}
	return ProgressEvent{
		JobID:    h.ID,
		Status:   h.Status,
		Progress: progress,
		Elapsed:  h.Elapsed(),
	}
}
