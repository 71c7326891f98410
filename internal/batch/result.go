// Package batch runs an ordered sequence of work items through the job
// engine, one at a time, isolating per-item failures and accumulating an
// ordered result for reporting.
package batch

import (
	"time"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
)

// Outcome records the terminal result of one work item. Exactly one of
// OutputRef or ErrorDetail is populated.
type Outcome struct {
	// Item is the work item this outcome belongs to. Read-only.
	Item engine.WorkItem
	// OutputRef is the artifact URI on success.
	OutputRef string
	// LocalPath is where the artifact was persisted, if a persist hook ran.
	LocalPath string
	// Cost is the computed generation cost in USD on success.
	Cost float64
	// Elapsed is the wall-clock time spent on the item.
	Elapsed time.Duration
	// ErrorDetail is the human-readable failure cause on failure.
	ErrorDetail string
}

// Succeeded reports whether the item produced an artifact.
func (o Outcome) Succeeded() bool {
	return o.ErrorDetail == ""
}

// Result is the append-only, ordered accumulation of per-item outcomes.
// It is built exclusively by the sequencer and handed to reporting
// read-only. Run state lives here, not in package globals.
type Result struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	TotalCost float64
	Started   time.Time
	Finished  time.Time
}

// Total returns the number of processed items.
func (r *Result) Total() int {
	return len(r.Outcomes)
}

// record appends one outcome and updates the running counters.
func (r *Result) record(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Succeeded() {
		r.Succeeded++
		r.TotalCost += o.Cost
	} else {
		r.Failed++
	}
}
