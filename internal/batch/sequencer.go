package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
)

// ErrBatchAborted is returned when the collaborators themselves are
// unusable, e.g. the credential is rejected at the very first submission.
// Per-item remote failures never abort a batch.
var ErrBatchAborted = errors.New("batch: aborted")

// JobRunner is the subset of the engine client the sequencer drives.
type JobRunner interface {
	Submit(ctx context.Context, item engine.WorkItem) (*engine.JobHandle, error)
	PollUntilTerminal(ctx context.Context, h *engine.JobHandle, onProgress engine.ProgressFunc) (*engine.JobHandle, error)
}

// CostFunc prices one successfully generated item.
type CostFunc func(item engine.WorkItem) float64

// PersistFunc stores the artifact of a successful item and returns the
// local path. A persist failure fails the item.
type PersistFunc func(ctx context.Context, item engine.WorkItem, h *engine.JobHandle) (string, error)

// Sequencer processes work items strictly one at a time, in input order.
// A single item's failure is recorded and the batch continues.
type Sequencer struct {
	runner  JobRunner
	sink    Sink
	logger  *slog.Logger
	costFn  CostFunc
	persist PersistFunc
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithSink sets the progress sink. Default: NopSink.
func WithSink(s Sink) SequencerOption {
	return func(sq *Sequencer) {
		sq.sink = s
	}
}

// WithSequencerLogger sets the structured logger.
func WithSequencerLogger(l *slog.Logger) SequencerOption {
	return func(sq *Sequencer) {
		sq.logger = l
	}
}

// WithCostFunc sets the cost calculator applied to successful items.
func WithCostFunc(fn CostFunc) SequencerOption {
	return func(sq *Sequencer) {
		sq.costFn = fn
	}
}

// WithPersistFunc sets the artifact persist hook for successful items.
func WithPersistFunc(fn PersistFunc) SequencerOption {
	return func(sq *Sequencer) {
		sq.persist = fn
	}
}

// NewSequencer creates a sequencer over the given job runner.
func NewSequencer(runner JobRunner, opts ...SequencerOption) *Sequencer {
	sq := &Sequencer{
		runner: runner,
		sink:   NopSink{},
	}
	for _, opt := range opts {
		opt(sq)
	}
	if sq.logger == nil {
		sq.logger = slog.Default()
	}
	return sq
}

// Run processes the items in order and returns the complete ordered
// result, one outcome per item. It returns an error only when the batch
// as a whole is unusable: a credential rejection on the very first
// submission, or context cancellation; in both cases the partial result
// is still returned.
func (sq *Sequencer) Run(ctx context.Context, items []engine.WorkItem) (*Result, error) {
	res := &Result{
		Outcomes: make([]Outcome, 0, len(items)),
		Started:  time.Now(),
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			res.Finished = time.Now()
			return res, fmt.Errorf("%w: %w", ErrBatchAborted, err)
		}

		sq.sink.ItemStarted(i, len(items), item)
		out, err := sq.runOne(ctx, i, len(items), item)

		// A rejected credential on the first submission means every
		// following item would fail the same way.
		if i == 0 && err != nil && errors.Is(err, engine.ErrCredentialRejected) {
			res.record(out)
			res.Finished = time.Now()
			sq.sink.ItemFinished(i, len(items), out)
			return res, fmt.Errorf("%w: %w", ErrBatchAborted, err)
		}

		res.record(out)
		sq.sink.ItemFinished(i, len(items), out)
	}

	res.Finished = time.Now()
	sq.logger.Info("batch finished",
		slog.Int("total", res.Total()),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
		slog.Float64("total_cost_usd", res.TotalCost),
	)
	return res, nil
}

// runOne drives a single item to its outcome. Every fatal engine error is
// downgraded to a recorded failure; the error is also returned so Run can
// inspect it for batch-level aborts.
func (sq *Sequencer) runOne(ctx context.Context, index, total int, item engine.WorkItem) (Outcome, error) {
	start := time.Now()

	h, err := sq.runner.Submit(ctx, item)
	if err != nil {
		sq.logger.Error("submission rejected",
			slog.String("item", item.Name),
			slog.String("error", err.Error()),
		)
		return Outcome{
			Item:        item,
			Elapsed:     time.Since(start),
			ErrorDetail: err.Error(),
		}, err
	}

	sq.sink.Progress(Event{
		ItemIndex: index,
		ItemCount: total,
		Name:      item.Name,
		Status:    h.Status,
		Elapsed:   h.Elapsed(),
	})

	h, err = sq.runner.PollUntilTerminal(ctx, h, func(ev engine.ProgressEvent) {
		sq.sink.Progress(Event{
			ItemIndex: index,
			ItemCount: total,
			Name:      item.Name,
			Status:    ev.Status,
			Progress:  ev.Progress,
			Elapsed:   ev.Elapsed,
		})
	})
	if err != nil {
		sq.logger.Error("generation failed",
			slog.String("item", item.Name),
			slog.String("job_id", h.ID),
			slog.String("error", err.Error()),
		)
		return Outcome{
			Item:        item,
			Elapsed:     time.Since(start),
			ErrorDetail: err.Error(),
		}, err
	}

	out := Outcome{
		Item:      item,
		OutputRef: h.OutputRef,
		Elapsed:   time.Since(start),
	}
	if sq.costFn != nil {
		out.Cost = sq.costFn(item)
	}
	if sq.persist != nil {
		path, perr := sq.persist(ctx, item, h)
		if perr != nil {
			sq.logger.Error("persisting artifact failed",
				slog.String("item", item.Name),
				slog.String("error", perr.Error()),
			)
			return Outcome{
				Item:        item,
				Elapsed:     time.Since(start),
				ErrorDetail: fmt.Sprintf("persist artifact: %v", perr),
			}, perr
		}
		out.LocalPath = path
	}
	return out, nil
}
