package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
)

// fakeRunner scripts per-item behavior by work item name.
type fakeRunner struct {
	submitErrs map[string]error
	pollErrs   map[string]error
	outputs    map[string]string
	submitted  []string
}

func (f *fakeRunner) Submit(_ context.Context, item engine.WorkItem) (*engine.JobHandle, error) {
	f.submitted = append(f.submitted, item.Name)
	if err := f.submitErrs[item.Name]; err != nil {
		return nil, err
	}
	return &engine.JobHandle{ID: "job-" + item.Name, Status: engine.StatusQueued}, nil
}

func (f *fakeRunner) PollUntilTerminal(_ context.Context, h *engine.JobHandle, onProgress engine.ProgressFunc) (*engine.JobHandle, error) {
	name := h.ID[len("job-"):]
	if onProgress != nil {
		onProgress(engine.ProgressEvent{JobID: h.ID, Status: engine.StatusProcessing})
	}
	if err := f.pollErrs[name]; err != nil {
		h.Status = engine.StatusFailed
		h.ErrorDetail = err.Error()
		return h, err
	}
	h.Status = engine.StatusSucceeded
	h.OutputRef = f.outputs[name]
	if onProgress != nil {
		onProgress(engine.ProgressEvent{JobID: h.ID, Status: engine.StatusSucceeded})
	}
	return h, nil
}

// recordingSink captures every sink call for assertions.
type recordingSink struct {
	started  []string
	events   []Event
	finished []Outcome
}

func (s *recordingSink) ItemStarted(_, _ int, item engine.WorkItem) {
	s.started = append(s.started, item.Name)
}

func (s *recordingSink) Progress(ev Event) {
	s.events = append(s.events, ev)
}

func (s *recordingSink) ItemFinished(_, _ int, out Outcome) {
	s.finished = append(s.finished, out)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func items(names ...string) []engine.WorkItem {
	out := make([]engine.WorkItem, 0, len(names))
	for _, n := range names {
		out = append(out, engine.WorkItem{Name: n})
	}
	return out
}

func TestSequencer_AllSucceed(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"shot-01": "https://x/1.mp4",
			"shot-02": "https://x/2.mp4",
			"shot-03": "https://x/3.mp4",
		},
	}
	sq := NewSequencer(runner,
		WithSequencerLogger(quietLogger()),
		WithCostFunc(func(engine.WorkItem) float64 { return 0.25 }),
	)

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02", "shot-03"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total())
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 0, res.Failed)
	assert.InDelta(t, 0.75, res.TotalCost, 1e-9)

	// Outcomes keep input order.
	for i, want := range []string{"shot-01", "shot-02", "shot-03"} {
		assert.Equal(t, want, res.Outcomes[i].Item.Name)
		assert.True(t, res.Outcomes[i].Succeeded())
	}
	assert.Equal(t, "https://x/2.mp4", res.Outcomes[1].OutputRef)
}

func TestSequencer_StrictlySequential(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"a": "u", "b": "u", "c": "u"},
	}
	sq := NewSequencer(runner, WithSequencerLogger(quietLogger()))

	_, err := sq.Run(context.Background(), items("a", "b", "c"))
	require.NoError(t, err)

	// Submission order is input order; nothing overlaps or reorders.
	assert.Equal(t, []string{"a", "b", "c"}, runner.submitted)
}

func TestSequencer_MiddleFailureIsIsolated(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"shot-01": "https://x/1.mp4",
			"shot-03": "https://x/3.mp4",
		},
		pollErrs: map[string]error{
			"shot-02": fmt.Errorf("%w: job job-shot-02: model exploded", engine.ErrRemoteFailure),
		},
	}
	sq := NewSequencer(runner,
		WithSequencerLogger(quietLogger()),
		WithCostFunc(func(engine.WorkItem) float64 { return 0.25 }),
	)

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02", "shot-03"))
	require.NoError(t, err)

	// The failed item is recorded and the later item still ran.
	assert.Equal(t, []string{"shot-01", "shot-02", "shot-03"}, runner.submitted)
	assert.Equal(t, 3, res.Total())
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	failed := res.Outcomes[1]
	assert.False(t, failed.Succeeded())
	assert.Contains(t, failed.ErrorDetail, "model exploded")
	assert.Empty(t, failed.OutputRef)

	// Failed items are not charged.
	assert.InDelta(t, 0.5, res.TotalCost, 1e-9)
}

func TestSequencer_SubmissionFailureRecorded(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"shot-02": "https://x/2.mp4"},
		submitErrs: map[string]error{
			"shot-01": fmt.Errorf("%w: bad input", engine.ErrSubmissionRejected),
		},
	}
	sq := NewSequencer(runner, WithSequencerLogger(quietLogger()))

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Succeeded)
	assert.Contains(t, res.Outcomes[0].ErrorDetail, "bad input")
}

func TestSequencer_CredentialAbortOnFirstItem(t *testing.T) {
	runner := &fakeRunner{
		submitErrs: map[string]error{
			"shot-01": fmt.Errorf("%w: %w", engine.ErrSubmissionRejected, engine.ErrCredentialRejected),
		},
	}
	sink := &recordingSink{}
	sq := NewSequencer(runner, WithSink(sink), WithSequencerLogger(quietLogger()))

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02", "shot-03"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchAborted)
	assert.ErrorIs(t, err, engine.ErrCredentialRejected)

	// Nothing after the first item was submitted; the partial result
	// still carries the first outcome.
	assert.Equal(t, []string{"shot-01"}, runner.submitted)
	require.Equal(t, 1, res.Total())
	assert.False(t, res.Outcomes[0].Succeeded())
	assert.Len(t, sink.finished, 1)
}

func TestSequencer_CredentialFailureLaterDoesNotAbort(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"shot-01": "https://x/1.mp4", "shot-03": "https://x/3.mp4"},
		submitErrs: map[string]error{
			"shot-02": fmt.Errorf("%w: %w", engine.ErrSubmissionRejected, engine.ErrCredentialRejected),
		},
	}
	sq := NewSequencer(runner, WithSequencerLogger(quietLogger()))

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02", "shot-03"))
	require.NoError(t, err)

	assert.Equal(t, []string{"shot-01", "shot-02", "shot-03"}, runner.submitted)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
}

func TestSequencer_ContextCanceled(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"shot-01": "u"}}
	sq := NewSequencer(runner, WithSequencerLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sq.Run(ctx, items("shot-01", "shot-02"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Total())
	assert.Empty(t, runner.submitted)
}

func TestSequencer_PersistFailureFailsItem(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"shot-01": "https://x/1.mp4", "shot-02": "https://x/2.mp4"},
	}
	sq := NewSequencer(runner,
		WithSequencerLogger(quietLogger()),
		WithPersistFunc(func(_ context.Context, item engine.WorkItem, _ *engine.JobHandle) (string, error) {
			if item.Name == "shot-01" {
				return "", errors.New("disk full")
			}
			return "/out/" + item.Name + ".mp4", nil
		}),
	)

	res, err := sq.Run(context.Background(), items("shot-01", "shot-02"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Outcomes[0].ErrorDetail, "disk full")
	assert.Equal(t, "/out/shot-02.mp4", res.Outcomes[1].LocalPath)
}

func TestSequencer_SinkSeesEveryItem(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"a": "u", "b": "u"},
		pollErrs: map[string]error{
			"c": fmt.Errorf("%w: boom", engine.ErrRemoteFailure),
		},
	}
	sink := &recordingSink{}
	sq := NewSequencer(runner, WithSink(sink), WithSequencerLogger(quietLogger()))

	_, err := sq.Run(context.Background(), items("a", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, sink.started)
	require.Len(t, sink.finished, 3)
	assert.True(t, sink.finished[0].Succeeded())
	assert.False(t, sink.finished[2].Succeeded())

	// Progress events carry the item's name and position.
	require.NotEmpty(t, sink.events)
	assert.Equal(t, "a", sink.events[0].Name)
	assert.Equal(t, 0, sink.events[0].ItemIndex)
	assert.Equal(t, 3, sink.events[0].ItemCount)
}
