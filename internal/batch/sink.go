package batch

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
)

// Event is one progress notification for the display layer.
type Event struct {
	// ItemIndex is the zero-based position of the item in the batch.
	ItemIndex int
	// ItemCount is the batch size.
	ItemCount int
	// Name labels the item.
	Name string
	// Status is the job's current lifecycle state.
	Status engine.Status
	// Progress is the completion percentage, or nil when unknown.
	Progress *float64
	// Elapsed is the time since the item's job was submitted.
	Elapsed time.Duration
}

// Sink receives live progress from the sequencer. Implementations render;
// they never mutate batch or job state. The sequencer works with any Sink,
// so display flavors are injected, not inherited.
type Sink interface {
	// ItemStarted is called once before an item is submitted.
	ItemStarted(index, total int, item engine.WorkItem)
	// Progress is called for each observed status or progress change.
	Progress(ev Event)
	// ItemFinished is called once with the item's terminal outcome.
	ItemFinished(index, total int, out Outcome)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) ItemStarted(int, int, engine.WorkItem) {}
func (NopSink) Progress(Event)                        {}
func (NopSink) ItemFinished(int, int, Outcome)        {}

// ConsoleSink renders progress through the structured logger.
type ConsoleSink struct {
	Logger *slog.Logger
}

// NewConsoleSink creates a console sink over the given logger.
func NewConsoleSink(logger *slog.Logger) *ConsoleSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSink{Logger: logger}
}

func (s *ConsoleSink) ItemStarted(index, total int, item engine.WorkItem) {
	s.Logger.Info("processing item",
		slog.Int("item", index+1),
		slog.Int("of", total),
		slog.String("name", item.Name),
	)
}

func (s *ConsoleSink) Progress(ev Event) {
	attrs := []any{
		slog.Int("item", ev.ItemIndex+1),
		slog.Int("of", ev.ItemCount),
		slog.String("status", string(ev.Status)),
		slog.Duration("elapsed", ev.Elapsed.Round(time.Second)),
	}
	if ev.Progress != nil {
		attrs = append(attrs, slog.Int("percent", int(*ev.Progress)))
	}
	s.Logger.Info("generation progress", attrs...)
}

func (s *ConsoleSink) ItemFinished(index, total int, out Outcome) {
	if out.Succeeded() {
		s.Logger.Info("item succeeded",
			slog.Int("item", index+1),
			slog.Int("of", total),
			slog.String("name", out.Item.Name),
			slog.Float64("cost_usd", out.Cost),
			slog.Duration("elapsed", out.Elapsed.Round(time.Second)),
		)
		return
	}
	s.Logger.Error("item failed",
		slog.Int("item", index+1),
		slog.Int("of", total),
		slog.String("name", out.Item.Name),
		slog.String("error", out.ErrorDetail),
	)
}

// RichSink renders styled progress lines to a terminal writer.
type RichSink struct {
	out io.Writer

	title   lipgloss.Style
	status  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// NewRichSink creates a rich console sink writing to w.
func NewRichSink(w io.Writer) *RichSink {
	return &RichSink{
		out:     w,
		title:   lipgloss.NewStyle().Bold(true),
		status:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dim:     lipgloss.NewStyle().Faint(true),
	}
}

func (s *RichSink) ItemStarted(index, total int, item engine.WorkItem) {
	fmt.Fprintf(s.out, "%s %s\n",
		s.title.Render(fmt.Sprintf("[%d/%d]", index+1, total)),
		item.Name,
	)
}

func (s *RichSink) Progress(ev Event) {
	line := s.status.Render(string(ev.Status))
	if ev.Progress != nil {
		line += s.dim.Render(fmt.Sprintf("  %3.0f%%", *ev.Progress))
	}
	line += s.dim.Render(fmt.Sprintf("  %s", ev.Elapsed.Round(time.Second)))
	fmt.Fprintf(s.out, "  %s\n", line)
}

func (s *RichSink) ItemFinished(index, total int, out Outcome) {
	if out.Succeeded() {
		fmt.Fprintf(s.out, "  %s %s\n",
			s.success.Render("done"),
			s.dim.Render(fmt.Sprintf("$%.4f in %s", out.Cost, out.Elapsed.Round(time.Second))),
		)
		return
	}
	fmt.Fprintf(s.out, "  %s %s\n", s.failure.Render("failed"), out.ErrorDetail)
}
