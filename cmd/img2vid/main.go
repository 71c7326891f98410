// Package main provides the entry point for the batch image-to-video
// generation CLI. It reads prompt/image/frames triplets and generation
// profiles from the user files directory, runs every triplet through every
// profile sequentially, downloads the finished videos, and writes run
// reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/batch"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/bootstrap"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/config"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/cost"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/duration"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/input"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/profile"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/report"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	profiles, err := profile.LoadDir(cfg.ProfilesDir())
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	triplets, err := input.DiscoverTriplets(cfg.PromptDir(), cfg.ImageURLDir(), cfg.FramesDir())
	if err != nil {
		return fmt.Errorf("discover inputs: %w", err)
	}

	logger.Info("inputs discovered",
		slog.Int("triplets", len(triplets)),
		slog.Int("profiles", len(profiles)),
	)

	pl, err := buildPlan(profiles, triplets)
	if err != nil {
		return err
	}

	label := ""
	if len(profiles) == 1 {
		label = profiles[0].DisplayName()
	}
	store, err := bootstrap.NewStore(cfg, label, logger)
	if err != nil {
		return err
	}
	logger.Info("run directory created", slog.String("dir", store.RunDir()))

	seq := batch.NewSequencer(deps.Engine,
		batch.WithSink(newSink(cfg, logger)),
		batch.WithSequencerLogger(logger),
		batch.WithCostFunc(func(item engine.WorkItem) float64 {
			return pl.meta[item.Name].cost
		}),
		batch.WithPersistFunc(newPersistFunc(deps, store, pl, cfg.S3Enabled(), logger)),
	)

	result, runErr := seq.Run(ctx, pl.items)

	// Write reports for whatever finished, even after an abort. A canceled
	// context must not stop the report from landing on disk.
	if result != nil && result.Total() > 0 {
		writeReports(context.Background(), store, result, pl, logger)
	}

	if runErr != nil {
		return fmt.Errorf("batch run: %w", runErr)
	}
	logger.Info("batch complete",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Float64("total_cost", result.TotalCost),
	)
	return nil
}

// planItem carries the per-item data the sequencer callbacks need but the
// engine does not: the profile, the loaded triplet, and the duration math.
type planItem struct {
	profile    *profile.Profile
	data       input.Data
	stem       string
	adjusted   int
	adjustment duration.Adjustment
	cost       float64
}

type plan struct {
	items       []engine.WorkItem
	meta        map[string]planItem
	adjustments []report.ItemAdjustment
}

// buildPlan expands the triplet x profile matrix into work items. Every
// input is loaded and validated before anything is submitted, so a bad
// frames file fails the run up front instead of mid-batch.
func buildPlan(profiles []*profile.Profile, triplets []input.Triplet) (*plan, error) {
	pl := &plan{meta: make(map[string]planItem)}

	for _, t := range triplets {
		data, err := t.Load()
		if err != nil {
			return nil, fmt.Errorf("load input %s: %w", t.Stem(), err)
		}

		for _, p := range profiles {
			adjusted, adj, err := duration.Process(data.Frames, p.Duration)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			itemCost, err := cost.ForDuration(p, adjusted)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}

			name := t.Stem() + "_X_" + p.Name

			params := map[string]any{
				"image":  data.ImageURL,
				"prompt": data.Prompt,
			}
			for k, v := range p.Params {
				params[k] = v
			}
			params[p.Duration.ParamName] = adjusted

			pl.items = append(pl.items, engine.WorkItem{
				Name:     name,
				ImageURL: data.ImageURL,
				Prompt:   data.Prompt,
				Frames:   data.Frames,
				Request: engine.GenerationRequest{
					Model: p.Model.Endpoint,
					Input: params,
				},
			})
			pl.meta[name] = planItem{
				profile:    p,
				data:       data,
				stem:       t.Stem(),
				adjusted:   adjusted,
				adjustment: adj,
				cost:       itemCost,
			}
			pl.adjustments = append(pl.adjustments, report.ItemAdjustment{
				ItemName:    name,
				ProfileName: p.DisplayName(),
				Adjustment:  adj,
			})
		}
	}

	return pl, nil
}

// newSink picks the progress display from config.
func newSink(cfg *config.Config, logger *slog.Logger) batch.Sink {
	switch cfg.DisplayMode {
	case config.DisplayPlain:
		return batch.NopSink{}
	case config.DisplayConsole:
		return batch.NewConsoleSink(logger)
	default:
		return batch.NewRichSink(os.Stdout)
	}
}

// newPersistFunc returns the hook the sequencer calls for every succeeded
// item: download the video next to its generation document and, when S3 is
// configured, publish a copy.
func newPersistFunc(deps *bootstrap.Dependencies, store storage.Store, pl *plan, s3 bool, logger *slog.Logger) batch.PersistFunc {
	return func(ctx context.Context, item engine.WorkItem, h *engine.JobHandle) (string, error) {
		meta := pl.meta[item.Name]
		dest := filepath.Join(store.RunDir(), item.Name, meta.stem+".mp4")

		if err := deps.Downloader.Fetch(ctx, h.OutputRef, dest); err != nil {
			return "", fmt.Errorf("download video: %w", err)
		}

		doc := report.ItemDoc{
			Profile:    meta.profile,
			Prompt:     meta.data.Prompt,
			ImageURL:   meta.data.ImageURL,
			Frames:     meta.data.Frames,
			Cost:       meta.cost,
			Adjustment: meta.adjustment,
			OutputRef:  h.OutputRef,
			LocalPath:  dest,
			Elapsed:    h.Elapsed(),
		}
		if _, err := report.WriteItemDoc(ctx, store, item.Name, doc); err != nil {
			return "", fmt.Errorf("write generation document: %w", err)
		}

		if s3 {
			if err := publishVideo(ctx, store, item.Name, meta.stem, dest, logger); err != nil {
				// The video is safe on disk; delivery failure should not
				// flip the item to failed.
				logger.Warn("S3 publish failed",
					slog.String("item", item.Name),
					slog.String("error", err.Error()),
				)
			}
		}

		return dest, nil
	}
}

func publishVideo(ctx context.Context, store storage.Store, itemName, stem, path string, logger *slog.Logger) error {
	f, err := os.Open(path) // #nosec G304 - path is inside the run directory
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := store.Publish(ctx, itemName+"/"+stem+".mp4", f)
	if err != nil {
		return err
	}
	logger.Info("video published", slog.String("url", url))
	return nil
}

func writeReports(ctx context.Context, store storage.Store, result *batch.Result, pl *plan, logger *slog.Logger) {
	if path, err := report.WriteRunReport(ctx, store, result); err != nil {
		logger.Error("write run report", slog.String("error", err.Error()))
	} else {
		logger.Info("run report written", slog.String("path", path))
	}

	if _, err := report.WriteCostReport(ctx, store, result); err != nil {
		logger.Error("write cost report", slog.String("error", err.Error()))
	}

	if _, err := report.WriteAdjustments(ctx, store, pl.adjustments, result.Total()); err != nil {
		logger.Error("write adjustments report", slog.String("error", err.Error()))
	}
}
