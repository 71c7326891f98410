// Package main provides a standalone cost estimator. It reads the same
// triplets and profiles as the generation CLI, computes what a full run
// would cost per profile, and writes cost_estimate.md without ever talking
// to the generation service. No API token is needed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/config"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/cost"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/duration"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/input"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/profile"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	profiles, err := profile.LoadDir(cfg.ProfilesDir())
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	triplets, err := input.DiscoverTriplets(cfg.PromptDir(), cfg.ImageURLDir(), cfg.FramesDir())
	if err != nil {
		return fmt.Errorf("discover inputs: %w", err)
	}

	logger.Info("estimating costs",
		slog.Int("triplets", len(triplets)),
		slog.Int("profiles", len(profiles)),
	)

	est, err := estimate(profiles, triplets)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStore(cfg.OutputDir(), "estimate")
	if err != nil {
		return err
	}

	path, err := store.WriteFile(context.Background(), "cost_estimate.md", strings.NewReader(est.render()))
	if err != nil {
		return fmt.Errorf("write estimate report: %w", err)
	}

	logger.Info("cost estimate written", slog.String("path", path))
	for _, pc := range est.perProfile {
		logger.Info("profile estimate",
			slog.String("profile", pc.name),
			slog.Float64("total_cost", pc.total),
		)
	}
	return nil
}

type frameCount struct {
	stem   string
	frames int
}

type profileCost struct {
	name     string
	model    string
	total    float64
	perVideo float64
}

type estimation struct {
	counts      []frameCount
	totalFrames int
	perProfile  []profileCost
}

// estimate sums per-item costs for every profile, applying the same
// duration clamping the generation run would.
func estimate(profiles []*profile.Profile, triplets []input.Triplet) (*estimation, error) {
	est := &estimation{}

	frames := make([]int, 0, len(triplets))
	for _, t := range triplets {
		data, err := t.Load()
		if err != nil {
			return nil, fmt.Errorf("load input %s: %w", t.Stem(), err)
		}
		frames = append(frames, data.Frames)
		est.counts = append(est.counts, frameCount{stem: t.Stem(), frames: data.Frames})
		est.totalFrames += data.Frames
	}

	for _, p := range profiles {
		var total float64
		for _, f := range frames {
			adjusted, _, err := duration.Process(f, p.Duration)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			c, err := cost.ForDuration(p, adjusted)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			total += c
		}

		perVideo := 0.0
		if len(frames) > 0 {
			perVideo = total / float64(len(frames))
		}
		est.perProfile = append(est.perProfile, profileCost{
			name:     p.DisplayName(),
			model:    p.Model.Endpoint,
			total:    total,
			perVideo: perVideo,
		})
	}

	return est, nil
}

func (e *estimation) render() string {
	var b strings.Builder
	b.WriteString("# Cost Estimation Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Input Summary\n\n")
	fmt.Fprintf(&b, "- **Total Videos:** %d\n", len(e.counts))
	fmt.Fprintf(&b, "- **Total Frames:** %d\n", e.totalFrames)
	if len(e.counts) > 0 {
		fmt.Fprintf(&b, "- **Average Frames per Video:** %.0f\n", float64(e.totalFrames)/float64(len(e.counts)))
	}
	b.WriteString("\n")

	b.WriteString("## Frame Distribution\n\n")
	b.WriteString("| Video | Frames |\n")
	b.WriteString("|-------|--------|\n")
	for _, c := range e.counts {
		fmt.Fprintf(&b, "| %s | %d |\n", c.stem, c.frames)
	}
	fmt.Fprintf(&b, "| **TOTAL** | **%d** |\n\n", e.totalFrames)

	b.WriteString("## Cost by Profile\n\n")
	b.WriteString("| Profile | Model | Total Cost | Avg Cost/Video |\n")
	b.WriteString("|---------|-------|------------|----------------|\n")
	for _, pc := range e.perProfile {
		fmt.Fprintf(&b, "| %s | %s | **$%.4f** | $%.4f |\n", pc.name, pc.model, pc.total, pc.perVideo)
	}

	b.WriteString("\n## Notes\n\n")
	b.WriteString("- This is an estimate based on configured profiles\n")
	b.WriteString("- Actual costs may vary if generation fails or retries are needed\n")
	return b.String()
}
