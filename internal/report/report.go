// Package report renders markdown summaries of a batch run: the overall
// success or failure report, the cost breakdown, the duration adjustments
// report, and a per-item generation document.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/batch"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/duration"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/profile"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/storage"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteRunReport writes SUCCESS.md when every item succeeded, otherwise
// FAILURE.md with a per-item failure listing. It returns the report path.
func WriteRunReport(ctx context.Context, store storage.Store, result *batch.Result) (string, error) {
	total := result.Total()
	allOK := result.Failed == 0 && total > 0

	var b strings.Builder
	if allOK {
		b.WriteString("# Video Generation Report - SUCCESS\n\n")
	} else {
		b.WriteString("# Video Generation Report - FAILURE\n\n")
	}

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Date**: %s\n", time.Now().Format(timestampLayout))
	fmt.Fprintf(&b, "- **Total Videos**: %d\n", total)
	fmt.Fprintf(&b, "- **Successful**: %d\n", result.Succeeded)
	fmt.Fprintf(&b, "- **Failed**: %d\n", result.Failed)
	fmt.Fprintf(&b, "- **Elapsed**: %s\n", result.Finished.Sub(result.Started).Round(time.Second))
	fmt.Fprintf(&b, "- **Total Cost**: $%.2f\n\n", result.TotalCost)

	b.WriteString("## Output Location\n")
	fmt.Fprintf(&b, "%s\n\n", store.RunDir())

	if allOK {
		b.WriteString("## Status\n")
		b.WriteString("All videos generated successfully.\n")
	} else {
		b.WriteString("## Failures\n")
		for _, o := range result.Outcomes {
			if o.Succeeded() {
				continue
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", o.Item.Name, o.ErrorDetail)
		}
		b.WriteString("\n## Next Steps\n")
		b.WriteString("1. Check the run log for error details\n")
		b.WriteString("2. Verify profile configuration\n")
		b.WriteString("3. Confirm API access and quotas\n")
		b.WriteString("4. Re-run after fixing issues\n")
	}

	name := "FAILURE.md"
	if allOK {
		name = "SUCCESS.md"
	}
	return store.WriteFile(ctx, name, strings.NewReader(b.String()))
}

// WriteCostReport writes cost_report.md with per-item and total costs.
func WriteCostReport(ctx context.Context, store storage.Store, result *batch.Result) (string, error) {
	var b strings.Builder
	b.WriteString("# Cost Report\n\n")
	b.WriteString("## Video Generation Costs\n\n")
	b.WriteString("| Item | Status | Cost |\n")
	b.WriteString("|------|--------|------|\n")
	for _, o := range result.Outcomes {
		status := "failed"
		if o.Succeeded() {
			status = "succeeded"
		}
		fmt.Fprintf(&b, "| %s | %s | $%.4f |\n", o.Item.Name, status, o.Cost)
	}
	b.WriteString("\n")

	succeeded := result.Succeeded
	if succeeded < 1 {
		succeeded = 1
	}
	fmt.Fprintf(&b, "- Videos generated: %d\n", result.Succeeded)
	fmt.Fprintf(&b, "- Average cost per video: $%.4f\n", result.TotalCost/float64(succeeded))
	fmt.Fprintf(&b, "- **Total cost: $%.2f**\n\n", result.TotalCost)

	b.WriteString("## Notes\n")
	b.WriteString("- Pricing is determined by profile configuration\n")
	b.WriteString("- Failed attempts are not charged\n")
	b.WriteString("- Costs are in USD\n")

	return store.WriteFile(ctx, "cost_report.md", strings.NewReader(b.String()))
}

// ItemAdjustment records a duration adjustment applied to one work item.
type ItemAdjustment struct {
	ItemName    string
	ProfileName string
	Adjustment  duration.Adjustment
}

// WriteAdjustments writes ADJUSTMENTS.md listing every duration change made
// while preparing the batch. When no adjustments applied it writes nothing
// and returns an empty path.
func WriteAdjustments(ctx context.Context, store storage.Store, adjs []ItemAdjustment, totalProcessed int) (string, error) {
	var applied []ItemAdjustment
	for _, a := range adjs {
		if a.Adjustment.Applied() {
			applied = append(applied, a)
		}
	}
	if len(applied) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("# Duration Adjustments Report\n\n")
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total files processed: %d\n", totalProcessed)
	fmt.Fprintf(&b, "- Files with adjustments: %d\n", len(applied))
	fmt.Fprintf(&b, "- Files processed as-is: %d\n\n", totalProcessed-len(applied))

	b.WriteString("## Adjustments Detail\n")
	for _, a := range applied {
		adj := a.Adjustment
		fmt.Fprintf(&b, "\n### %s\n", a.ItemName)
		fmt.Fprintf(&b, "- Profile: %s\n", a.ProfileName)
		switch adj.Type {
		case profile.DurationSeconds:
			fmt.Fprintf(&b, "- Original: %d frames (%ds at %d fps)\n", adj.OriginalFrames, adj.OriginalSeconds, adj.FPS)
			fmt.Fprintf(&b, "- Adjusted: %d seconds\n", adj.Adjusted)
		default:
			fmt.Fprintf(&b, "- Original: %d frames\n", adj.OriginalFrames)
			fmt.Fprintf(&b, "- Adjusted: %d frames\n", adj.Adjusted)
		}
		fmt.Fprintf(&b, "- Reason: %s\n", adj.Reason)
	}

	return store.WriteFile(ctx, "ADJUSTMENTS.md", strings.NewReader(b.String()))
}

// ItemDoc holds everything needed to render one item's generation document.
type ItemDoc struct {
	Profile    *profile.Profile
	Prompt     string
	ImageURL   string
	Frames     int
	Cost       float64
	Adjustment duration.Adjustment
	OutputRef  string
	LocalPath  string
	Elapsed    time.Duration
}

// WriteItemDoc writes a per-item markdown document under the item's
// directory inside the run dir.
func WriteItemDoc(ctx context.Context, store storage.Store, itemName string, doc ItemDoc) (string, error) {
	var b strings.Builder
	b.WriteString("# Video Generation Report\n\n")

	b.WriteString("## Generation Details\n")
	fmt.Fprintf(&b, "- **Generated**: %s\n", time.Now().Format(timestampLayout))
	fmt.Fprintf(&b, "- **Profile**: %s\n", doc.Profile.DisplayName())
	fmt.Fprintf(&b, "- **Model**: %s\n", doc.Profile.Model.Endpoint)
	fmt.Fprintf(&b, "- **Cost**: $%.4f\n", doc.Cost)
	fmt.Fprintf(&b, "- **Elapsed**: %s\n\n", doc.Elapsed.Round(time.Second))

	b.WriteString("## Input Data\n\n")
	b.WriteString("### Motion Prompt\n")
	fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimSpace(doc.Prompt))
	b.WriteString("### Source Image\n")
	fmt.Fprintf(&b, "- **URL**: %s\n\n", doc.ImageURL)

	b.WriteString("### Duration\n")
	fmt.Fprintf(&b, "- **Original Frames**: %d\n", doc.Frames)
	if doc.Adjustment.Applied() {
		fmt.Fprintf(&b, "- **Adjusted**: %d (%s)\n", doc.Adjustment.Adjusted, doc.Adjustment.Type)
		fmt.Fprintf(&b, "- **Adjustment Reason**: %s\n", doc.Adjustment.Reason)
	}
	fmt.Fprintf(&b, "- **FPS**: %d\n", doc.Profile.Duration.FPS)
	fmt.Fprintf(&b, "- **Duration Type**: %s\n\n", doc.Profile.Duration.Type)

	b.WriteString("## Output Files\n")
	fmt.Fprintf(&b, "- **Video**: `%s`\n", doc.LocalPath)
	fmt.Fprintf(&b, "- **Video URL**: %s\n", doc.OutputRef)

	rel := itemName + "/generation.md"
	return store.WriteFile(ctx, rel, strings.NewReader(b.String()))
}
