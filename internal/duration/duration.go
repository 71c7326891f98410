// Package duration converts requested frame counts into each model's
// duration parameter and clamps them to the profile's bounds.
package duration

import (
	"fmt"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/profile"
)

// Adjustment records a duration change made to satisfy a profile's
// constraints. A zero Reason means the request went through as-is.
type Adjustment struct {
	// Type mirrors the profile's duration type: "frames" or "seconds".
	Type string
	// OriginalFrames is the frame count from the input file.
	OriginalFrames int
	// OriginalSeconds is the converted value before clamping. Only set
	// for seconds-typed profiles.
	OriginalSeconds int
	// Adjusted is the value actually submitted.
	Adjusted int
	// FPS is the conversion rate used. Only set for seconds-typed profiles.
	FPS int
	// Reason explains the clamp, empty when nothing changed.
	Reason string
}

// Applied reports whether the duration was changed.
func (a Adjustment) Applied() bool {
	return a.Reason != ""
}

// Process maps a requested frame count onto the profile's duration value.
// Frames-typed profiles clamp the frame count directly; seconds-typed
// profiles convert at the configured FPS, rounding up, then clamp.
func Process(frames int, cfg profile.DurationConfig) (int, Adjustment, error) {
	switch cfg.Type {
	case profile.DurationFrames:
		return processFrames(frames, cfg)
	case profile.DurationSeconds:
		return processSeconds(frames, cfg)
	default:
		return 0, Adjustment{}, fmt.Errorf("duration: invalid type %q", cfg.Type)
	}
}

func processFrames(frames int, cfg profile.DurationConfig) (int, Adjustment, error) {
	adj := Adjustment{
		Type:           profile.DurationFrames,
		OriginalFrames: frames,
		Adjusted:       frames,
	}
	switch {
	case frames < cfg.Min:
		adj.Adjusted = cfg.Min
		adj.Reason = fmt.Sprintf("below minimum (%d frames)", cfg.Min)
	case frames > cfg.Max:
		adj.Adjusted = cfg.Max
		adj.Reason = fmt.Sprintf("exceeded maximum (%d frames)", cfg.Max)
	}
	return adj.Adjusted, adj, nil
}

func processSeconds(frames int, cfg profile.DurationConfig) (int, Adjustment, error) {
	seconds := ceilDiv(frames, cfg.FPS)
	adj := Adjustment{
		Type:            profile.DurationSeconds,
		OriginalFrames:  frames,
		OriginalSeconds: seconds,
		Adjusted:        seconds,
		FPS:             cfg.FPS,
	}
	switch {
	case seconds < cfg.Min:
		adj.Adjusted = cfg.Min
		adj.Reason = fmt.Sprintf("below minimum (%d seconds)", cfg.Min)
	case seconds > cfg.Max:
		adj.Adjusted = cfg.Max
		adj.Reason = fmt.Sprintf("exceeded maximum (%d seconds)", cfg.Max)
	}
	return adj.Adjusted, adj, nil
}

// ceilDiv rounds the frames/fps quotient up to whole seconds.
func ceilDiv(frames, fps int) int {
	if fps <= 0 {
		return 0
	}
	return (frames + fps - 1) / fps
}
