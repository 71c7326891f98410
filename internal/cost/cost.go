// Package cost prices generated videos from profile pricing. Pricing is
// charged on the output duration, not on compute time; failed attempts
// are not charged.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/profile"
)

// ErrNoPricing is returned when the profile declares no usable pricing
// for its duration type.
var ErrNoPricing = errors.New("cost: profile has no usable pricing")

// ForDuration computes the cost of one generation. durationValue is the
// adjusted duration in the profile's native unit (frames or seconds).
// Flat per-prediction pricing takes precedence; otherwise the matching
// per-unit rate applies, converting at the profile's FPS when the rate
// is declared in the other unit. Results round to 4 decimals (USD).
func ForDuration(p *profile.Profile, durationValue int) (float64, error) {
	pr := p.Pricing

	if pr.CostPerPrediction > 0 {
		return round4(pr.CostPerPrediction), nil
	}

	switch p.Duration.Type {
	case profile.DurationSeconds:
		if pr.CostPerSecond > 0 {
			return round4(pr.CostPerSecond * float64(durationValue)), nil
		}
		if pr.CostPerFrame > 0 {
			frames := durationValue * p.Duration.FPS
			return round4(pr.CostPerFrame * float64(frames)), nil
		}
	case profile.DurationFrames:
		if pr.CostPerFrame > 0 {
			return round4(pr.CostPerFrame * float64(durationValue)), nil
		}
		if pr.CostPerSecond > 0 {
			seconds := (durationValue + p.Duration.FPS - 1) / p.Duration.FPS
			return round4(pr.CostPerSecond * float64(seconds)), nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrNoPricing, p.Name)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
