// Package profile loads and validates model profile documents. A profile
// names a generation endpoint, its pricing, its duration constraints, and
// the free-form parameters passed to the model.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/natsort"
)

// Static errors for profile loading.
var (
	// ErrNoProfiles is returned when the profiles directory contains no
	// profile documents.
	ErrNoProfiles = errors.New("profile: no profile files found")
	// ErrNoPricing is returned when a profile declares no pricing field.
	ErrNoPricing = errors.New("profile: at least one pricing field is required")
)

// Duration type values.
const (
	DurationFrames  = "frames"
	DurationSeconds = "seconds"
)

// Model identifies the remote generation endpoint.
type Model struct {
	// Endpoint is the model identifier, e.g. "wavespeedai/wan-2.1-i2v-480p".
	Endpoint string `yaml:"endpoint" validate:"required"`
	// Nickname is a short label for directory and report names.
	Nickname string `yaml:"nickname"`
}

// Pricing declares how generations with this profile are charged. At
// least one field must be set.
type Pricing struct {
	CostPerSecond     float64 `yaml:"cost_per_second" validate:"gte=0"`
	CostPerFrame      float64 `yaml:"cost_per_frame" validate:"gte=0"`
	CostPerPrediction float64 `yaml:"cost_per_prediction" validate:"gte=0"`
}

// DurationConfig constrains how the requested frame count maps onto the
// model's duration parameter.
type DurationConfig struct {
	// Type is "frames" or "seconds". Seconds-typed models get the frame
	// count converted (rounded up) before submission.
	Type string `yaml:"type" validate:"required,oneof=frames seconds"`
	// FPS is the frame rate used for frames/seconds conversion.
	FPS int `yaml:"fps" validate:"required,gt=0"`
	// Min and Max bound the duration value; out-of-range requests are
	// clamped and reported as adjustments.
	Min int `yaml:"min" validate:"gte=0"`
	Max int `yaml:"max" validate:"required,gt=0,gtefield=Min"`
	// ParamName is the request parameter carrying the duration value,
	// e.g. "num_frames", "duration", "seconds".
	ParamName string `yaml:"param_name" validate:"required"`
}

// Profile is one validated model profile.
type Profile struct {
	// Name is the profile file stem, set by the loader.
	Name string `yaml:"-"`

	Model    Model          `yaml:"model" validate:"required"`
	Pricing  Pricing        `yaml:"pricing"`
	Duration DurationConfig `yaml:"duration" validate:"required"`
	// Params are passed to the model verbatim, before the duration
	// parameter is merged in.
	Params map[string]any `yaml:"params"`
}

// DisplayName returns the nickname when set, the file stem otherwise.
func (p *Profile) DisplayName() string {
	if p.Model.Nickname != "" {
		return p.Model.Nickname
	}
	return p.Name
}

var validate = validator.New()

// Load reads and validates a single profile document.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from directory listing
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("profile: invalid %s: %w", path, err)
	}
	if p.Pricing.CostPerSecond <= 0 && p.Pricing.CostPerFrame <= 0 && p.Pricing.CostPerPrediction <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPricing, path)
	}

	return p, nil
}

// LoadDir loads every profile document in dir (*.yaml, *.yml) in natural
// sort order. Returns ErrNoProfiles if the directory holds none.
func LoadDir(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("profile: read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoProfiles, dir)
	}
	natsort.Sort(files)

	profiles := make([]*Profile, 0, len(files))
	for _, name := range files {
		p, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
