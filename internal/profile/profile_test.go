package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfile = `
model:
  endpoint: wavespeedai/wan-2.1-i2v-480p
  nickname: wan480
pricing:
  cost_per_frame: 0.0025
duration:
  type: frames
  fps: 16
  min: 81
  max: 241
  param_name: num_frames
params:
  resolution: 480p
  sample_shift: 3
`

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "wan-480p.yaml", validProfile)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wan-480p", p.Name)
	assert.Equal(t, "wavespeedai/wan-2.1-i2v-480p", p.Model.Endpoint)
	assert.Equal(t, "wan480", p.DisplayName())
	assert.Equal(t, DurationFrames, p.Duration.Type)
	assert.Equal(t, 16, p.Duration.FPS)
	assert.Equal(t, "num_frames", p.Duration.ParamName)
	assert.Equal(t, "480p", p.Params["resolution"])
	assert.InDelta(t, 0.0025, p.Pricing.CostPerFrame, 1e-9)
}

func TestLoad_MissingEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "bad.yaml", `
model:
  nickname: broken
pricing:
  cost_per_frame: 0.0025
duration:
  type: frames
  fps: 16
  max: 241
  param_name: num_frames
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidDurationType(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "bad.yaml", `
model:
  endpoint: owner/model
pricing:
  cost_per_frame: 0.0025
duration:
  type: minutes
  fps: 16
  max: 10
  param_name: duration
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_NoPricing(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "free.yaml", `
model:
  endpoint: owner/model
duration:
  type: frames
  fps: 16
  max: 241
  param_name: num_frames
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrNoPricing)
}

func TestLoad_MaxBelowMin(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "bad.yaml", `
model:
  endpoint: owner/model
pricing:
  cost_per_frame: 0.0025
duration:
  type: frames
  fps: 16
  min: 100
  max: 50
  param_name: num_frames
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestDisplayName_FallsBackToStem(t *testing.T) {
	p := &Profile{Name: "wan-480p"}
	assert.Equal(t, "wan-480p", p.DisplayName())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "10.cheap.yaml", validProfile)
	writeProfile(t, dir, "2.premium.yml", validProfile)
	writeProfile(t, dir, "notes.txt", "ignore me")

	profiles, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	// Natural sort: 2 before 10.
	assert.Equal(t, "2.premium", profiles[0].Name)
	assert.Equal(t, "10.cheap", profiles[1].Name)
}

func TestLoadDir_Empty(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDir(dir)
	require.ErrorIs(t, err, ErrNoProfiles)
}

func TestLoadDir_PropagatesInvalidProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "ok.yaml", validProfile)
	writeProfile(t, dir, "broken.yaml", "model: [not, a, mapping]")

	_, err := LoadDir(dir)
	require.Error(t, err)
}
