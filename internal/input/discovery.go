// Package input discovers prompt / image-URL / frame-count file triplets.
// Files are matched by natural sort order across the three directories,
// not by filename: the first prompt pairs with the first image URL and
// the first frame count.
package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/natsort"
)

// Static errors for input discovery.
var (
	// ErrNoInputFiles is returned when a required input directory holds
	// no text files.
	ErrNoInputFiles = errors.New("input: no input files found")
	// ErrCountMismatch is returned when the three directories hold
	// different numbers of files.
	ErrCountMismatch = errors.New("input: file count mismatch")
)

// Triplet is one matched set of input files.
type Triplet struct {
	PromptFile string
	ImageFile  string
	FramesFile string
}

// Stem returns the prompt file's name without extension, used to label
// the work item and its output directory.
func (t Triplet) Stem() string {
	base := filepath.Base(t.PromptFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Data is the loaded content of one triplet.
type Data struct {
	Prompt   string
	ImageURL string
	Frames   int
}

// DiscoverTriplets matches the text files of the three input directories
// by natural sort order. All three directories must hold the same number
// of *.txt files.
func DiscoverTriplets(promptDir, imageDir, framesDir string) ([]Triplet, error) {
	prompts, err := listTextFiles(promptDir)
	if err != nil {
		return nil, err
	}
	images, err := listTextFiles(imageDir)
	if err != nil {
		return nil, err
	}
	frames, err := listTextFiles(framesDir)
	if err != nil {
		return nil, err
	}

	if len(prompts) != len(images) || len(prompts) != len(frames) {
		return nil, fmt.Errorf("%w: %d prompts, %d image URLs, %d frame counts",
			ErrCountMismatch, len(prompts), len(images), len(frames))
	}

	triplets := make([]Triplet, len(prompts))
	for i := range prompts {
		triplets[i] = Triplet{
			PromptFile: prompts[i],
			ImageFile:  images[i],
			FramesFile: frames[i],
		}
	}
	return triplets, nil
}

// Load reads and validates the triplet's content.
func (t Triplet) Load() (Data, error) {
	prompt, err := readTrimmed(t.PromptFile)
	if err != nil {
		return Data{}, err
	}
	if prompt == "" {
		return Data{}, fmt.Errorf("input: empty prompt file %s", t.PromptFile)
	}

	imageURL, err := readTrimmed(t.ImageFile)
	if err != nil {
		return Data{}, err
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return Data{}, fmt.Errorf("input: invalid URL in %s: %q", t.ImageFile, imageURL)
	}

	framesStr, err := readTrimmed(t.FramesFile)
	if err != nil {
		return Data{}, err
	}
	frames, err := strconv.Atoi(framesStr)
	if err != nil {
		return Data{}, fmt.Errorf("input: invalid frame count in %s: %w", t.FramesFile, err)
	}
	if frames < 1 {
		return Data{}, fmt.Errorf("input: frame count must be at least 1 in %s, got %d", t.FramesFile, frames)
	}

	return Data{Prompt: prompt, ImageURL: imageURL, Frames: frames}, nil
}

// listTextFiles returns the directory's *.txt files as full paths in
// natural sort order.
func listTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("input: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, dir)
	}
	natsort.Sort(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from directory listing
	if err != nil {
		return "", fmt.Errorf("input: read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
