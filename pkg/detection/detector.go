// Package detection provides fiducial tag detection using computer vision
package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// Sentinel errors for detector construction.
var (
	// ErrUnknownFamily is returned for a tag family the engine does not know.
	ErrUnknownFamily = errors.New("detection: unknown tag family")

	// ErrInvalidMarginBits is returned when the margin is outside 1..MaxMarginBits.
	ErrInvalidMarginBits = errors.New("detection: invalid margin bits")

	// ErrClosed is returned when detecting with a closed detector.
	ErrClosed = errors.New("detection: detector closed")
)

// Tag family identifiers
const (
	FamilyTag16h5  = "tag16h5"
	FamilyTag25h9  = "tag25h9"
	FamilyTag36h10 = "tag36h10"
	FamilyTag36h11 = "tag36h11"
	FamilyAruco4x4 = "aruco4x4_50"
)

// MaxMarginBits is the widest quiet-zone border accepted.
const MaxMarginBits = 4

// Detector is the interface for tag detection backends
type Detector interface {
	// Detect finds tags in a luminance image. An image without tags yields
	// an empty slice and a nil error. img is not modified.
	Detect(img *image.Gray) ([]tag.Observation, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	Family     string `yaml:"family" json:"family"`           // Tag family bit pattern
	MarginBits int    `yaml:"margin_bits" json:"margin_bits"` // Border width in bits around the code
}

// DefaultConfig returns the 16h5 family with a one bit margin
func DefaultConfig() Config {
	return Config{
		Family:     FamilyTag16h5,
		MarginBits: 1,
	}
}

// Families returns the supported family identifiers.
func Families() []string {
	return []string{FamilyTag16h5, FamilyTag25h9, FamilyTag36h10, FamilyTag36h11, FamilyAruco4x4}
}

// Validate checks the family and margin.
func (c Config) Validate() error {
	known := false
	for _, f := range Families() {
		if f == c.Family {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownFamily, c.Family)
	}
	if c.MarginBits < 1 || c.MarginBits > MaxMarginBits {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidMarginBits, c.MarginBits, MaxMarginBits)
	}
	return nil
}

// Candidate is a raw engine result before normalisation.
type Candidate struct {
	ID      int
	Corners []tag.Point
}

// Normalize converts engine candidates into observations, keeping the engine
// order. Candidates without exactly four corners are dropped.
func Normalize(family string, cands []Candidate) []tag.Observation {
	obs := make([]tag.Observation, 0, len(cands))
	for _, c := range cands {
		if len(c.Corners) != 4 {
			continue
		}
		var corners [4]tag.Point
		copy(corners[:], c.Corners)
		obs = append(obs, tag.Observation{
			ID:      c.ID,
			Family:  family,
			Corners: corners,
			Center:  tag.CenterOf(corners),
		})
	}
	return obs
}
