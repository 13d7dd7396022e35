package detection

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-fiducial/pkg/debug"
	"github.com/teslashibe/go-fiducial/pkg/tag"
)

var dictionaries = map[string]gocv.ArucoDictionaryCode{
	FamilyTag16h5:  gocv.ArucoDictAprilTag_16h5,
	FamilyTag25h9:  gocv.ArucoDictAprilTag_25h9,
	FamilyTag36h10: gocv.ArucoDictAprilTag_36h10,
	FamilyTag36h11: gocv.ArucoDictAprilTag_36h11,
	FamilyAruco4x4: gocv.ArucoDict4x4_50,
}

// ArucoDetector uses OpenCV's ArucoDetector with the AprilTag dictionaries
type ArucoDetector struct {
	detector gocv.ArucoDetector
	config   Config
	closed   bool
	mu       sync.Mutex // Protects inference
}

// NewAruco creates a detector for cfg.Family with cfg.MarginBits of border.
func NewAruco(cfg Config) (*ArucoDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	code, ok := dictionaries[cfg.Family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, cfg.Family)
	}

	params := gocv.NewArucoDetectorParameters()
	params.SetMarkerBorderBits(cfg.MarginBits)

	detector := gocv.NewArucoDetectorWithParams(gocv.GetPredefinedDictionary(code), params)

	return &ArucoDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Config returns the configuration the detector was built with.
func (d *ArucoDetector) Config() Config {
	return d.config
}

// Detect finds tags in the luminance image
func (d *ArucoDetector) Detect(img *image.Gray) ([]tag.Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	// The Mat owns a copy, img is left untouched.
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return []tag.Observation{}, nil
	}

	corners, ids, _ := d.detector.DetectMarkers(mat)

	cands := make([]Candidate, 0, len(ids))
	for i, id := range ids {
		if i >= len(corners) {
			break
		}
		pts := make([]tag.Point, len(corners[i]))
		for j, p := range corners[i] {
			pts[j] = tag.Pt(float64(p.X), float64(p.Y))
		}
		cands = append(cands, Candidate{ID: id, Corners: pts})
	}

	detections := Normalize(d.config.Family, cands)
	if len(detections) > 0 {
		debug.DetectLog("🏷️  %s found %d tag(s)\n", d.config.Family, len(detections))
	}

	return detections, nil
}

// Close releases the detector resources
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
