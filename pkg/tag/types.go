// Package tag defines fiducial tag observations, poses and camera intrinsics,
// plus the overlay geometry derived from a tag's corners.
package tag

import "math"

// Point is a sub-pixel image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Corner indices. Corners are ordered top-left, top-right, bottom-right,
// bottom-left in image coordinates (y grows downward).
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Observation is one decoded tag in one frame.
type Observation struct {
	ID      int      `json:"id"`
	Family  string   `json:"family"`
	Corners [4]Point `json:"corners"`
	Center  Point    `json:"center"`

	// Hamming is the number of corrected bits. Lower is better.
	// Only meaningful when Reported is true.
	Hamming int `json:"hamming"`

	// DecisionMargin is the decoder's confidence margin. Engines that do not
	// measure decode confidence leave it 0, which means "not reported".
	DecisionMargin float64 `json:"decision_margin"`
}

// Reported reports whether the engine supplied decode confidence.
func (o Observation) Reported() bool {
	return o.DecisionMargin > 0
}

// Intrinsics holds the pinhole camera parameters and the physical tag size
// used for pose estimation.
type Intrinsics struct {
	TagSize float64 `yaml:"tag_size" json:"tag_size"` // Edge length, output translation uses the same unit
	Fx      float64 `yaml:"fx" json:"fx"`             // Focal length x (pixels)
	Fy      float64 `yaml:"fy" json:"fy"`             // Focal length y (pixels)
	Cx      float64 `yaml:"cx" json:"cx"`             // Principal point x (pixels)
	Cy      float64 `yaml:"cy" json:"cy"`             // Principal point y (pixels)
}

// DefaultIntrinsics returns the fixed parameters the detector has always run with.
func DefaultIntrinsics() Intrinsics {
	return Intrinsics{
		TagSize: 1.0,
		Fx:      2.1,
		Fy:      2.2,
		Cx:      4.0,
		Cy:      5.0,
	}
}

// Pose is a tag's rotation and translation in the camera frame.
type Pose struct {
	Rotation    [3][3]float64 `json:"rotation"`
	Translation [3]float64    `json:"translation"`

	// Error is the mean squared reprojection error of the corners (pixels²).
	Error float64 `json:"error"`
}

// Distance returns the Euclidean norm of the translation.
func (p Pose) Distance() float64 {
	t := p.Translation
	return math.Sqrt(t[0]*t[0] + t[1]*t[1] + t[2]*t[2])
}

// CenterOf returns the intersection of the quad's diagonals (0-2 and 1-3),
// which is where the tag centre projects under perspective. Falls back to the
// corner mean when the diagonals are parallel.
func CenterOf(c [4]Point) Point {
	// Solve c0 + s*(c2-c0) = c1 + u*(c3-c1) for s.
	d1x, d1y := c[2].X-c[0].X, c[2].Y-c[0].Y
	d2x, d2y := c[3].X-c[1].X, c[3].Y-c[1].Y
	den := d1x*d2y - d1y*d2x
	if math.Abs(den) < 1e-12 {
		return Point{
			X: (c[0].X + c[1].X + c[2].X + c[3].X) / 4,
			Y: (c[0].Y + c[1].Y + c[2].Y + c[3].Y) / 4,
		}
	}
	ox, oy := c[1].X-c[0].X, c[1].Y-c[0].Y
	s := (ox*d2y - oy*d2x) / den
	return Point{X: c[0].X + s*d1x, Y: c[0].Y + s*d1y}
}

// Area returns the absolute area of the quad (shoelace formula).
func Area(c [4]Point) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}
