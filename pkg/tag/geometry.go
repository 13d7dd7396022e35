package tag

import (
	"image"
	"math"
)

// Segment is a line between two pixel positions.
type Segment struct {
	From image.Point `json:"from"`
	To   image.Point `json:"to"`
}

// Overlay is the drawable geometry for one observation.
type Overlay struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Box    image.Rectangle `json:"box"`
	Edges  [4]Segment      `json:"edges"`
	Center image.Point     `json:"center"`
}

// Extract computes the overlay geometry of an observation.
func Extract(obs Observation) Overlay {
	return ExtractCorners(obs.Corners, obs.Center)
}

// ExtractCorners computes the bounding box and edge segments from four
// ordered corners and a centre point.
//
// Width is taken from corners 2 and 3 (bottom edge) and height from corners
// 0 and 3 (left edge); the box is centred on center. The edges are emitted as
// (0,1), (0,3), (3,2), (2,1).
func ExtractCorners(c [4]Point, center Point) Overlay {
	w := int(math.Abs(c[BottomRight].X - c[BottomLeft].X))
	h := int(math.Abs(c[TopLeft].Y - c[BottomLeft].Y))

	cx, cy := int(center.X), int(center.Y)
	minX, minY := cx-w/2, cy-h/2

	p := [4]image.Point{}
	for i, pt := range c {
		p[i] = image.Pt(int(pt.X), int(pt.Y))
	}

	return Overlay{
		Width:  w,
		Height: h,
		Box:    image.Rect(minX, minY, minX+w, minY+h),
		Edges: [4]Segment{
			{From: p[TopLeft], To: p[TopRight]},
			{From: p[TopLeft], To: p[BottomLeft]},
			{From: p[BottomLeft], To: p[BottomRight]},
			{From: p[BottomRight], To: p[TopRight]},
		},
		Center: image.Pt(cx, cy),
	}
}
