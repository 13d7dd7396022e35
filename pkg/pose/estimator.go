// Package pose estimates a square tag's rotation and translation from its
// four image corners and the camera intrinsics.
//
// The estimator fits the plane-to-image homography of the tag with a
// normalised DLT, decomposes it with the intrinsics, and projects the
// rotation back onto SO(3). Degenerate corner sets produce no pose.
package pose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// ErrInvalidIntrinsics is returned for non-positive or non-finite parameters.
var ErrInvalidIntrinsics = errors.New("pose: invalid intrinsics")

const (
	// collinearTol bounds |sin| of the angle at any corner triple.
	collinearTol = 1e-6
	// rankTol is the smallest accepted ratio of the 8th to the 1st singular value.
	rankTol = 1e-10
)

// Tag-plane coordinates of the corners in units of half the tag size,
// matching tag.TopLeft..tag.BottomLeft with y pointing down.
var modelCorners = [4][2]float64{
	{-1, -1},
	{1, -1},
	{1, 1},
	{-1, 1},
}

// Estimator computes poses with fixed intrinsics.
type Estimator struct {
	in tag.Intrinsics
}

// NewEstimator validates the intrinsics and returns an estimator.
func NewEstimator(in tag.Intrinsics) (*Estimator, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"tag_size", in.TagSize}, {"fx", in.Fx}, {"fy", in.Fy}} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return nil, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidIntrinsics, f.name, f.v)
		}
	}
	if !finite(in.Cx) || !finite(in.Cy) {
		return nil, fmt.Errorf("%w: principal point must be finite", ErrInvalidIntrinsics)
	}
	return &Estimator{in: in}, nil
}

// Intrinsics returns the parameters the estimator was built with.
func (e *Estimator) Intrinsics() tag.Intrinsics {
	return e.in
}

// Estimate returns the pose of obs, or (nil, false) when the corners do not
// determine a stable solution.
func (e *Estimator) Estimate(obs tag.Observation) (*tag.Pose, bool) {
	c := obs.Corners
	if degenerate(c) {
		return nil, false
	}

	h, ok := homography(c)
	if !ok {
		return nil, false
	}

	return e.decompose(h, c)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func degenerate(c [4]tag.Point) bool {
	for _, p := range c {
		if !finite(p.X) || !finite(p.Y) {
			return true
		}
	}
	if tag.Area(c) < 1e-9 {
		return true
	}
	// Any three corners on a line leave the homography underdetermined.
	for i := 0; i < 4; i++ {
		a, b, d := c[i], c[(i+1)%4], c[(i+2)%4]
		abx, aby := b.X-a.X, b.Y-a.Y
		adx, ady := d.X-a.X, d.Y-a.Y
		la, lb := math.Hypot(abx, aby), math.Hypot(adx, ady)
		if la == 0 || lb == 0 {
			return true
		}
		if math.Abs(abx*ady-aby*adx)/(la*lb) < collinearTol {
			return true
		}
	}
	return false
}

// homography solves image ~ H * model for the four corners.
func homography(c [4]tag.Point) (*mat.Dense, bool) {
	// Hartley normalisation of the image points.
	var mx, my float64
	for _, p := range c {
		mx += p.X
		my += p.Y
	}
	mx /= 4
	my /= 4
	var dist float64
	for _, p := range c {
		dist += math.Hypot(p.X-mx, p.Y-my)
	}
	dist /= 4
	if dist == 0 {
		return nil, false
	}
	s := math.Sqrt2 / dist

	a := mat.NewDense(8, 9, nil)
	for i, p := range c {
		X, Y := modelCorners[i][0], modelCorners[i][1]
		u, v := (p.X-mx)*s, (p.Y-my)*s
		a.SetRow(2*i, []float64{X, Y, 1, 0, 0, 0, -u * X, -u * Y, -u})
		a.SetRow(2*i+1, []float64{0, 0, 0, X, Y, 1, -v * X, -v * Y, -v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, false
	}
	values := svd.Values(nil)
	if values[0] == 0 || values[len(values)-1]/values[0] < rankTol {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)

	// The null vector of A is the last right singular vector.
	hn := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		hn.Set(i/3, i%3, v.At(i, 8))
	}

	// Undo the normalisation: H = T^-1 * Hn.
	tInv := mat.NewDense(3, 3, []float64{
		1 / s, 0, mx,
		0, 1 / s, my,
		0, 0, 1,
	})
	var h mat.Dense
	h.Mul(tInv, hn)
	return &h, true
}

func (e *Estimator) decompose(h *mat.Dense, c [4]tag.Point) (*tag.Pose, bool) {
	in := e.in

	// M = K^-1 * H, column by column.
	var m [3][3]float64
	for j := 0; j < 3; j++ {
		h2 := h.At(2, j)
		m[0][j] = (h.At(0, j) - in.Cx*h2) / in.Fx
		m[1][j] = (h.At(1, j) - in.Cy*h2) / in.Fy
		m[2][j] = h2
	}

	n1 := math.Sqrt(m[0][0]*m[0][0] + m[1][0]*m[1][0] + m[2][0]*m[2][0])
	n2 := math.Sqrt(m[0][1]*m[0][1] + m[1][1]*m[1][1] + m[2][1]*m[2][1])
	if n1 == 0 || n2 == 0 || !finite(n1) || !finite(n2) {
		return nil, false
	}
	scale := 1 / math.Sqrt(n1*n2)
	// The tag must be in front of the camera.
	if m[2][2]*scale < 0 {
		scale = -scale
	}

	var r1, r2, t [3]float64
	for i := 0; i < 3; i++ {
		r1[i] = m[i][0] * scale
		r2[i] = m[i][1] * scale
		t[i] = m[i][2] * scale
	}
	r3 := [3]float64{
		r1[1]*r2[2] - r1[2]*r2[1],
		r1[2]*r2[0] - r1[0]*r2[2],
		r1[0]*r2[1] - r1[1]*r2[0],
	}

	rot, ok := orthonormalize(mat.NewDense(3, 3, []float64{
		r1[0], r2[0], r3[0],
		r1[1], r2[1], r3[1],
		r1[2], r2[2], r3[2],
	}))
	if !ok {
		return nil, false
	}

	half := in.TagSize / 2
	p := &tag.Pose{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p.Rotation[i][j] = rot.At(i, j)
		}
		p.Translation[i] = t[i] * half
	}

	errSum := 0.0
	for i, corner := range c {
		X, Y := modelCorners[i][0]*half, modelCorners[i][1]*half
		var cam [3]float64
		for k := 0; k < 3; k++ {
			cam[k] = p.Rotation[k][0]*X + p.Rotation[k][1]*Y + p.Translation[k]
		}
		if cam[2] <= 0 {
			return nil, false
		}
		u := in.Fx*cam[0]/cam[2] + in.Cx
		v := in.Fy*cam[1]/cam[2] + in.Cy
		errSum += (u-corner.X)*(u-corner.X) + (v-corner.Y)*(v-corner.Y)
	}
	p.Error = errSum / 4
	if !finite(p.Error) {
		return nil, false
	}

	return p, true
}

// orthonormalize returns the rotation closest to r (polar decomposition).
func orthonormalize(r *mat.Dense) (*mat.Dense, bool) {
	var svd mat.SVD
	if !svd.Factorize(r, mat.SVDFull) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var out mat.Dense
	out.Mul(&u, v.T())
	if mat.Det(&out) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		out.Mul(&u, v.T())
	}
	return &out, true
}
