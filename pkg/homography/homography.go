// Package homography fits projective transforms between matched point
// sets, directly (DLT) and robustly (RANSAC).
package homography

import(
	"errors"
	"fmt"
	"math"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/match"
	"github.com/abworrall/panorama/pkg/perr"
)

// Translation is the homography that shifts every point by (dx,dy).
func Translation(dx, dy float64) emath.Mat3 {
	return emath.Identity().Translate(dx, dy).ToMat3()
}

// Project maps p through h.
func Project(h emath.Mat3, p emath.Point) emath.Point {
	return h.Project(p)
}

// Compute fits the homography taking each match's P to its Q, by least
// squares over all of them. It needs at least 4 matches, and they must
// not be degenerate (repeated or collinear points give ErrSingularSystem).
func Compute(ms []match.Match) (emath.Mat3, error) {
	n := len(ms)
	if n < 4 {
		return emath.Mat3{}, fmt.Errorf("homography from %d matches: %w", n, perr.ErrInsufficientMatches)
	}

	// Condition both point sets first, or the normal equations get ugly
	// for pixel-sized coordinates.
	ps, qs := make([]emath.Point, n), make([]emath.Point, n)
	for i, m := range ms {
		ps[i], qs[i] = m.P, m.Q
	}
	tp, okp := conditioner(ps)
	tq, okq := conditioner(qs)
	if !okp || !okq {
		return emath.Mat3{}, fmt.Errorf("homography: points have no spread: %w", perr.ErrSingularSystem)
	}

	mm := emath.NewMatrix(2*n, 8, nil)
	b  := emath.NewMatrix(2*n, 1, nil)
	for i := range ms {
		p, q := tp.Project(ps[i]), tq.Project(qs[i])
		x, y, xp, yp := p.X, p.Y, q.X, q.Y
		row0 := []float64{x, y, 1, 0, 0, 0, -x*xp, -y*xp}
		row1 := []float64{0, 0, 0, x, y, 1, -x*yp, -y*yp}
		for c:=0; c<8; c++ {
			mm.Set(2*i,   c, row0[c])
			mm.Set(2*i+1, c, row1[c])
		}
		b.Set(2*i,   0, xp)
		b.Set(2*i+1, 0, yp)
	}

	sol, err := emath.LeastSquares(mm, b)
	if errors.Is(err, emath.ErrSingular) {
		return emath.Mat3{}, fmt.Errorf("homography from %d matches: %w", n, perr.ErrSingularSystem)
	} else if err != nil {
		return emath.Mat3{}, fmt.Errorf("homography from %d matches: %w", n, err)
	}

	hn := emath.Mat3{}
	for i:=0; i<8; i++ {
		hn[i] = sol.At(i, 0)
	}
	hn[8] = 1

	tqInv, err := tq.Inverse()
	if err != nil {
		return emath.Mat3{}, fmt.Errorf("homography denormalize: %w", perr.ErrSingularSystem)
	}
	h := tqInv.Mult(hn).Mult(tp)
	if math.Abs(h[8]) < 1e-12 {
		return emath.Mat3{}, fmt.Errorf("homography maps the origin to infinity: %w", perr.ErrSingularSystem)
	}
	h = h.Normalize()
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return emath.Mat3{}, fmt.Errorf("homography not finite: %w", perr.ErrSingularSystem)
		}
	}

	return h, nil
}

// conditioner returns the similarity that moves the points' centroid to
// the origin and makes their mean distance from it sqrt(2).
func conditioner(pts []emath.Point) (emath.Mat3, bool) {
	c := emath.Point{}
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(pts))
	c.Y /= float64(len(pts))

	mean := 0.0
	for _, p := range pts {
		mean += p.Distance(c)
	}
	mean /= float64(len(pts))
	if mean < 1e-12 {
		return emath.Mat3{}, false
	}

	s := math.Sqrt2 / mean
	return emath.Identity().Scale(s, s).Translate(-c.X, -c.Y).ToMat3(), true
}
