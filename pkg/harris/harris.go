// Package harris finds Harris-Stephens corners in an image and turns
// them into patch descriptors that can be matched across images.
package harris

import(
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/perr"
	"github.com/abworrall/panorama/pkg/workpool"
)

type Params struct {
	Sigma      float64  // blur applied to the structure tensor
	Thresh     float64  // minimum cornerness for a corner to survive
	Alpha      float64  // the Harris-Stephens trace weighting
	NMSWindow  int      // half-width of the non-max suppression window
	PatchSize  int      // side of the square descriptor patch
	Workers    int
}

func DefaultParams() Params {
	return Params{
		Sigma:     2,
		Thresh:    50,
		Alpha:     0.06,
		NMSWindow: 3,
		PatchSize: 5,
	}
}

// Detection is what Detect found, plus the response maps it came from
// (handy for debug dumps).
type Detection struct {
	Descriptors []Descriptor
	Response    emath.FloatGrid
	Suppressed  emath.FloatGrid
}

// StructureMatrix computes the blurred structure tensor of a single
// channel image. The result has 3 channels: Ix*Ix, Iy*Iy and Ix*Iy.
func StructureMatrix(im fimage.Image, sigma float64, workers int) (fimage.Image, error) {
	if im.Empty() {
		return fimage.Image{}, fmt.Errorf("structure matrix of %s: %w", im, perr.ErrDegenerateInput)
	} else if im.C != 1 {
		return fimage.Image{}, fmt.Errorf("structure matrix needs 1 channel, got %d: %w", im.C, perr.ErrDegenerateInput)
	} else if sigma <= 0 {
		return fimage.Image{}, fmt.Errorf("structure matrix sigma %v: %w", sigma, perr.ErrDegenerateInput)
	}

	gxf, _ := fimage.MakeFilter(fimage.GradientX, 0)
	gyf, _ := fimage.MakeFilter(fimage.GradientY, 0)
	gx := fimage.Convolve(im, gxf, false, workers)
	gy := fimage.Convolve(im, gyf, false, workers)

	n := im.W * im.H
	d := fimage.New(im.W, im.H, 3)
	workpool.Rows(n, workers, func(lo, hi int) {
		for i:=lo; i<hi; i++ {
			ix, iy := gx.Data[i], gy.Data[i]
			d.Data[i]     = ix*ix
			d.Data[i+n]   = iy*iy
			d.Data[i+2*n] = ix*iy
		}
	})

	return fimage.GaussianBlur(d, sigma, workers), nil
}

// Cornerness computes R = det(S) - alpha*trace(S)^2 for each pixel.
func Cornerness(s fimage.Image, alpha float64, workers int) emath.FloatGrid {
	r := emath.NewFloatGrid(s.W, s.H)
	n := s.W * s.H
	if s.C < 3 {
		return r
	}
	workpool.Rows(s.H, workers, func(lo, hi int) {
		for y:=lo; y<hi; y++ {
			for x:=0; x<s.W; x++ {
				i := x + y*s.W
				xx, yy, xy := s.Data[i], s.Data[i+n], s.Data[i+2*n]
				det := xx*yy - xy*xy
				trace := xx + yy
				r.Set(x, y, det - alpha*trace*trace)
			}
		}
	})
	return r
}

// NonMaxSuppress keeps a pixel only if nothing in the (2w+1)^2 window
// around it has a strictly bigger response; the rest become -Inf.
// Comparisons are always against the unsuppressed response, so the
// result doesn't depend on scan order.
func NonMaxSuppress(r emath.FloatGrid, w, workers int) emath.FloatGrid {
	out := r.NewFromThis()
	width, height := r.Dx(), r.Dy()

	workpool.Rows(height, workers, func(lo, hi int) {
		for y:=lo; y<hi; y++ {
			for x:=0; x<width; x++ {
				v := r.Get(x, y)
				out.Set(x, y, v)
			window:
				for yy:=y-w; yy<=y+w; yy++ {
					for xx:=x-w; xx<=x+w; xx++ {
						if r.In(xx, yy) && r.Get(xx, yy) > v {
							out.Set(x, y, math.Inf(-1))
							break window
						}
					}
				}
			}
		}
	})
	return out
}

// Corners picks out every pixel above thresh, in row-major order.
func Corners(nms emath.FloatGrid, thresh float64) []emath.Point {
	pts := []emath.Point{}
	for y:=0; y<nms.Dy(); y++ {
		for x:=0; x<nms.Dx(); x++ {
			if nms.Get(x, y) > thresh {
				pts = append(pts, emath.Point{X: float64(x), Y: float64(y)})
			}
		}
	}
	return pts
}

// Detect runs the whole corner pipeline over an image and describes
// what it finds. Multi-channel images are converted to grayscale for
// detection, but the descriptors sample every channel. Finding no
// corners is not an error.
func Detect(im fimage.Image, p Params) (Detection, error) {
	gray := im
	if im.C > 1 {
		gray = fimage.Grayscale(im)
	}

	s, err := StructureMatrix(gray, p.Sigma, p.Workers)
	if err != nil {
		return Detection{}, err
	}

	det := Detection{}
	det.Response = Cornerness(s, p.Alpha, p.Workers)
	det.Suppressed = NonMaxSuppress(det.Response, p.NMSWindow, p.Workers)
	pts := Corners(det.Suppressed, p.Thresh)
	det.Descriptors = Describe(im, pts, p.PatchSize, p.Workers)

	log.Debug("harris", "image", im, "corners", len(pts), "response", det.Response.Stats())
	return det, nil
}
