package panorama

import(
	"fmt"
	"math"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/perr"
	"github.com/abworrall/panorama/pkg/workpool"
)

// Projected coords this close to an integer are treated as that integer
const snapEps = 1e-6

// Canvas describes the composite's frame, in A's coords: A's pixel
// (x,y) lands on canvas pixel (x-DX, y-DY).
type Canvas struct {
	DX, DY   int          // offset of the canvas origin; always <= 0
	W, H     int
	Min, Max emath.Point  // bounding box of B, projected into A
}

func (c Canvas)String() string {
	return fmt.Sprintf("canvas[%dx%d @(%d,%d), B in %s-%s]", c.W, c.H, c.DX, c.DY, c.Min, c.Max)
}

// CanvasFor works out how big the composite of a and b needs to be,
// given hinv, which maps b's coords into a's.
func CanvasFor(a, b fimage.Image, hinv emath.Mat3) (Canvas, error) {
	corners := []emath.Point{
		{X: 0, Y: 0}, {X: float64(b.W), Y: 0},
		{X: 0, Y: float64(b.H)}, {X: float64(b.W), Y: float64(b.H)},
	}

	c := Canvas{
		Min: emath.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: emath.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, pt := range corners {
		if hinv.W(pt) <= 0 {
			return Canvas{}, fmt.Errorf("corner %s of B projects behind the camera: %w", pt, perr.ErrDegenerateInput)
		}
		q := hinv.Project(pt)
		c.Min.X, c.Min.Y = math.Min(c.Min.X, q.X), math.Min(c.Min.Y, q.Y)
		c.Max.X, c.Max.Y = math.Max(c.Max.X, q.X), math.Max(c.Max.Y, q.Y)
	}

	minX := emath.SnapFloor(math.Min(0, c.Min.X), snapEps)
	minY := emath.SnapFloor(math.Min(0, c.Min.Y), snapEps)
	maxX := emath.SnapCeil(math.Max(float64(a.W), c.Max.X), snapEps)
	maxY := emath.SnapCeil(math.Max(float64(a.H), c.Max.Y), snapEps)

	// Guard the int conversions against wild homographies
	if maxX - minX > math.MaxInt32 || maxY - minY > math.MaxInt32 {
		return Canvas{}, fmt.Errorf("projected B %s-%s is absurd: %w", c.Min, c.Max, perr.ErrDegenerateInput)
	}

	c.DX, c.DY = int(minX), int(minY)
	c.W, c.H = int(maxX) - c.DX, int(maxY) - c.DY
	return c, nil
}

// Combine lays a onto a canvas big enough for both images, then warps
// b into a's frame via h (which maps a's coords into b's) and writes it
// over the top. There is no blending; where they overlap, b wins.
func Combine(a, b fimage.Image, h emath.Mat3, maxPixels, workers int) (fimage.Image, Canvas, error) {
	if a.Empty() || b.Empty() {
		return fimage.Image{}, Canvas{}, fmt.Errorf("combine %s with %s: %w", a, b, perr.ErrDegenerateInput)
	}

	hinv, err := h.Inverse()
	if err != nil {
		return fimage.Image{}, Canvas{}, fmt.Errorf("combine, inverting H: %w", perr.ErrSingularSystem)
	}

	cv, err := CanvasFor(a, b, hinv)
	if err != nil {
		return fimage.Image{}, Canvas{}, err
	}
	if maxPixels > 0 && cv.W * cv.H > maxPixels {
		return fimage.Image{}, cv, fmt.Errorf("%s exceeds %d pixels: %w", cv, maxPixels, perr.ErrDegenerateInput)
	}

	out := fimage.New(cv.W, cv.H, a.C)
	out.Paste(a, -cv.DX, -cv.DY)

	x0, x1 := int(emath.SnapFloor(cv.Min.X, snapEps)), int(emath.SnapCeil(cv.Max.X, snapEps))
	y0, y1 := int(emath.SnapFloor(cv.Min.Y, snapEps)), int(emath.SnapCeil(cv.Max.Y, snapEps))
	bw, bh := float64(b.W), float64(b.H)

	workpool.Rows(y1 - y0, workers, func(lo, hi int) {
		for y:=y0+lo; y<y0+hi; y++ {
			for x:=x0; x<x1; x++ {
				p := h.Project(emath.Point{X: float64(x), Y: float64(y)})
				if !(p.X >= 0 && p.X < bw && p.Y >= 0 && p.Y < bh) {
					continue
				}
				for c:=0; c<a.C; c++ {
					bc := c
					if bc >= b.C {
						bc = 0
					}
					out.Set(x - cv.DX, y - cv.DY, c, b.BilinearAt(p.X, p.Y, bc))
				}
			}
		}
	})

	return out, cv, nil
}
