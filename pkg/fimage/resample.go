package fimage

import(
	"fmt"
	"math"
	"strings"

	"github.com/abworrall/panorama/pkg/workpool"
)

// Resampler picks how fractional pixel positions get read.
type Resampler int

const(
	Nearest Resampler = iota
	Bilinear
)

func (r Resampler)String() string {
	switch r {
	case Nearest:  return "nearest"
	case Bilinear: return "bilinear"
	}
	return fmt.Sprintf("Resampler(%d)", int(r))
}

func ParseResampler(s string) (Resampler, error) {
	switch strings.ToLower(s) {
	case "nearest", "nn":   return Nearest, nil
	case "bilinear", "":    return Bilinear, nil
	}
	return Nearest, fmt.Errorf("no resampler named '%s'", s)
}

// Sample reads channel c at a fractional position.
func (r Resampler)Sample(im Image, x, y float64, c int) float64 {
	if r == Nearest {
		return im.NearestAt(x, y, c)
	}
	return im.BilinearAt(x, y, c)
}

// NearestAt rounds to the closest pixel; outside the image reads as 0.
func (im Image)NearestAt(x, y float64, c int) float64 {
	return im.Get(int(math.Round(x)), int(math.Round(y)), c)
}

// BilinearAt blends the four pixels around (x,y); pixel centres sit on
// integer coords. Neighbours past the edge repeat the edge pixel, so
// sampling anywhere in [0,W)x[0,H) stays well behaved.
func (im Image)BilinearAt(x, y float64, c int) float64 {
	if im.Empty() || c < 0 || c >= im.C {
		return 0
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	dx, dy := x - x0, y - y0
	ix, iy := int(x0), int(y0)

	v00 := im.getClamped(ix,   iy,   c)
	v10 := im.getClamped(ix+1, iy,   c)
	v01 := im.getClamped(ix,   iy+1, c)
	v11 := im.getClamped(ix+1, iy+1, c)

	top := v00*(1-dx) + v10*dx
	bot := v01*(1-dx) + v11*dx
	return top*(1-dy) + bot*dy
}

// Resize scales to w x h, mapping pixel centres onto pixel centres.
func Resize(im Image, w, h int, r Resampler, workers int) Image {
	out := New(w, h, im.C)
	if out.Empty() || im.Empty() {
		return out
	}
	sx := float64(im.W) / float64(w)
	sy := float64(im.H) / float64(h)

	workpool.Rows(h, workers, func(lo, hi int) {
		for y:=lo; y<hi; y++ {
			fy := (float64(y)+0.5)*sy - 0.5
			for x:=0; x<w; x++ {
				fx := (float64(x)+0.5)*sx - 0.5
				for c:=0; c<im.C; c++ {
					// stay inside, so Nearest doesn't round off the edge
					px := math.Max(0, math.Min(fx, float64(im.W-1)))
					py := math.Max(0, math.Min(fy, float64(im.H-1)))
					out.Data[out.idx(x, y, c)] = r.Sample(im, px, py, c)
				}
			}
		}
	})
	return out
}
