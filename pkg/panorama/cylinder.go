package panorama

import(
	"fmt"
	"math"

	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/perr"
	"github.com/abworrall/panorama/pkg/workpool"
)

// CylindricalWidth is how wide an image of width w comes out once
// projected onto a cylinder with focal length f.
func CylindricalWidth(w int, f float64) int {
	return int(2 * f * math.Atan2(float64(w/2), f))
}

// CylindricalProject wraps the image onto a cylinder of focal length f
// (in pixels) and unrolls it. Pure rotations about the camera become
// horizontal shifts, which stitch far better. Pixels that map off the
// source image are left at 0.
func CylindricalProject(im fimage.Image, f float64, workers int) (fimage.Image, error) {
	if f <= 0 || im.Empty() {
		return fimage.Image{}, fmt.Errorf("cylindrical projection of %s with f=%v: %w", im, f, perr.ErrDegenerateInput)
	}

	xc, yc := float64(im.W/2), float64(im.H/2)
	w := CylindricalWidth(im.W, f)
	out := fimage.New(w, im.H, im.C)

	workpool.Rows(out.H, workers, func(lo, hi int) {
		for y:=lo; y<hi; y++ {
			for x:=0; x<w; x++ {
				theta := float64(x - w/2) / f
				X, Y, Z := f*math.Sin(theta), float64(y)-yc, f*math.Cos(theta)
				mx, my := f*X/Z + xc, f*Y/Z + yc
				if mx < 0 || my < 0 || mx >= float64(im.W) || my >= float64(im.H) {
					continue
				}
				for c:=0; c<im.C; c++ {
					out.Set(x, y, c, im.BilinearAt(mx, my, c))
				}
			}
		}
	})

	return out, nil
}
