package harris

import(
	"fmt"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/workpool"
)

// A Descriptor is a corner location plus the normalized patch around it.
type Descriptor struct {
	P    emath.Point
	Data []float64
}

func (d Descriptor)String() string { return fmt.Sprintf("desc%s[%d]", d.P, len(d.Data)) }

// Describe builds one descriptor per point, in the same order. Each is
// a size x size patch per channel (channels concatenated), with the
// centre pixel's value subtracted; pixels off the image read as 0.
func Describe(im fimage.Image, pts []emath.Point, size, workers int) []Descriptor {
	descs := make([]Descriptor, len(pts))
	half := size / 2

	workpool.Each(len(pts), workers, func(i int) {
		x, y := int(pts[i].X), int(pts[i].Y)
		data := make([]float64, 0, size*size*im.C)
		for c:=0; c<im.C; c++ {
			centre := im.Get(x, y, c)
			for dy:=-half; dy<size-half; dy++ {
				for dx:=-half; dx<size-half; dx++ {
					data = append(data, im.Get(x+dx, y+dy, c) - centre)
				}
			}
		}
		descs[i] = Descriptor{P: pts[i], Data: data}
	})

	return descs
}

// DrawCorners returns a copy of the image with a magenta cross over
// each descriptor's location. Grayscale images come back as RGB.
func DrawCorners(im fimage.Image, descs []Descriptor) fimage.Image {
	out := toRGB(im)
	for _, d := range descs {
		x, y := int(d.P.X), int(d.P.Y)
		for j:=-9; j<=9; j++ {
			for c, v := range []float64{1, 0, 1} {
				out.Set(x+j, y, c, v)
				out.Set(x, y+j, c, v)
			}
		}
	}
	return out
}

func toRGB(im fimage.Image) fimage.Image {
	if im.C >= 3 {
		return im.Copy()
	}
	n := im.W * im.H
	out := fimage.New(im.W, im.H, 3)
	if im.C == 0 {
		return out
	}
	for c:=0; c<3; c++ {
		copy(out.Data[c*n:(c+1)*n], im.Data[:n])
	}
	return out
}
