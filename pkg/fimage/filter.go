package fimage

import(
	"fmt"
	"math"

	"github.com/abworrall/panorama/pkg/workpool"
)

// Filter names the convolution kernels MakeFilter knows how to build.
type Filter int

const(
	Box Filter = iota
	Gaussian
	GradientX
	GradientY
	Sharpen
	Emboss
	Highpass
)

var filterNames = map[Filter]string{
	Box: "box", Gaussian: "gaussian", GradientX: "gx", GradientY: "gy",
	Sharpen: "sharpen", Emboss: "emboss", Highpass: "highpass",
}

func (f Filter)String() string {
	if s, ok := filterNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// MakeFilter returns a single channel kernel. param is the width for
// Box and sigma for Gaussian; the 3x3 kernels ignore it.
func MakeFilter(f Filter, param float64) (Image, error) {
	switch f {
	case Box:
		w := int(param)
		if w < 1 {
			return Image{}, fmt.Errorf("box filter width %v", param)
		}
		k := New(w, w, 1)
		for i := range k.Data {
			k.Data[i] = 1.0 / float64(w*w)
		}
		return k, nil

	case Gaussian:
		if param <= 0 {
			return Image{}, fmt.Errorf("gaussian sigma %v", param)
		}
		g := gaussian1D(param)
		k := New(len(g), len(g), 1)
		for y := range g {
			for x := range g {
				k.Set(x, y, 0, g[x]*g[y])
			}
		}
		return k, nil

	case GradientX: return kernel3(-1, 0, 1,   -2, 0, 2,   -1, 0, 1), nil
	case GradientY: return kernel3(-1, -2, -1,   0, 0, 0,   1, 2, 1), nil
	case Sharpen:   return kernel3(0, -1, 0,   -1, 5, -1,   0, -1, 0), nil
	case Emboss:    return kernel3(-2, -1, 0,   -1, 1, 1,   0, 1, 2), nil
	case Highpass:  return kernel3(0, -1, 0,   -1, 4, -1,   0, -1, 0), nil
	}
	return Image{}, fmt.Errorf("no filter %s", f)
}

func kernel3(v ...float64) Image {
	k := New(3, 3, 1)
	copy(k.Data, v)
	return k
}

// gaussian1D is a normalized kernel of ceil(6 sigma) taps, bumped to odd
func gaussian1D(sigma float64) []float64 {
	n := int(math.Ceil(6 * sigma))
	if n%2 == 0 {
		n++
	}
	half := n / 2
	g := make([]float64, n)
	sum := 0.0
	for i := range g {
		d := float64(i - half)
		g[i] = math.Exp(-d*d / (2*sigma*sigma))
		sum += g[i]
	}
	for i := range g {
		g[i] /= sum
	}
	return g
}

// Convolve runs the kernel over the image, centred on each pixel, with
// out-of-range reads clamped to the nearest edge pixel. With preserve,
// each channel is convolved separately (using kernel channel c if the
// kernel has one, else channel 0). Without, the channel results are
// summed into a single channel. Rows are spread over workers
// goroutines (0 means one per CPU).
func Convolve(im, kernel Image, preserve bool, workers int) Image {
	nc := 1
	if preserve {
		nc = im.C
	}
	out := New(im.W, im.H, nc)
	if im.Empty() || kernel.Empty() {
		return out
	}
	hx, hy := kernel.W/2, kernel.H/2

	workpool.Rows(im.H, workers, func(lo, hi int) {
		for y:=lo; y<hi; y++ {
			for x:=0; x<im.W; x++ {
				for c:=0; c<im.C; c++ {
					kc := c
					if kc >= kernel.C {
						kc = 0
					}
					sum := 0.0
					for ky:=0; ky<kernel.H; ky++ {
						for kx:=0; kx<kernel.W; kx++ {
							sum += kernel.Data[kernel.idx(kx, ky, kc)] * im.getClamped(x+kx-hx, y+ky-hy, c)
						}
					}
					if preserve {
						out.Data[out.idx(x, y, c)] = sum
					} else {
						out.Data[out.idx(x, y, 0)] += sum
					}
				}
			}
		}
	})

	return out
}

// GaussianBlur does two 1D passes, x then y, with a ceil(6 sigma) kernel.
func GaussianBlur(im Image, sigma float64, workers int) Image {
	if sigma <= 0 || im.Empty() {
		return im.Copy()
	}
	g := gaussian1D(sigma)
	half := len(g) / 2

	tmp := New(im.W, im.H, im.C)
	workpool.Rows(im.H, workers, func(lo, hi int) {
		for c:=0; c<im.C; c++ {
			for y:=lo; y<hi; y++ {
				for x:=0; x<im.W; x++ {
					sum := 0.0
					for i, w := range g {
						sum += w * im.getClamped(x+i-half, y, c)
					}
					tmp.Data[tmp.idx(x, y, c)] = sum
				}
			}
		}
	})

	out := New(im.W, im.H, im.C)
	workpool.Rows(im.H, workers, func(lo, hi int) {
		for c:=0; c<im.C; c++ {
			for y:=lo; y<hi; y++ {
				for x:=0; x<im.W; x++ {
					sum := 0.0
					for i, w := range g {
						sum += w * tmp.getClamped(x, y+i-half, c)
					}
					out.Data[out.idx(x, y, c)] = sum
				}
			}
		}
	})

	return out
}

// Grayscale uses the luma weights we've always used (Rec. 601); 1
// channel images come back as a copy.
func Grayscale(im Image) Image {
	if im.C < 3 {
		return im.Channel(0)
	}
	out := New(im.W, im.H, 1)
	n := im.W * im.H
	for i:=0; i<n; i++ {
		out.Data[i] = 0.2989*im.Data[i] + 0.5870*im.Data[i+n] + 0.1140*im.Data[i+2*n]
	}
	return out
}
