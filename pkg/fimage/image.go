// Package fimage is a small planar float image library: the pixel
// plumbing the registration code runs on. Values are nominally in
// [0,1], but nothing clamps them until they're written out.
package fimage

import(
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/draw"

	"github.com/abworrall/panorama/pkg/emath"
)

// Image is W x H pixels of C channels, stored one channel plane after
// another (the pixel at x,y in channel c is Data[x + y*W + c*W*H]).
// It implements image.Image and hdr.Image.
type Image struct {
	W, H, C int
	Data    []float64
}

func New(w, h, c int) Image {
	if w < 0 || h < 0 || c < 0 {
		w, h, c = 0, 0, 0
	}
	return Image{W: w, H: h, C: c, Data: make([]float64, w*h*c)}
}

func (im Image)String() string { return fmt.Sprintf("fimage[%dx%dx%d]", im.W, im.H, im.C) }
func (im Image)Empty() bool    { return im.W == 0 || im.H == 0 || im.C == 0 }
func (im Image)In(x, y int) bool { return x >= 0 && y >= 0 && x < im.W && y < im.H }

func (im Image)idx(x, y, c int) int { return x + y*im.W + c*im.W*im.H }

// Get returns 0 for anything outside the image.
func (im Image)Get(x, y, c int) float64 {
	if !im.In(x, y) || c < 0 || c >= im.C {
		return 0
	}
	return im.Data[im.idx(x, y, c)]
}

// Set is a no-op for anything outside the image.
func (im Image)Set(x, y, c int, v float64) {
	if !im.In(x, y) || c < 0 || c >= im.C {
		return
	}
	im.Data[im.idx(x, y, c)] = v
}

// getClamped reads the nearest edge pixel for out-of-range coords
func (im Image)getClamped(x, y, c int) float64 {
	if x < 0 { x = 0 }
	if y < 0 { y = 0 }
	if x >= im.W { x = im.W-1 }
	if y >= im.H { y = im.H-1 }
	return im.Data[im.idx(x, y, c)]
}

func (im Image)Copy() Image {
	out := Image{W: im.W, H: im.H, C: im.C, Data: make([]float64, len(im.Data))}
	copy(out.Data, im.Data)
	return out
}

// Channel copies out a single channel as a 1-channel image.
func (im Image)Channel(c int) Image {
	out := New(im.W, im.H, 1)
	if c >= 0 && c < im.C {
		copy(out.Data, im.Data[c*im.W*im.H : (c+1)*im.W*im.H])
	}
	return out
}

// Paste copies src into im with its top-left at (ox,oy), clipped to im.
// Channels beyond the smaller count are left alone.
func (im Image)Paste(src Image, ox, oy int) {
	nc := im.C
	if src.C < nc {
		nc = src.C
	}
	for c:=0; c<nc; c++ {
		for y:=0; y<src.H; y++ {
			for x:=0; x<src.W; x++ {
				im.Set(x+ox, y+oy, c, src.Data[src.idx(x, y, c)])
			}
		}
	}
}

// Implement image.Image
func (im Image)ColorModel() color.Model { return color.RGBA64Model }
func (im Image)Bounds() image.Rectangle { return image.Rect(0, 0, im.W, im.H) }

func (im Image)At(x, y int) color.Color {
	rgb := im.rgb(x, y)
	return color.RGBA64{
		R: uint16(emath.Clamp01(rgb.R) * 0xFFFF),
		G: uint16(emath.Clamp01(rgb.G) * 0xFFFF),
		B: uint16(emath.Clamp01(rgb.B) * 0xFFFF),
		A: 0xFFFF,
	}
}

// Implement hdr.Image
func (im Image)HDRAt(x, y int) hdrcolor.Color { return im.rgb(x, y) }
func (im Image)Size() int                     { return im.W * im.H }

func (im Image)rgb(x, y int) hdrcolor.RGB {
	if im.C < 3 {
		v := im.Get(x, y, 0)
		return hdrcolor.RGB{R: v, G: v, B: v}
	}
	return hdrcolor.RGB{R: im.Get(x, y, 0), G: im.Get(x, y, 1), B: im.Get(x, y, 2)}
}

func isGray(img image.Image) bool {
	m := img.ColorModel()
	return m == color.GrayModel || m == color.Gray16Model
}

// FromImage converts any image.Image into a float image; grayscale
// sources give 1 channel, everything else 3 (alpha is dropped).
func FromImage(src image.Image) Image {
	b := src.Bounds()
	rgba := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	nc := 3
	if isGray(src) {
		nc = 1
	}
	im := New(b.Dx(), b.Dy(), nc)
	for y:=0; y<im.H; y++ {
		for x:=0; x<im.W; x++ {
			c := rgba.RGBA64At(x, y)
			im.Set(x, y, 0, float64(c.R) / 0xFFFF)
			if nc == 3 {
				im.Set(x, y, 1, float64(c.G) / 0xFFFF)
				im.Set(x, y, 2, float64(c.B) / 0xFFFF)
			}
		}
	}
	return im
}
