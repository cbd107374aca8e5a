package fimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(w, h int) Image {
	im := New(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(x, y, 0, float64(x)+10*float64(y))
		}
	}
	return im
}

func TestGetSetBounds(t *testing.T) {
	im := New(3, 2, 2)
	require.Len(t, im.Data, 12)

	im.Set(2, 1, 1, 5)
	assert.Equal(t, 5.0, im.Get(2, 1, 1))
	assert.Equal(t, 5.0, im.Data[2+1*3+1*6])

	// out of bounds reads are zero, writes are dropped
	im.Set(-1, 0, 0, 9)
	im.Set(3, 0, 0, 9)
	im.Set(0, 0, 2, 9)
	assert.Equal(t, 0.0, im.Get(-1, 0, 0))
	assert.Equal(t, 0.0, im.Get(0, 2, 0))
	assert.Equal(t, 0.0, im.Get(0, 0, 5))
	for i, v := range im.Data {
		if i != 2+1*3+1*6 {
			assert.Equal(t, 0.0, v)
		}
	}
}

func TestCopyAndChannel(t *testing.T) {
	im := New(2, 2, 3)
	im.Set(1, 1, 2, 0.5)
	cp := im.Copy()
	cp.Set(1, 1, 2, 0.7)
	assert.Equal(t, 0.5, im.Get(1, 1, 2))

	ch := im.Channel(2)
	assert.Equal(t, 1, ch.C)
	assert.Equal(t, 0.5, ch.Get(1, 1, 0))
}

func TestBilinear(t *testing.T) {
	im := ramp(4, 4)
	assert.InDelta(t, 1.5, im.BilinearAt(1.5, 0, 0), 1e-12)
	assert.InDelta(t, 15.0, im.BilinearAt(0, 1.5, 0), 1e-12)
	assert.InDelta(t, 12.25, im.BilinearAt(2.25, 1, 0), 1e-12)
	assert.InDelta(t, 33.0, im.BilinearAt(3, 3, 0), 1e-12)
	// last column repeats past the edge
	assert.InDelta(t, 3.0, im.BilinearAt(3.5, 0, 0), 1e-12)
	assert.Equal(t, 21.0, im.NearestAt(0.6, 2.2, 0))
}

func TestConvolveIdentityAndGradients(t *testing.T) {
	im := ramp(5, 5)
	id := kernel3(0, 0, 0, 0, 1, 0, 0, 0, 0)
	assert.Equal(t, im.Data, Convolve(im, id, true, 2).Data)

	gx, err := MakeFilter(GradientX, 0)
	require.NoError(t, err)
	gy, err := MakeFilter(GradientY, 0)
	require.NoError(t, err)

	// away from the edges, sobel of the ramp is 8 (x) and 80 (y)
	ix := Convolve(im, gx, false, 2)
	iy := Convolve(im, gy, false, 2)
	assert.InDelta(t, 8.0, ix.Get(2, 2, 0), 1e-12)
	assert.InDelta(t, 80.0, iy.Get(2, 2, 0), 1e-12)
}

func TestConvolveSumsChannels(t *testing.T) {
	im := New(3, 3, 2)
	for i := range im.Data {
		im.Data[i] = 1
	}
	box, err := MakeFilter(Box, 3)
	require.NoError(t, err)

	out := Convolve(im, box, false, 2)
	assert.Equal(t, 1, out.C)
	assert.InDelta(t, 2.0, out.Get(1, 1, 0), 1e-12)

	out = Convolve(im, box, true, 2)
	assert.Equal(t, 2, out.C)
	assert.InDelta(t, 1.0, out.Get(0, 0, 1), 1e-12)
}

func TestGaussian(t *testing.T) {
	g := gaussian1D(2)
	assert.Len(t, g, 13)
	sum := 0.0
	for _, v := range g {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Len(t, gaussian1D(1), 7)

	k, err := MakeFilter(Gaussian, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, k.W)

	// blurring a flat image leaves it flat
	flat := New(20, 10, 1)
	for i := range flat.Data {
		flat.Data[i] = 0.25
	}
	b := GaussianBlur(flat, 1.5, 2)
	for _, v := range b.Data {
		assert.InDelta(t, 0.25, v, 1e-12)
	}

	// separable blur agrees with the 2D kernel
	r := ramp(12, 12)
	sep := GaussianBlur(r, 1, 2)
	full := Convolve(r, k, true, 2)
	for i := range sep.Data {
		assert.InDelta(t, full.Data[i], sep.Data[i], 1e-9)
	}
}

func TestMakeFilterErrors(t *testing.T) {
	_, err := MakeFilter(Box, 0)
	assert.Error(t, err)
	_, err = MakeFilter(Gaussian, -1)
	assert.Error(t, err)
	_, err = MakeFilter(Filter(99), 1)
	assert.Error(t, err)
	assert.Equal(t, "gx", GradientX.String())
}

func TestGrayscale(t *testing.T) {
	im := New(1, 1, 3)
	im.Set(0, 0, 0, 1)
	im.Set(0, 0, 1, 0.5)
	g := Grayscale(im)
	assert.Equal(t, 1, g.C)
	assert.InDelta(t, 0.2989+0.5*0.5870, g.Get(0, 0, 0), 1e-12)
}

func TestResize(t *testing.T) {
	im := ramp(8, 8)
	half := Resize(im, 4, 4, Bilinear, 2)
	assert.Equal(t, 4, half.W)
	assert.InDelta(t, 0.5+10*0.5, half.Get(0, 0, 0), 1e-12)

	same := Resize(im, 8, 8, Nearest, 2)
	assert.Equal(t, im.Data, same.Data)

	r, err := ParseResampler("NN")
	require.NoError(t, err)
	assert.Equal(t, Nearest, r)
	_, err = ParseResampler("lanczos")
	assert.Error(t, err)
}

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 3, 6, 5))
	src.Set(2, 3, color.RGBA{255, 0, 0, 255})
	src.Set(5, 4, color.RGBA{0, 0, 255, 255})

	im := FromImage(src)
	assert.Equal(t, 4, im.W)
	assert.Equal(t, 2, im.H)
	assert.Equal(t, 3, im.C)
	assert.InDelta(t, 1.0, im.Get(0, 0, 0), 1e-9)
	assert.InDelta(t, 1.0, im.Get(3, 1, 2), 1e-9)

	r, _, _, a := im.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0xFFFF), a)
	assert.Equal(t, 8, im.Size())

	gray := FromImage(image.NewGray(image.Rect(0, 0, 3, 3)))
	assert.Equal(t, 1, gray.C)
}

func TestPaste(t *testing.T) {
	dst := New(4, 4, 1)
	src := New(2, 2, 1)
	for i := range src.Data {
		src.Data[i] = 1
	}
	dst.Paste(src, 3, 3)
	assert.Equal(t, 1.0, dst.Get(3, 3, 0))
	assert.Equal(t, 0.0, dst.Get(2, 3, 0))
}
