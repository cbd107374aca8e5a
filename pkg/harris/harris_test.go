package harris

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/perr"
)

// whiteSquare is a black w x w image with a white square covering [lo,hi]
func whiteSquare(w, lo, hi int) fimage.Image {
	im := fimage.New(w, w, 1)
	for y := lo; y <= hi; y++ {
		for x := lo; x <= hi; x++ {
			im.Set(x, y, 0, 1)
		}
	}
	return im
}

func TestStructureMatrixFlat(t *testing.T) {
	im := fimage.New(16, 12, 1)
	for i := range im.Data {
		im.Data[i] = 0.4
	}

	s, err := StructureMatrix(im, 1.5, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, s.C)
	for _, v := range s.Data {
		assert.InDelta(t, 0.0, v, 1e-12)
	}

	r := Cornerness(s, 0.06, 2)
	assert.Empty(t, Corners(NonMaxSuppress(r, 3, 2), 0))
}

func TestStructureMatrixRejects(t *testing.T) {
	tests := []struct {
		name  string
		im    fimage.Image
		sigma float64
	}{
		{"empty", fimage.Image{}, 1},
		{"multichannel", fimage.New(4, 4, 3), 1},
		{"bad sigma", fimage.New(4, 4, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StructureMatrix(tt.im, tt.sigma, 1)
			assert.ErrorIs(t, err, perr.ErrDegenerateInput)
		})
	}
}

func TestCornerness(t *testing.T) {
	s := fimage.New(1, 1, 3)
	s.Data = []float64{4, 2, 1}
	r := Cornerness(s, 0.06, 1)
	assert.InDelta(t, 4*2-1-0.06*36, r.Get(0, 0), 1e-12)
}

func TestNonMaxSuppressKeepsOnlyLocalMaxima(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := emath.NewFloatGrid(30, 20)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			// coarse values, so there are plenty of ties
			r.Set(x, y, float64(rng.Intn(6)))
		}
	}

	const w = 2
	nms := NonMaxSuppress(r, w, 3)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			bigger := false
			for yy := y - w; yy <= y+w; yy++ {
				for xx := x - w; xx <= x+w; xx++ {
					if r.In(xx, yy) && r.Get(xx, yy) > r.Get(x, y) {
						bigger = true
					}
				}
			}
			if bigger {
				assert.True(t, math.IsInf(nms.Get(x, y), -1), "(%d,%d) should be suppressed", x, y)
			} else {
				assert.Equal(t, r.Get(x, y), nms.Get(x, y), "(%d,%d) should survive", x, y)
			}
		}
	}
}

func TestCornersRowMajor(t *testing.T) {
	g := emath.NewFloatGrid(3, 2)
	g.Set(2, 0, 5)
	g.Set(0, 1, 5)
	g.Set(1, 1, 1)
	pts := Corners(g, 2)
	assert.Equal(t, []emath.Point{{X: 2, Y: 0}, {X: 0, Y: 1}}, pts)
}

func TestDetectSquareCorners(t *testing.T) {
	im := whiteSquare(40, 10, 29)
	p := DefaultParams()
	p.Sigma = 1.5
	p.Thresh = 0

	det, err := Detect(im, p)
	require.NoError(t, err)

	// keep only the strong responses
	max := math.Inf(-1)
	for _, d := range det.Descriptors {
		max = math.Max(max, det.Response.Get(int(d.P.X), int(d.P.Y)))
	}
	require.Greater(t, max, 0.0)

	strong := Corners(det.Suppressed, 0.1*max)
	require.GreaterOrEqual(t, len(strong), 4)

	squareCorners := []emath.Point{{X: 9.5, Y: 9.5}, {X: 29.5, Y: 9.5}, {X: 9.5, Y: 29.5}, {X: 29.5, Y: 29.5}}
	hit := map[int]bool{}
	for _, pt := range strong {
		best, bestDist := -1, math.Inf(1)
		for i, c := range squareCorners {
			d := math.Max(math.Abs(pt.X-c.X), math.Abs(pt.Y-c.Y))
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		assert.LessOrEqual(t, bestDist, 6.0, "corner %s is nowhere near the square", pt)
		hit[best] = true
	}
	assert.Len(t, hit, 4)
}

func TestDetectColorDescribesAllChannels(t *testing.T) {
	gray := whiteSquare(30, 8, 20)
	im := fimage.New(30, 30, 3)
	for c := 0; c < 3; c++ {
		copy(im.Data[c*900:(c+1)*900], gray.Data)
	}

	p := DefaultParams()
	p.Sigma = 1
	p.Thresh = 0.01
	det, err := Detect(im, p)
	require.NoError(t, err)
	require.NotEmpty(t, det.Descriptors)
	for _, d := range det.Descriptors {
		assert.Len(t, d.Data, 5*5*3)
	}
}

func TestDescribe(t *testing.T) {
	im := fimage.New(10, 10, 2)
	for i := range im.Data {
		im.Data[i] = 1
	}
	im.Set(5, 5, 1, 3)

	descs := Describe(im, []emath.Point{{X: 5, Y: 5}, {X: 0, Y: 0}}, 5, 2)
	require.Len(t, descs, 2)

	d := descs[0]
	assert.Equal(t, emath.Point{X: 5, Y: 5}, d.P)
	require.Len(t, d.Data, 50)
	assert.Equal(t, 0.0, d.Data[12])    // centre, channel 0
	assert.Equal(t, 0.0, d.Data[25+12]) // centre, channel 1
	assert.Equal(t, -2.0, d.Data[25])   // channel 1 neighbour minus the bright centre

	// at the image corner, off-image samples are 0 - centre
	c := descs[1]
	assert.Equal(t, -1.0, c.Data[0])
	assert.Equal(t, 0.0, c.Data[12])
	assert.Equal(t, 0.0, c.Data[24])
}

func TestDrawCorners(t *testing.T) {
	im := fimage.New(30, 30, 1)
	out := DrawCorners(im, []Descriptor{{P: emath.Point{X: 15, Y: 15}}})
	assert.Equal(t, 3, out.C)
	assert.Equal(t, 1.0, out.Get(15, 6, 0))
	assert.Equal(t, 0.0, out.Get(24, 15, 1))
	assert.Equal(t, 1.0, out.Get(24, 15, 2))
	assert.Equal(t, 0.0, out.Get(14, 14, 0))
	assert.Equal(t, 0.0, im.Get(15, 15, 0))
}
