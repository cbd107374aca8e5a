package panorama

import(
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/charmbracelet/log"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/match"
)

// Reprojection errors are histogrammed in thousandths of a pixel
const errScale = 1000.0

// Stats summarizes how well H explains the inlier matches, and how
// well the two images agree where they overlap.
type Stats struct {
	Inliers      int
	MeanErr      float64  // pixels
	P50Err       float64
	P90Err       float64
	MaxErr       float64
	OverlapPix   int      // pixels of A whose projection lands in B
	OverlapError float64  // mean abs luminance difference over those pixels
}

func (s Stats)String() string {
	return fmt.Sprintf("%d inliers, reprojection err mean %.3fpx, p50 %.3f, p90 %.3f, max %.3f; overlap %dpx, err %.4f",
		s.Inliers, s.MeanErr, s.P50Err, s.P90Err, s.MaxErr, s.OverlapPix, s.OverlapError)
}

// ReprojectionStats measures |H(P) - Q| over the matches.
func ReprojectionStats(h emath.Mat3, ms []match.Match) Stats {
	s := Stats{Inliers: len(ms)}
	if len(ms) == 0 {
		return s
	}

	hist := hdrhistogram.New(0, 1000 * 1000 * errScale, 3)
	for _, m := range ms {
		d := h.Project(m.P).Distance(m.Q)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 1000 * 1000
		}
		if err := hist.RecordValue(int64(d * errScale)); err != nil {
			log.Debug("reprojection histogram", "err", err)
		}
	}

	s.MeanErr = hist.Mean() / errScale
	s.P50Err  = float64(hist.ValueAtQuantile(50)) / errScale
	s.P90Err  = float64(hist.ValueAtQuantile(90)) / errScale
	s.MaxErr  = float64(hist.Max()) / errScale
	return s
}

// OverlapError compares the luminance of a with b (seen through h,
// which maps a's coords into b's) at every pixel of a that lands in b.
// It returns the mean absolute difference and the number of pixels
// compared. If title is set, the difference grid is also saved as a
// PNG into filename.
func OverlapError(a, b fimage.Image, h emath.Mat3, title, filename string) (float64, int) {
	ga, gb := fimage.Grayscale(a), fimage.Grayscale(b)
	diff := emath.NewFloatGrid(a.W, a.H)

	tot, n := 0.0, 0
	for y:=0; y<a.H; y++ {
		for x:=0; x<a.W; x++ {
			p := h.Project(emath.Point{X: float64(x), Y: float64(y)})
			if !(p.X >= 0 && p.Y >= 0 && p.X < float64(b.W) && p.Y < float64(b.H)) {
				continue
			}
			d := math.Abs(ga.Get(x, y, 0) - gb.BilinearAt(p.X, p.Y, 0))
			diff.Set(x, y, d)
			tot += d
			n++
		}
	}

	if title != "" {
		if err := diff.ToImg(title, filename); err != nil {
			log.Warn("saving overlap diff", "file", filename, "err", err)
		}
	}

	if n == 0 {
		return 0, 0
	}
	return tot / float64(n), n
}
