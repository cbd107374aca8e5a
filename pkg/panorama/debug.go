package panorama

// Debug renderings, for eyeballing how well the detection and matching went

import(
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/match"
)

var(
	inlierColor  = colorful.Hsv(120, 1, 1)  // green
	outlierColor = colorful.Hsv(0, 1, 1)    // red
)

// BothImages puts a and b side by side, a on the left.
func BothImages(a, b fimage.Image) fimage.Image {
	h := a.H
	if b.H > h {
		h = b.H
	}
	c := a.C
	if b.C > c {
		c = b.C
	}
	both := fimage.New(a.W + b.W, h, c)
	both.Paste(a, 0, 0)
	both.Paste(b, a.W, 0)
	return both
}

// DrawMatches draws a line from each match's point in a to its point
// in b, on the side-by-side image. The first nInliers matches are drawn
// green, the rest red.
func DrawMatches(a, b fimage.Image, ms []match.Match, nInliers int) fimage.Image {
	dc := gg.NewContextForImage(BothImages(a, b))
	dc.SetLineWidth(1)

	offset := float64(a.W)
	for i, m := range ms {
		if i < nInliers {
			dc.SetColor(inlierColor)
		} else {
			dc.SetColor(outlierColor)
		}
		// +0.5 puts the line through pixel centres
		dc.DrawLine(m.P.X+0.5, m.P.Y+0.5, m.Q.X+offset+0.5, m.Q.Y+0.5)
		dc.Stroke()
	}

	return fimage.FromImage(dc.Image())
}

// FindAndDrawMatches detects and matches corners in both images, and
// draws all the matches (there's no RANSAC step, so they're all red).
// Images with different channel counts are both drawn in grayscale.
func FindAndDrawMatches(a, b fimage.Image, cfg Config) (fimage.Image, error) {
	if a.C != b.C {
		a, b = fimage.Grayscale(a), fimage.Grayscale(b)
	}
	da, err := harris.Detect(a, cfg.HarrisParams())
	if err != nil {
		return fimage.Image{}, err
	}
	db, err := harris.Detect(b, cfg.HarrisParams())
	if err != nil {
		return fimage.Image{}, err
	}
	ms, err := match.Descriptors(da.Descriptors, db.Descriptors, cfg.Workers)
	if err != nil {
		return fimage.Image{}, err
	}

	a = harris.DrawCorners(a, da.Descriptors)
	b = harris.DrawCorners(b, db.Descriptors)
	return DrawMatches(a, b, ms, 0), nil
}
