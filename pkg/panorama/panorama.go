// Package panorama registers pairs of overlapping photos and composites
// them: corners are detected and matched in both images, a homography
// between them is estimated with RANSAC, and the second image is warped
// into the first one's frame.
package panorama

import(
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/fimage"
	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/homography"
	"github.com/abworrall/panorama/pkg/match"
	"github.com/abworrall/panorama/pkg/perr"
)

// Result is everything Stitch worked out. H maps A's coords into B's.
type Result struct {
	Composite  fimage.Image
	Debug      fimage.Image  // matches image; only set if Config.DrawDebug
	H          emath.Mat3
	Canvas     Canvas
	Inliers    int
	Matches    []match.Match  // partitioned; Matches[:Inliers] are the inliers (in detection coords)
	CornersA   int
	CornersB   int
	Stats      Stats
}

func (r Result)String() string {
	return fmt.Sprintf("corners %d/%d, %d matches, %s, %s", r.CornersA, r.CornersB, len(r.Matches), r.Stats, r.Canvas)
}

// Stitch registers b against a and composites them. Each stage's
// failure stops the pipeline: no corners in either image gives
// ErrDegenerateInput, too few matches ErrInsufficientMatches, and so on.
// With a focal length set, both images are projected onto the cylinder
// first.
func Stitch(ctx context.Context, cfg Config, a, b fimage.Image) (Result, error) {
	if err := checkInputs(cfg, a, b); err != nil {
		return Result{}, err
	}

	var err error
	if a, err = project(cfg, a); err != nil {
		return Result{}, err
	}
	if b, err = project(cfg, b); err != nil {
		return Result{}, err
	}
	return stitchProjected(ctx, cfg, a, b)
}

func checkInputs(cfg Config, a, b fimage.Image) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("stitch: %v: %w", err, perr.ErrDegenerateInput)
	} else if a.Empty() || b.Empty() {
		return fmt.Errorf("stitch %s with %s: %w", a, b, perr.ErrDegenerateInput)
	}
	return nil
}

// project puts im onto the cylinder, if cfg asks for it
func project(cfg Config, im fimage.Image) (fimage.Image, error) {
	if cfg.FocalLength <= 0 {
		return im, nil
	}
	return CylindricalProject(im, cfg.FocalLength, cfg.Workers)
}

// stitchProjected is Stitch for images that have already been through
// project; a may be a composite from an earlier step.
func stitchProjected(ctx context.Context, cfg Config, a, b fimage.Image) (Result, error) {
	if err := checkInputs(cfg, a, b); err != nil {
		return Result{}, err
	}

	// Optionally find the homography on smaller images
	scale := cfg.DetectScale
	if scale <= 0 {
		scale = 1
	}
	da, db, err := detectImages(cfg, a, b, scale)
	if err != nil {
		return Result{}, err
	}
	// Descriptors only compare when both sides have the same channels
	if da.C != db.C {
		da, db = fimage.Grayscale(da), fimage.Grayscale(db)
	}

	hp := cfg.HarrisParams()
	detA, err := harris.Detect(da, hp)
	if err != nil {
		return Result{}, fmt.Errorf("stitch, image A: %w", err)
	}
	detB, err := harris.Detect(db, hp)
	if err != nil {
		return Result{}, fmt.Errorf("stitch, image B: %w", err)
	}

	res := Result{CornersA: len(detA.Descriptors), CornersB: len(detB.Descriptors)}
	if res.CornersA == 0 || res.CornersB == 0 {
		return res, fmt.Errorf("stitch found %d and %d corners: %w", res.CornersA, res.CornersB, perr.ErrDegenerateInput)
	}
	if cfg.Verbosity > 1 {
		detA.Response.ToImg("cornerness A", "cornerness-a.png")
		detB.Response.ToImg("cornerness B", "cornerness-b.png")
	}

	ms, err := match.Descriptors(detA.Descriptors, detB.Descriptors, cfg.Workers)
	if err != nil {
		return res, fmt.Errorf("stitch: %w", err)
	}
	log.Infof("stitch: %d and %d corners, %d matches", res.CornersA, res.CornersB, len(ms))

	rctx := ctx
	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}
	rr, err := homography.RANSAC(rctx, ms, cfg.RansacParams(), rand.New(rand.NewSource(cfg.seed())))
	if err != nil {
		return res, fmt.Errorf("stitch: %w", err)
	}
	res.Inliers, res.Matches = rr.Inliers, rr.Matches

	res.H = rr.H
	if scale != 1 {
		// rr.H works on detection coords: H = Sb^-1 Hs Sa
		sa, sb := scaling(a, da), scaling(b, db)
		sbInv, err := sb.Inverse()
		if err != nil {
			return res, fmt.Errorf("stitch, rescaling H: %w", perr.ErrSingularSystem)
		}
		res.H = sbInv.Mult(rr.H).Mult(sa).Normalize()
	}

	res.Stats = ReprojectionStats(rr.H, rr.Matches[:rr.Inliers])
	diffTitle := ""
	if cfg.Verbosity > 0 {
		diffTitle = fmt.Sprintf("overlap, %d inliers", res.Inliers)
	}
	res.Stats.OverlapError, res.Stats.OverlapPix = OverlapError(a, b, res.H, diffTitle, "diff-overlap.png")

	res.Composite, res.Canvas, err = Combine(a, b, res.H, cfg.MaxCanvasPixels, cfg.Workers)
	if err != nil {
		return res, fmt.Errorf("stitch: %w", err)
	}

	if cfg.DrawDebug {
		ca := harris.DrawCorners(da, detA.Descriptors)
		cb := harris.DrawCorners(db, detB.Descriptors)
		res.Debug = DrawMatches(ca, cb, res.Matches, res.Inliers)
	}

	log.Infof("stitch: %s", res)
	return res, nil
}

func detectImages(cfg Config, a, b fimage.Image, scale float64) (fimage.Image, fimage.Image, error) {
	if scale == 1 {
		return a, b, nil
	}
	r, err := cfg.GetResampler()
	if err != nil {
		return a, b, err
	}
	resize := func(im fimage.Image) fimage.Image {
		w := int(math.Round(float64(im.W) * scale))
		h := int(math.Round(float64(im.H) * scale))
		return fimage.Resize(im, w, h, r, cfg.Workers)
	}
	return resize(a), resize(b), nil
}

// scaling maps full-size pixel coords to the resized image's, with
// pixel centres landing on pixel centres (as fimage.Resize does).
func scaling(full, small fimage.Image) emath.Mat3 {
	sx := float64(small.W) / float64(full.W)
	sy := float64(small.H) / float64(full.H)
	return emath.Identity().Translate(-0.5, -0.5).Scale(sx, sy).Translate(0.5, 0.5).ToMat3()
}
