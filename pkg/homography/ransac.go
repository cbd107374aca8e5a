package homography

import(
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/match"
	"github.com/abworrall/panorama/pkg/perr"
	"github.com/abworrall/panorama/pkg/workpool"
)

// Rand is the randomness RANSAC needs; *math/rand.Rand will do.
type Rand interface {
	Intn(n int) int
}

type Params struct {
	InlierThresh float64  // reprojection distance (pixels) under which a match is an inlier
	Iterations   int      // max number of samples to try
	Cutoff       int      // stop as soon as a model has more inliers than this
	Workers      int
}

func DefaultParams() Params {
	return Params{
		InlierThresh: 2,
		Iterations:   10000,
		Cutoff:       30,
	}
}

type Result struct {
	H          emath.Mat3
	Inliers    int            // Matches[:Inliers] are the inliers of H
	Matches    []match.Match  // the input slice, partitioned by H
	Iterations int            // how many samples were actually tried
}

// placeholder is what "best" starts as; it is never returned
var placeholder = Translation(256, 0)

// Partition reorders ms in place so the matches that H takes to within
// thresh of their partner come first, keeping relative order on both
// sides. It returns the two halves, which share ms's backing array.
func Partition(h emath.Mat3, ms []match.Match, thresh float64, workers int) (inliers, outliers []match.Match) {
	in := make([]bool, len(ms))
	workpool.Each(len(ms), workers, func(i int) {
		in[i] = h.Project(ms[i].P).Distance(ms[i].Q) < thresh
	})

	// Stable partition; the out list is small enough to buffer
	out := []match.Match{}
	n := 0
	for i, m := range ms {
		if in[i] {
			ms[n] = m
			n++
		} else {
			out = append(out, m)
		}
	}
	copy(ms[n:], out)

	return ms[:n], ms[n:]
}

func shuffle(ms []match.Match, rng Rand) {
	for i:=len(ms)-1; i>0; i-- {
		j := rng.Intn(i+1)
		ms[i], ms[j] = ms[j], ms[i]
	}
}

// RANSAC searches for the homography with the most inliers among ms:
// each iteration fits a model to 4 random matches, counts its inliers,
// and when that beats the best so far, refits on all of them. It runs
// until p.Iterations, until a model has more than p.Cutoff inliers, or
// until ctx is done. ms is reordered as a side effect; on success it is
// left partitioned by the returned H.
func RANSAC(ctx context.Context, ms []match.Match, p Params, rng Rand) (Result, error) {
	if len(ms) < 4 {
		return Result{}, fmt.Errorf("ransac over %d matches: %w", len(ms), perr.ErrInsufficientMatches)
	}

	bestH, best := placeholder, 0
	iter := 0
	var ctxErr error

	for ; iter < p.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		shuffle(ms, rng)
		h, err := Compute(ms[:4])
		if err != nil {
			continue
		}

		in, _ := Partition(h, ms, p.InlierThresh, p.Workers)
		if len(in) <= best {
			continue
		}
		bestH, best = h, len(in)

		// Refit on the whole consensus set; ms[:best] holds it right now
		if refit, err := Compute(in); err == nil {
			if in2, _ := Partition(refit, ms, p.InlierThresh, p.Workers); len(in2) >= best {
				bestH, best = refit, len(in2)
			} else {
				Partition(bestH, ms, p.InlierThresh, p.Workers)
			}
		}

		log.Debug("ransac improved", "iteration", iter, "inliers", best)
		if best > p.Cutoff {
			iter++
			break
		}
	}

	if best == 0 {
		if ctxErr != nil {
			return Result{}, fmt.Errorf("ransac after %d iterations: %w", iter, errors.Join(perr.ErrEmptyConsensus, ctxErr))
		}
		return Result{}, fmt.Errorf("ransac after %d iterations: %w", iter, perr.ErrEmptyConsensus)
	}
	if ctxErr != nil {
		log.Warn("ransac stopped early", "iterations", iter, "err", ctxErr)
	}

	in, _ := Partition(bestH, ms, p.InlierThresh, p.Workers)
	log.Infof("found %d inliers (%d matches, %d iterations)", len(in), len(ms), iter)

	return Result{H: bestH, Inliers: len(in), Matches: ms, Iterations: iter}, nil
}
