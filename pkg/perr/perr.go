// Package perr holds the error kinds that the registration pipeline
// can fail with. Stages wrap these with fmt.Errorf("...: %w", err),
// so callers should test with errors.Is.
package perr

import "errors"

var (
	// ErrDegenerateInput is returned for images that can't be worked on
	// (zero sized, wrong channel count, absurd output canvas).
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInsufficientMatches means fewer than four correspondences were
	// available to fit a homography.
	ErrInsufficientMatches = errors.New("insufficient matches")

	// ErrSingularSystem means the linear system behind a fit (or an
	// inverse) had no unique solution, e.g. collinear or repeated points.
	ErrSingularSystem = errors.New("singular system")

	// ErrEmptyConsensus means RANSAC never found a model with any inliers.
	ErrEmptyConsensus = errors.New("empty consensus")
)
