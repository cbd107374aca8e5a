// Package match pairs up descriptors from two images.
package match

import(
	"fmt"
	"math"
	"sort"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/perr"
	"github.com/abworrall/panorama/pkg/workpool"
)

// A Match says descriptor AI in image A looks like descriptor BI in
// image B; P and Q are where they are.
type Match struct {
	P, Q    emath.Point
	AI, BI  int
	Dist    float64
}

func (m Match)String() string {
	return fmt.Sprintf("%s[%d] -> %s[%d] (%.3f)", m.P, m.AI, m.Q, m.BI, m.Dist)
}

// L1 is the sum of absolute differences; a and b must be the same length.
func L1(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d
}

// Descriptors finds the nearest B descriptor (by L1) for every A
// descriptor, then keeps the best match for each B descriptor so the
// result is one-to-one. It is sorted by ascending distance. Ties go to
// the lower index, both in the search and in the sort, so the result
// doesn't depend on how the work was split up. Descriptors of
// different lengths (e.g. from images with different channel counts)
// can't be compared, and give ErrDegenerateInput.
func Descriptors(a, b []harris.Descriptor, workers int) ([]Match, error) {
	if len(a) == 0 || len(b) == 0 {
		return []Match{}, nil
	}
	n := len(a[0].Data)
	for _, ds := range [][]harris.Descriptor{a, b} {
		for i := range ds {
			if len(ds[i].Data) != n {
				return nil, fmt.Errorf("descriptor %s, want length %d: %w", ds[i], n, perr.ErrDegenerateInput)
			}
		}
	}

	cands := make([]Match, len(a))
	workpool.Each(len(a), workers, func(i int) {
		bi, best := 0, L1(a[i].Data, b[0].Data)
		for j:=1; j<len(b); j++ {
			if d := L1(a[i].Data, b[j].Data); d < best {
				bi, best = j, d
			}
		}
		cands[i] = Match{P: a[i].P, Q: b[bi].P, AI: i, BI: bi, Dist: best}
	})

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Dist < cands[j].Dist })

	seen := make([]bool, len(b))
	out := cands[:0]
	for _, m := range cands {
		if !seen[m.BI] {
			seen[m.BI] = true
			out = append(out, m)
		}
	}
	return out, nil
}
