package match

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/panorama/pkg/emath"
	"github.com/abworrall/panorama/pkg/harris"
	"github.com/abworrall/panorama/pkg/perr"
)

func desc(x float64, data ...float64) harris.Descriptor {
	return harris.Descriptor{P: emath.Point{X: x}, Data: data}
}

func TestL1(t *testing.T) {
	assert.Equal(t, 0.0, L1(nil, nil))
	assert.Equal(t, 6.0, L1([]float64{1, -2, 3}, []float64{0, 1, 1}))
}

func TestDescriptors(t *testing.T) {
	tests := []struct {
		name string
		a, b []harris.Descriptor
		want [][2]int // AI, BI pairs in output order
	}{
		{
			name: "empty a",
			a:    nil,
			b:    []harris.Descriptor{desc(0, 1)},
			want: [][2]int{},
		},
		{
			name: "empty b",
			a:    []harris.Descriptor{desc(0, 1)},
			b:    nil,
			want: [][2]int{},
		},
		{
			name: "sorted by distance",
			a:    []harris.Descriptor{desc(0, 10), desc(1, 0.5), desc(2, 5.2)},
			b:    []harris.Descriptor{desc(0, 0), desc(1, 5), desc(2, 9)},
			want: [][2]int{{2, 1}, {1, 0}, {0, 2}},
		},
		{
			name: "search tie goes to lower b index",
			a:    []harris.Descriptor{desc(0, 1)},
			b:    []harris.Descriptor{desc(0, 0), desc(1, 2), desc(2, 0)},
			want: [][2]int{{0, 0}},
		},
		{
			name: "duplicate b keeps the closest",
			a:    []harris.Descriptor{desc(0, 3), desc(1, 1.5), desc(2, 0.5)},
			b:    []harris.Descriptor{desc(0, 1), desc(1, 3)},
			want: [][2]int{{0, 1}, {1, 0}},
		},
		{
			name: "equal distances keep a order",
			a:    []harris.Descriptor{desc(0, 1), desc(1, -1)},
			b:    []harris.Descriptor{desc(0, 0)},
			want: [][2]int{{0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Descriptors(tt.a, tt.b, 2)
			require.NoError(t, err)
			pairs := [][2]int{}
			for _, m := range got {
				pairs = append(pairs, [2]int{m.AI, m.BI})
			}
			assert.Equal(t, tt.want, pairs)
		})
	}
}

func TestDescriptorsOneToOneAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mk := func(n int) []harris.Descriptor {
		out := make([]harris.Descriptor, n)
		for i := range out {
			data := make([]float64, 8)
			for j := range data {
				// coarse values force lots of distance ties
				data[j] = float64(rng.Intn(3))
			}
			out[i] = harris.Descriptor{P: emath.Point{X: float64(i), Y: float64(i)}, Data: data}
		}
		return out
	}
	a, b := mk(300), mk(120)

	first, err := Descriptors(a, b, 1)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.LessOrEqual(t, len(first), len(b))

	seen := map[int]bool{}
	for i, m := range first {
		assert.False(t, seen[m.BI], "b index %d used twice", m.BI)
		seen[m.BI] = true
		assert.Equal(t, a[m.AI].P, m.P)
		assert.Equal(t, b[m.BI].P, m.Q)
		if i > 0 {
			assert.LessOrEqual(t, first[i-1].Dist, m.Dist)
		}
	}

	for _, workers := range []int{2, 7, 0} {
		got, err := Descriptors(a, b, workers)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestDescriptorsLengthMismatch(t *testing.T) {
	rgb := []harris.Descriptor{desc(0, 1, 2, 3), desc(1, 4, 5, 6)}
	gray := []harris.Descriptor{desc(0, 1), desc(1, 2)}

	_, err := Descriptors(rgb, gray, 2)
	assert.ErrorIs(t, err, perr.ErrDegenerateInput)
	_, err = Descriptors(gray, rgb, 2)
	assert.ErrorIs(t, err, perr.ErrDegenerateInput)

	ragged := []harris.Descriptor{desc(0, 1), desc(1, 2, 3)}
	_, err = Descriptors(gray, ragged, 1)
	assert.ErrorIs(t, err, perr.ErrDegenerateInput)
}
