package emath

// Dense matrices for the least-squares fits. Storage (and the boring
// products) come from gonum; inversion is our own Gauss-Jordan, so we
// control the pivot tolerance and get a clean singular error.

import(
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var(
	ErrSingular          = errors.New("matrix is singular")
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")
)

// Pivots smaller than this, relative to the largest entry, count as zero
const pivotTolerance = 1e-10

type Matrix struct {
	d *mat.Dense
}

// NewMatrix makes a rows x cols matrix; data is row-major and copied,
// nil means all zeros.
func NewMatrix(rows, cols int, data []float64) Matrix {
	var backing []float64
	if data != nil {
		backing = make([]float64, len(data))
		copy(backing, data)
	}
	return Matrix{d: mat.NewDense(rows, cols, backing)}
}

func NewIdentity(n int) Matrix {
	m := NewMatrix(n, n, nil)
	for i:=0; i<n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (m Matrix)Rows() int                   { r, _ := m.d.Dims(); return r }
func (m Matrix)Cols() int                   { _, c := m.d.Dims(); return c }
func (m Matrix)At(r, c int) float64         { return m.d.At(r, c) }
func (m Matrix)Set(r, c int, v float64)     { m.d.Set(r, c, v) }

func (m Matrix)Copy() Matrix {
	return Matrix{d: mat.DenseCopyOf(m.d)}
}

func (m Matrix)Transpose() Matrix {
	return Matrix{d: mat.DenseCopyOf(m.d.T())}
}

// Mult returns m*n.
func (m Matrix)Mult(n Matrix) (Matrix, error) {
	if m.Cols() != n.Rows() {
		return Matrix{}, fmt.Errorf("%w: %dx%d * %dx%d", ErrDimensionMismatch, m.Rows(), m.Cols(), n.Rows(), n.Cols())
	}
	var out mat.Dense
	out.Mul(m.d, n.d)
	return Matrix{d: &out}, nil
}

// Invert does Gauss-Jordan elimination with partial pivoting on [m|I].
func (m Matrix)Invert() (Matrix, error) {
	n := m.Rows()
	if n != m.Cols() {
		return Matrix{}, fmt.Errorf("%w: inverting %dx%d", ErrDimensionMismatch, n, m.Cols())
	}

	scale := 0.0
	for r:=0; r<n; r++ {
		for c:=0; c<n; c++ {
			scale = math.Max(scale, math.Abs(m.At(r, c)))
		}
	}
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Matrix{}, ErrSingular
	}

	a := m.Copy()
	inv := NewIdentity(n)

	for col:=0; col<n; col++ {
		// Pick the largest remaining pivot in this column
		pivot := col
		for r:=col+1; r<n; r++ {
			if math.Abs(a.At(r, col)) > math.Abs(a.At(pivot, col)) {
				pivot = r
			}
		}
		if math.Abs(a.At(pivot, col)) < pivotTolerance * scale {
			return Matrix{}, ErrSingular
		}
		if pivot != col {
			a.swapRows(pivot, col)
			inv.swapRows(pivot, col)
		}

		p := a.At(col, col)
		for c:=0; c<n; c++ {
			a.Set(col, c, a.At(col, c) / p)
			inv.Set(col, c, inv.At(col, c) / p)
		}

		for r:=0; r<n; r++ {
			if r == col {
				continue
			}
			f := a.At(r, col)
			if f == 0 {
				continue
			}
			for c:=0; c<n; c++ {
				a.Set(r, c, a.At(r, c) - f*a.At(col, c))
				inv.Set(r, c, inv.At(r, c) - f*inv.At(col, c))
			}
		}
	}

	return inv, nil
}

func (m Matrix)swapRows(i, j int) {
	for c:=0; c<m.Cols(); c++ {
		vi, vj := m.At(i, c), m.At(j, c)
		m.Set(i, c, vj)
		m.Set(j, c, vi)
	}
}

// LeastSquares solves min |Mx - b| via the normal equations,
// x = inv(MtM) Mt b. b is a column vector (rows x 1).
func LeastSquares(m, b Matrix) (Matrix, error) {
	if m.Rows() != b.Rows() {
		return Matrix{}, fmt.Errorf("%w: system %dx%d, rhs %dx%d", ErrDimensionMismatch, m.Rows(), m.Cols(), b.Rows(), b.Cols())
	}
	mt := m.Transpose()
	mtm, err := mt.Mult(m)
	if err != nil {
		return Matrix{}, err
	}
	inv, err := mtm.Invert()
	if err != nil {
		return Matrix{}, err
	}
	mtb, err := mt.Mult(b)
	if err != nil {
		return Matrix{}, err
	}
	return inv.Mult(mtb)
}

func (m Matrix)String() string {
	str := ""
	for r:=0; r<m.Rows(); r++ {
		str += "["
		for c:=0; c<m.Cols(); c++ {
			if c > 0 {
				str += ", "
			}
			str += fmt.Sprintf("%10f", m.At(r, c))
		}
		str += "]\n"
	}
	return str
}
