package reconstruct

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Fixed-size dense linear algebra for the Kalman/EKF components, kept
// small and inspectable rather than pulled from a general-purpose BLAS-
// backed library. An earlier math.go leaned on gonum/matrix (mat64)
// for every vector and matrix operation; hand-rolled routines are used
// here instead, since the EKF and 1-D Kalman filter must produce
// bit-identical output across runs and a general-purpose BLAS-backed
// library is both overkill at 2x2/7x7 scale and an opaque dependency for
// something this size. The vector-op naming (Norm, Unit, Dot, Cross) is
// kept from that earlier file; the matrix type underneath is new.

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Unit returns the unit vector of a, or the zero vector if a is itself
// (numerically) zero.
func Unit(a []float64) []float64 {
	n := Norm(a)
	b := make([]float64, len(a))
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return b
	}
	for i, v := range a {
		b[i] = v / n
	}
	return b
}

// Sign returns the sign of v, treating values within 1e-12 of zero as
// positive (matches the established convention so downstream formulas never
// divide by zero).
func Sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 1
}

// Dot is the inner product of two equal-length vectors.
func Dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Cross is the 3-vector cross product a x b.
func Cross(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Matrix is a small dense row-major matrix, sized for the 1-D Kalman's 2x2
// state and the EKF's 7x7 state — never expected to hold more than a few
// dozen entries.
type Matrix struct {
	Rows, Cols int
	data       []float64
}

// NewMatrix allocates a zero rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, data: make([]float64, rows*cols)}
}

// NewMatrixFromRows builds a Matrix from row-major literal data.
func NewMatrixFromRows(rows [][]float64) *Matrix {
	r := len(rows)
	if r == 0 {
		return NewMatrix(0, 0)
	}
	c := len(rows[0])
	m := NewMatrix(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rows[i][j])
		}
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// At returns the entry at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.Cols+j]
}

// Set assigns the entry at (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.Cols+j] = v
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	copy(out.data, m.data)
	return out
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// Mul returns m * other. Panics on dimension mismatch, failing fast on
// programmer error rather than returning a zero-value result.
func (m *Matrix) Mul(other *Matrix) *Matrix {
	if m.Cols != other.Rows {
		panic("linalg: dimension mismatch in Mul")
	}
	out := NewMatrix(m.Rows, other.Cols)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < other.Cols; j++ {
			sum := 0.0
			for k := 0; k < m.Cols; k++ {
				sum += m.At(i, k) * other.At(k, j)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// Add returns m + other.
func (m *Matrix) Add(other *Matrix) *Matrix {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		panic("linalg: dimension mismatch in Add")
	}
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.data {
		out.data[i] = m.data[i] + other.data[i]
	}
	return out
}

// Sub returns m - other.
func (m *Matrix) Sub(other *Matrix) *Matrix {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		panic("linalg: dimension mismatch in Sub")
	}
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.data {
		out.data[i] = m.data[i] - other.data[i]
	}
	return out
}

// Scale returns m scaled by s.
func (m *Matrix) Scale(s float64) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.data {
		out.data[i] = m.data[i] * s
	}
	return out
}

// MulVec returns m * v for a column vector v.
func (m *Matrix) MulVec(v []float64) []float64 {
	if m.Cols != len(v) {
		panic("linalg: dimension mismatch in MulVec")
	}
	out := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		sum := 0.0
		for j := 0; j < m.Cols; j++ {
			sum += m.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out
}

// Inverse computes the inverse of m via Gauss-Jordan elimination with
// partial pivoting, up to 7x7. If the matrix is singular or
// near-singular (best available pivot magnitude below 1e-12), Inverse
// soft-fails by returning the identity matrix rather than propagating an
// error — the Kalman/EKF update steps treat this as "skip this
// correction," not a fatal condition.
func (m *Matrix) Inverse() *Matrix {
	n := m.Rows
	if n != m.Cols {
		panic("linalg: Inverse requires a square matrix")
	}

	aug := NewMatrix(n, 2*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, m.At(i, j))
		}
		aug.Set(i, n+i, 1)
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		best := math.Abs(aug.At(col, col))
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug.At(r, col)); v > best {
				best = v
				pivotRow = r
			}
		}
		if best < 1e-12 {
			return Identity(n)
		}
		if pivotRow != col {
			for j := 0; j < 2*n; j++ {
				aug.data[col*aug.Cols+j], aug.data[pivotRow*aug.Cols+j] =
					aug.data[pivotRow*aug.Cols+j], aug.data[col*aug.Cols+j]
			}
		}

		pivot := aug.At(col, col)
		for j := 0; j < 2*n; j++ {
			aug.Set(col, j, aug.At(col, j)/pivot)
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug.At(r, col)
			if factor == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug.Set(r, j, aug.At(r, j)-factor*aug.At(col, j))
			}
		}
	}

	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, aug.At(i, n+j))
		}
	}
	return out
}
