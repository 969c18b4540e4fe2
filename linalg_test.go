package reconstruct

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestCrossBasisVectors(t *testing.T) {
	i := []float64{1, 0, 0}
	j := []float64{0, 1, 0}
	k := []float64{0, 0, 1}
	if !vecClose(Cross(i, j), k) {
		t.Fatal("i x j != k")
	}
	if !vecClose(Cross(j, k), i) {
		t.Fatal("j x k != i")
	}
	if !vecClose(Cross([]float64{2, 3, 4}, []float64{5, 6, 7}), []float64{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
}

func TestNormAndUnit(t *testing.T) {
	v := []float64{5, 6, 7}
	if !floats.EqualWithinAbs(Norm(v), math.Sqrt(110), 1e-12) {
		t.Fatalf("Norm = %v, want sqrt(110)", Norm(v))
	}
	nilVec := []float64{0, 0, 0}
	if Norm(nilVec) != 0 {
		t.Fatal("Norm of a nil vector was not zero")
	}
	u := Unit(nilVec)
	for i := range u {
		if u[i] != 0 {
			t.Fatalf("Unit of zero vector should be zero, got %v", u)
		}
	}

	u2 := Unit([]float64{3, 0, 0})
	if !vecClose(u2, []float64{1, 0, 0}) {
		t.Fatalf("Unit([3,0,0]) = %v, want [1,0,0]", u2)
	}
}

func TestSign(t *testing.T) {
	if Sign(10) != 1 {
		t.Fatal("Sign(10) != 1")
	}
	if Sign(-10) != -1 {
		t.Fatal("Sign(-10) != -1")
	}
	if Sign(0) != 1 {
		t.Fatal("Sign(0) != 1")
	}
}

func TestDot(t *testing.T) {
	if Dot([]float64{1, 2, 3}, []float64{4, 5, 6}) != 32 {
		t.Fatalf("Dot = %v, want 32", Dot([]float64{1, 2, 3}, []float64{4, 5, 6}))
	}
}

func TestMatrixMulIdentity(t *testing.T) {
	m := NewMatrixFromRows([][]float64{{1, 2}, {3, 4}})
	id := Identity(2)
	got := m.Mul(id)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if got.At(i, j) != m.At(i, j) {
				t.Fatalf("m * I != m at (%d,%d): got %v want %v", i, j, got.At(i, j), m.At(i, j))
			}
		}
	}
}

func TestMatrixTranspose(t *testing.T) {
	m := NewMatrixFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := m.Transpose()
	if tr.Rows != 3 || tr.Cols != 2 {
		t.Fatalf("transpose dims = (%d,%d), want (3,2)", tr.Rows, tr.Cols)
	}
	if tr.At(0, 1) != 4 || tr.At(2, 0) != 3 {
		t.Fatalf("transpose values wrong: %+v", tr)
	}
}

func TestMatrixAddSub(t *testing.T) {
	a := NewMatrixFromRows([][]float64{{1, 2}, {3, 4}})
	b := NewMatrixFromRows([][]float64{{5, 6}, {7, 8}})
	sum := a.Add(b)
	if sum.At(0, 0) != 6 || sum.At(1, 1) != 12 {
		t.Fatalf("Add wrong: %+v", sum)
	}
	diff := b.Sub(a)
	if diff.At(0, 0) != 4 || diff.At(1, 1) != 4 {
		t.Fatalf("Sub wrong: %+v", diff)
	}
}

func TestMatrixMulVec(t *testing.T) {
	m := NewMatrixFromRows([][]float64{{1, 0}, {0, 1}})
	got := m.MulVec([]float64{3, 4})
	if !vecClose(got, []float64{3, 4}) {
		t.Fatalf("MulVec by identity = %v, want [3,4]", got)
	}
}

func TestMatrixInverse2x2(t *testing.T) {
	m := NewMatrixFromRows([][]float64{{4, 7}, {2, 6}})
	inv := m.Inverse()
	prod := m.Mul(inv)
	id := Identity(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if !floats.EqualWithinAbs(prod.At(i, j), id.At(i, j), 1e-9) {
				t.Fatalf("m * inv(m) != I at (%d,%d): got %v", i, j, prod.At(i, j))
			}
		}
	}
}

// TestMatrixInverseSingularSoftFails guards the soft-fail contract: a
// singular matrix must return identity, not panic or propagate an
// error, since the Kalman/EKF update steps treat this as "skip this
// correction."
func TestMatrixInverseSingularSoftFails(t *testing.T) {
	m := NewMatrixFromRows([][]float64{{1, 2}, {2, 4}})
	inv := m.Inverse()
	id := Identity(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if inv.At(i, j) != id.At(i, j) {
				t.Fatalf("singular matrix should soft-fail to identity, got %+v", inv)
			}
		}
	}
}

func vecClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !floats.EqualWithinAbs(a[i], b[i], 1e-9) {
			return false
		}
	}
	return true
}
