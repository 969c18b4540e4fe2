package reconstruct

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestLerpScalarBasic(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 10, 20, 30}
	if got := LerpScalar(x, y, 1.5); !floats.EqualWithinAbs(got, 15, 1e-9) {
		t.Fatalf("LerpScalar(1.5) = %v, want 15", got)
	}
	if got := LerpScalar(x, y, 0); got != 0 {
		t.Fatalf("LerpScalar(0) = %v, want 0", got)
	}
}

func TestLerpScalarClampsAtEdges(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{10, 20, 30}
	if got := LerpScalar(x, y, -5); got != 10 {
		t.Fatalf("LerpScalar below range = %v, want clamp to 10", got)
	}
	if got := LerpScalar(x, y, 99); got != 30 {
		t.Fatalf("LerpScalar above range = %v, want clamp to 30", got)
	}
}

func TestLerpAngleWrapsShortestPath(t *testing.T) {
	x := []float64{0, 1}
	y := []float64{3.0, -3.0} // close to +/- pi, should wrap across pi not through 0
	got := LerpAngle(x, y, 0.5)
	// Expect the interpolated angle to be near +/-pi, not near 0.
	if floats.EqualWithinAbs(got, 0, 2.5) {
		t.Fatalf("LerpAngle took the long way around: got %v", got)
	}
}

func TestCatmullRomPassesThroughSamples(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0, 1, 4, 9, 16} // y = x^2, sampled

	for i, xi := range x {
		got := CatmullRomScalar(x, y, xi)
		if !floats.EqualWithinAbs(got, y[i], 1e-9) {
			t.Fatalf("CatmullRomScalar(%v) = %v, want %v (exact at knots)", xi, got, y[i])
		}
	}
}

func TestCatmullRomClampsAtEdges(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{5, 6, 7, 8}
	if got := CatmullRomScalar(x, y, -10); got != 5 {
		t.Fatalf("below range = %v, want 5", got)
	}
	if got := CatmullRomScalar(x, y, 100); got != 8 {
		t.Fatalf("above range = %v, want 8", got)
	}
}

func TestCatmullRomSmoothBetweenKnots(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 10, 10, 0}
	mid := CatmullRomScalar(x, y, 1.5)
	if mid < 5 || mid > 15 {
		t.Fatalf("midpoint interpolation out of plausible range: %v", mid)
	}
}
