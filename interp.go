package reconstruct

// Resampling of a scalar signal sampled at irregular times onto a new,
// typically denser, set of query times. Both the linear and
// Catmull-Rom reconstructors share this primitive;
// the pipeline orchestrator (pipeline.go) calls one or the other depending
// on which reconstructor is currently running.

// LerpScalar linearly interpolates y as a function of x at query point q.
// x must be sorted ascending and the same length as y. Queries before
// x[0] clamp to y[0]; queries after the last x clamp to the last y.
func LerpScalar(x, y []float64, q float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	if n == 1 || q <= x[0] {
		return y[0]
	}
	if q >= x[n-1] {
		return y[n-1]
	}
	i := searchSorted(x, q)
	x0, x1 := x[i-1], x[i]
	y0, y1 := y[i-1], y[i]
	t := (q - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// LerpAngle linearly interpolates an angle in radians as a function of x,
// taking the shortest angular path between consecutive samples so a
// heading resample never wraps the long way around through +-pi.
func LerpAngle(x, y []float64, q float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	if n == 1 || q <= x[0] {
		return NormalizeAngle(y[0])
	}
	if q >= x[n-1] {
		return NormalizeAngle(y[n-1])
	}
	i := searchSorted(x, q)
	x0, x1 := x[i-1], x[i]
	y0, y1 := NormalizeAngle(y[i-1]), NormalizeAngle(y[i])
	delta := NormalizeAngle(y1 - y0)
	t := (q - x0) / (x1 - x0)
	return NormalizeAngle(y0 + t*delta)
}

// CatmullRomScalar reconstructs y as a function of x at query point q using
// a uniform Catmull-Rom spline over the four samples
// bracketing q (or the nearest available ones at the ends, via edge
// duplication). x must be sorted ascending.
func CatmullRomScalar(x, y []float64, q float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	if n == 1 || q <= x[0] {
		return y[0]
	}
	if q >= x[n-1] {
		return y[n-1]
	}

	i := searchSorted(x, q)
	i0, i1, i2, i3 := i-2, i-1, i, i+1
	if i0 < 0 {
		i0 = 0
	}
	if i3 > n-1 {
		i3 = n - 1
	}

	x1, x2 := x[i1], x[i2]
	t := (q - x1) / (x2 - x1)
	p0, p1, p2, p3 := y[i0], y[i1], y[i2], y[i3]

	return catmullRom(p0, p1, p2, p3, t)
}

// catmullRom evaluates the uniform Catmull-Rom basis at parameter t in
// [0, 1] between p1 and p2, using p0/p3 as the tangent-defining neighbors.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// searchSorted returns the index of the first element of x strictly
// greater than q, assuming x[0] < q < x[len(x)-1] and len(x) >= 2 (callers
// guard the boundary cases themselves).
func searchSorted(x []float64, q float64) int {
	lo, hi := 0, len(x)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if x[mid] <= q {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
