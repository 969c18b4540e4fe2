package reconstruct

import "gonum.org/v1/gonum/floats"

// axisEstimate holds the forward-pass state at one high-rate sample: the
// predicted pair (before any measurement update) and the corrected pair
// (after). The RTS backward pass needs both.
type axisEstimate struct {
	xPred [2]float64
	PPred *Matrix
	xUpd  [2]float64
	PUpd  *Matrix
}

// KalmanAxisRun applies the 1-D Kalman filter + RTS smoother to one
// coordinate axis (latitude or longitude, in raw degrees, per the
// design note that the filter operates directly on lat/lon with R, Q
// converted from metres to degrees via degPerMeter for this axis) across
// the full high-rate timebase `times`. measTimes/measValues carry the
// sparse positional measurements, both sorted ascending and a subset of
// times (exact matches, since the downsampled fix set is derived from the
// same high-rate stream).
//
// Returns the smoothed axis value at every entry of times, and appends a
// human-readable warning to *warnings for every RTS step that had to fall
// back to the forward-pass estimate because the one-step-ahead prediction
// covariance was singular.
func KalmanAxisRun(times, measTimes, measValues []float64, cfg KalmanConfig, degPerMeter float64, warnings *[]string) []float64 {
	n := len(times)
	if n == 0 {
		return nil
	}

	r := cfg.R * degPerMeter * degPerMeter
	q := cfg.Q * degPerMeter * degPerMeter

	measAt := make(map[string]float64, len(measTimes))
	for i, t := range measTimes {
		measAt[timestampKey(t)] = measValues[i]
	}

	estimates := make([]axisEstimate, n)

	x := [2]float64{0, 0}
	if v, ok := measAt[timestampKey(times[0])]; ok {
		x[0] = v
	} else if len(measValues) > 0 {
		x[0] = measValues[0]
	}
	P := Identity(2).Scale(cfg.InitialP)

	estimates[0] = axisEstimate{xPred: x, PPred: P.Clone(), xUpd: x, PUpd: P.Clone()}
	if v, ok := measAt[timestampKey(times[0])]; ok {
		x, P = kalmanUpdate1D(x, P, v, r)
		estimates[0].xUpd, estimates[0].PUpd = x, P.Clone()
	}

	for i := 1; i < n; i++ {
		dt := times[i] - times[i-1]
		if dt > 0 {
			x, P = kalmanPredict1D(x, P, dt, q)
		}
		pPred := P.Clone()
		xPred := x

		if v, ok := measAt[timestampKey(times[i])]; ok {
			x, P = kalmanUpdate1D(x, P, v, r)
		}

		estimates[i] = axisEstimate{xPred: xPred, PPred: pPred, xUpd: x, PUpd: P.Clone()}
	}

	smoothedX := make([][2]float64, n)
	smoothedX[n-1] = estimates[n-1].xUpd
	smoothedP := make([]*Matrix, n)
	smoothedP[n-1] = estimates[n-1].PUpd

	for i := n - 2; i >= 0; i-- {
		dtNext := times[i+1] - times[i]
		F := NewMatrixFromRows([][]float64{{1, dtNext}, {0, 1}})

		pPredNext := estimates[i+1].PPred
		det := pPredNext.At(0, 0)*pPredNext.At(1, 1) - pPredNext.At(0, 1)*pPredNext.At(1, 0)
		if floats.EqualWithinAbs(det, 0, 1e-12) {
			smoothedX[i] = estimates[i].xUpd
			smoothedP[i] = estimates[i].PUpd
			if warnings != nil {
				*warnings = append(*warnings, "kalman_rts: singular one-step covariance, reused forward estimate")
			}
			continue
		}

		pUpd := estimates[i].PUpd
		C := pUpd.Mul(F.Transpose()).Mul(pPredNext.Inverse())

		xDiff := []float64{smoothedX[i+1][0] - estimates[i+1].xPred[0], smoothedX[i+1][1] - estimates[i+1].xPred[1]}
		corr := C.MulVec(xDiff)
		smoothedX[i] = [2]float64{estimates[i].xUpd[0] + corr[0], estimates[i].xUpd[1] + corr[1]}

		pDiff := smoothedP[i+1].Sub(pPredNext)
		smoothedP[i] = pUpd.Add(C.Mul(pDiff).Mul(C.Transpose()))
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = smoothedX[i][0]
	}
	return out
}

// kalmanPredict1D advances the [p, v] state and covariance by dt under the
// constant-velocity model.
func kalmanPredict1D(x [2]float64, P *Matrix, dt, q float64) ([2]float64, *Matrix) {
	F := NewMatrixFromRows([][]float64{{1, dt}, {0, 1}})
	xNext := [2]float64{x[0] + dt*x[1], x[1]}

	Qd := NewMatrixFromRows([][]float64{
		{dt * dt * dt * dt / 4 * q, dt * dt * dt / 2 * q},
		{dt * dt * dt / 2 * q, dt * dt * q},
	})
	PNext := F.Mul(P).Mul(F.Transpose()).Add(Qd)
	return xNext, PNext
}

// kalmanUpdate1D applies the scalar measurement update H = [1, 0], R = r.
func kalmanUpdate1D(x [2]float64, P *Matrix, z, r float64) ([2]float64, *Matrix) {
	s := P.At(0, 0) + r
	if floats.EqualWithinAbs(s, 0, 1e-12) {
		return x, P
	}
	k0 := P.At(0, 0) / s
	k1 := P.At(1, 0) / s
	innovation := z - x[0]

	xNext := [2]float64{x[0] + k0*innovation, x[1] + k1*innovation}

	// P <- (I - K*H) * P, with H = [1, 0] so K*H has only a first column.
	p00, p01 := P.At(0, 0), P.At(0, 1)
	p10, p11 := P.At(1, 0), P.At(1, 1)
	PNext := NewMatrixFromRows([][]float64{
		{(1 - k0) * p00, (1 - k0) * p01},
		{p10 - k1*p00, p11 - k1*p01},
	})
	return xNext, PNext
}
