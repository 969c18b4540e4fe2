package reconstruct

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ekfState is the seven-state EKF: [px, py, vx, vy, psi,
// b_ax, b_ay]. px/py are local east/north metres relative to the
// reference (lat0, lon0) fixed at initialisation; psi is heading in
// radians, normalised to (-pi, pi], measured clockwise from north;
// b_ax/b_ay are body-frame accelerometer biases in m/s^2.
type ekfState struct {
	x    [7]float64
	P    *Matrix
	lat0 float64
	lon0 float64
}

const (
	ekfPX = iota
	ekfPY
	ekfVX
	ekfVY
	ekfPsi
	ekfBAX
	ekfBAY
)

// RunEKF fuses the downsampled positional fixes with body-frame inertial
// samples from enriched over the full lap. It returns one
// PositionalFix per enriched sample from the initialisation index onward;
// callers that need the full-length reconstruction pad the gap before
// initialisation themselves (the orchestrator does this by holding the raw
// fix's position steady until the EKF comes alive).
//
// Degenerate updates (singular innovation covariance) are recovered
// locally by skipping that update; a note is appended to
// *warnings when this happens.
func RunEKF(enriched []EnrichedPoint, fixes []DownsampledFix, params EKFParams, g, metersPerDegLat, imuHz float64, warnings *[]string) []PositionalFix {
	initFixIdx := -1
	for i, f := range fixes {
		src := enriched[f.OriginalIndex]
		if src.Speed > params.MinSpeedForHeading {
			initFixIdx = i
			break
		}
	}
	if initFixIdx == -1 {
		return nil
	}

	initFix := fixes[initFixIdx]
	initSrc := enriched[initFix.OriginalIndex]

	st := &ekfState{lat0: initFix.Lat, lon0: initFix.Lon}
	psi0 := NormalizeAngle(initSrc.Bearing * math.Pi / 180)
	st.x = [7]float64{0, 0, initSrc.Speed * math.Sin(psi0), initSrc.Speed * math.Cos(psi0), psi0, 0, 0}
	st.P = NewMatrixFromRows([][]float64{
		{10, 0, 0, 0, 0, 0, 0},
		{0, 10, 0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0},
		{0, 0, 0, 0, 0.1, 0, 0},
		{0, 0, 0, 0, 0, 0.1, 0},
		{0, 0, 0, 0, 0, 0, 0.1},
	})

	dt := 1.0 / imuHz
	startIdx := initFix.OriginalIndex
	out := make([]PositionalFix, 0, len(enriched)-startIdx)
	out = append(out, toGPSFix(st, enriched[startIdx].Timestamp, metersPerDegLat))

	nextFix := initFixIdx + 1

	for i := startIdx + 1; i < len(enriched); i++ {
		s := enriched[i]
		ekfPredict(st, s.LateralAcc, s.LongitudinalAcc, s.YawRate, dt, g, params)

		for nextFix < len(fixes) && s.Timestamp >= fixes[nextFix].Timestamp {
			fix := fixes[nextFix]
			accuracy := enriched[fix.OriginalIndex].Accuracy
			if accuracy <= 0 {
				accuracy = params.GPSPosNoise
			}
			ekfUpdate(st, fix, accuracy, metersPerDegLat, params, warnings)
			nextFix++
		}

		out = append(out, toGPSFix(st, s.Timestamp, metersPerDegLat))
	}

	return out
}

func toGPSFix(st *ekfState, t, metersPerDegLat float64) PositionalFix {
	lat, lon := LocalToGPS(st.x[ekfPX], st.x[ekfPY], st.lat0, st.lon0, metersPerDegLat)
	return PositionalFix{Timestamp: t, Lat: lat, Lon: lon}
}

// ekfPredict advances st by dt using body-frame inertial inputs.
// Sign conventions: the source's lateral acceleration and yaw rate
// are inverted relative to the EKF's own convention (positive lateral to
// the right, positive yaw rate clockwise), so the fixed negations below
// are part of the input adapter's contract, not a bug.
func ekfPredict(st *ekfState, lateralAccG, longitudinalAccG, yawRateDegS, dt, g float64, params EKFParams) {
	psi := st.x[ekfPsi]
	bax := st.x[ekfBAX]
	bay := st.x[ekfBAY]

	aLat := -lateralAccG*g - bax
	aLon := longitudinalAccG*g - bay
	omegaZ := -yawRateDegS * math.Pi / 180

	sinPsi, cosPsi := math.Sin(psi), math.Cos(psi)
	axW := aLat*cosPsi + aLon*sinPsi
	ayW := -aLat*sinPsi + aLon*cosPsi

	px, py := st.x[ekfPX], st.x[ekfPY]
	vx, vy := st.x[ekfVX], st.x[ekfVY]

	st.x[ekfPX] = px + vx*dt + 0.5*axW*dt*dt
	st.x[ekfPY] = py + vy*dt + 0.5*ayW*dt*dt
	st.x[ekfVX] = vx + axW*dt
	st.x[ekfVY] = vy + ayW*dt
	st.x[ekfPsi] = NormalizeAngle(psi + omegaZ*dt)
	// biases evolve as a random walk: mean unchanged, variance grows via Q.

	dt2 := dt * dt
	F := Identity(7)
	F.Set(ekfPX, ekfVX, dt)
	F.Set(ekfPX, ekfPsi, 0.5*dt2*ayW)
	F.Set(ekfPX, ekfBAX, -0.5*dt2*cosPsi)
	F.Set(ekfPX, ekfBAY, -0.5*dt2*sinPsi)

	F.Set(ekfPY, ekfVY, dt)
	F.Set(ekfPY, ekfPsi, -0.5*dt2*axW)
	F.Set(ekfPY, ekfBAX, 0.5*dt2*sinPsi)
	F.Set(ekfPY, ekfBAY, -0.5*dt2*cosPsi)

	F.Set(ekfVX, ekfPsi, dt*ayW)
	F.Set(ekfVX, ekfBAX, -dt*cosPsi)
	F.Set(ekfVX, ekfBAY, -dt*sinPsi)

	F.Set(ekfVY, ekfPsi, -dt*axW)
	F.Set(ekfVY, ekfBAX, dt*sinPsi)
	F.Set(ekfVY, ekfBAY, -dt*cosPsi)

	qPos := params.SigmaAccel * params.SigmaAccel * dt2 * dt2 / 4
	qVel := params.SigmaAccel * params.SigmaAccel * dt2
	qPsi := params.SigmaGyro * params.SigmaGyro * dt2
	qBias := params.SigmaBias * params.SigmaBias * dt

	Q := NewMatrix(7, 7)
	Q.Set(ekfPX, ekfPX, qPos)
	Q.Set(ekfPY, ekfPY, qPos)
	Q.Set(ekfVX, ekfVX, qVel)
	Q.Set(ekfVY, ekfVY, qVel)
	Q.Set(ekfPsi, ekfPsi, qPsi)
	Q.Set(ekfBAX, ekfBAX, qBias)
	Q.Set(ekfBAY, ekfBAY, qBias)

	st.P = F.Mul(st.P).Mul(F.Transpose()).Add(Q)
}

// ekfUpdate applies the positional measurement update. r is
// the fix's reported accuracy in metres (the configured default when the
// fix carries none).
func ekfUpdate(st *ekfState, fix DownsampledFix, r, metersPerDegLat float64, params EKFParams, warnings *[]string) {
	zx, zy := GPSToLocal(fix.Lat, fix.Lon, st.lat0, st.lon0, metersPerDegLat)

	R := NewMatrixFromRows([][]float64{{r * r, 0}, {0, r * r}})

	H := NewMatrixFromRows([][]float64{
		{1, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0},
	})

	Hx := []float64{st.x[ekfPX], st.x[ekfPY]}
	innovation := []float64{zx - Hx[0], zy - Hx[1]}

	S := H.Mul(st.P).Mul(H.Transpose()).Add(R)
	det := S.At(0, 0)*S.At(1, 1) - S.At(0, 1)*S.At(1, 0)
	if floats.EqualWithinAbs(det, 0, 1e-12) {
		if warnings != nil {
			*warnings = append(*warnings, "ekf: singular innovation covariance, skipped update")
		}
		return
	}

	K := st.P.Mul(H.Transpose()).Mul(S.Inverse())
	correction := K.MulVec(innovation)
	for i := 0; i < 7; i++ {
		st.x[i] += correction[i]
	}
	st.x[ekfPsi] = NormalizeAngle(st.x[ekfPsi])

	KH := K.Mul(H)
	st.P = Identity(7).Sub(KH).Mul(st.P)
}
