package reconstruct

import "math"

// RejectOutliers partitions a time-ordered sequence of downsampled fixes
// into kept/rejected. fixes must be indices into enriched,
// which supplies the inertial and speed/bearing context each fix needs for
// scoring. The rejector is pure: the same input always yields the same
// verdicts, and it never aborts — a config that
// disables outlier rejection, or a degenerate dt, just yields a Kept
// verdict rather than an error.
func RejectOutliers(fixes []DownsampledFix, enriched []EnrichedPoint, cfg OutlierConfig, g, metersPerDegLat float64) ([]DownsampledFix, []OutlierVerdict) {
	n := len(fixes)
	verdicts := make([]OutlierVerdict, n)
	if n == 0 {
		return nil, verdicts
	}

	verdicts[0] = OutlierVerdict{Kept: true}
	if !cfg.Enabled || n == 1 {
		for i := 1; i < n; i++ {
			verdicts[i] = OutlierVerdict{Kept: true}
		}
		return fixes, verdicts
	}

	switch cfg.Method {
	case OutlierSimple:
		rejectSimple(fixes, enriched, cfg, verdicts)
	default:
		rejectPhysics(fixes, enriched, cfg, g, metersPerDegLat, verdicts)
	}

	kept := make([]DownsampledFix, 0, n)
	for i, v := range verdicts {
		if v.Kept {
			kept = append(kept, fixes[i])
		}
	}
	return kept, verdicts
}

func fixSource(fixes []DownsampledFix, enriched []EnrichedPoint, i int) EnrichedPoint {
	return enriched[fixes[i].OriginalIndex]
}

func rejectSimple(fixes []DownsampledFix, enriched []EnrichedPoint, cfg OutlierConfig, verdicts []OutlierVerdict) {
	prevIdx := 0
	prevSpeed := fixSource(fixes, enriched, 0).Speed
	for i := 1; i < len(fixes); i++ {
		prev := fixes[prevIdx]
		cur := fixes[i]
		dt := cur.Timestamp - prev.Timestamp
		if dt <= 0 {
			verdicts[i] = OutlierVerdict{Kept: true}
			prevIdx = i
			continue
		}

		dist := Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		impliedSpeed := dist / dt
		speedJump := math.Abs(impliedSpeed - prevSpeed)
		maxJump := cfg.MaxSpeedDiff * dt

		reject := speedJump > cfg.MaxSpeedDiff || dist > maxJump
		if reject {
			verdicts[i] = OutlierVerdict{Kept: false, Reason: ReasonScoreThreshold}
			continue
		}
		verdicts[i] = OutlierVerdict{Kept: true}
		prevIdx = i
		prevSpeed = impliedSpeed
	}
}

func rejectPhysics(fixes []DownsampledFix, enriched []EnrichedPoint, cfg OutlierConfig, g, metersPerDegLat float64, verdicts []OutlierVerdict) {
	n := len(fixes)
	prevIdx := 0
	prevImpliedSpeed := fixSource(fixes, enriched, 0).Speed

	for i := 1; i < n; i++ {
		prev := fixes[prevIdx]
		cur := fixes[i]
		dt := cur.Timestamp - prev.Timestamp
		if dt <= 0 {
			verdicts[i] = OutlierVerdict{Kept: true}
			prevIdx = i
			continue
		}

		prevSrc := fixSource(fixes, enriched, prevIdx)
		curSrc := fixSource(fixes, enriched, i)

		vStar := Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon) / dt
		aStar := math.Abs(vStar-prevImpliedSpeed) / dt
		aMax := cfg.MaxAccelG * g
		accelScore := math.Max(0, (aStar-aMax)/aMax)

		gpsYawRate := angularDiffDeg(curSrc.Bearing, prevSrc.Bearing) / dt
		avgInertialYaw := (curSrc.YawRate + prevSrc.YawRate) / 2
		yawDiff := math.Abs(gpsYawRate - avgInertialYaw)
		yawScore := 0.0
		if yawDiff > cfg.MaxYawRateDiff {
			yawScore = (yawDiff - cfg.MaxYawRateDiff) / cfg.MaxYawRateDiff
		}

		speedDiff := math.Abs(curSrc.Speed - vStar)
		speedScore := 0.0
		if speedDiff > cfg.MaxSpeedDiff {
			speedScore = (speedDiff - cfg.MaxSpeedDiff) / cfg.MaxSpeedDiff
		}

		latAccScore := 0.0
		if curSrc.Speed > 2.0 {
			expected := math.Abs(curSrc.YawRate*math.Pi/180) * curSrc.Speed / g
			measured := math.Abs(curSrc.LateralAcc)
			latDiff := math.Abs(expected - measured)
			if latDiff > cfg.MaxLatAccDiff {
				latAccScore = (latDiff - cfg.MaxLatAccDiff) / cfg.MaxLatAccDiff
			}
		}

		total := 2.0*accelScore + 1.5*yawScore + 1.0*speedScore + 1.0*latAccScore

		trianglePositive := false
		if cfg.UseTemporalCheck && i >= 1 && i <= n-2 {
			trianglePositive = triangleWindowTest(fixes, i, cfg, metersPerDegLat)
		}

		reject := total > cfg.AnomalyThreshold ||
			(trianglePositive && total > cfg.AnomalyThreshold/2)

		reason := ReasonNone
		if reject {
			reason = ReasonScoreThreshold
			if trianglePositive && total <= cfg.AnomalyThreshold {
				reason = ReasonTriangleWindow
			}
		}

		verdicts[i] = OutlierVerdict{
			Kept:   !reject,
			Reason: reason,
			Scores: ScoreBreakdown{
				Accel:  accelScore,
				Yaw:    yawScore,
				Speed:  speedScore,
				LatAcc: latAccScore,
			},
			TotalScore: total,
		}

		if !reject {
			prevIdx = i
			prevImpliedSpeed = vStar
		}
	}
}

// triangleWindowTest implements the single-point geometric outlier check of
// the single-point geometric outlier check over the raw (not
// accepted-chain) neighbours i-1, i, i+1.
func triangleWindowTest(fixes []DownsampledFix, i int, cfg OutlierConfig, metersPerDegLat float64) bool {
	a, b, c := fixes[i-1], fixes[i], fixes[i+1]

	dAB := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	dBC := Haversine(b.Lat, b.Lon, c.Lat, c.Lon)
	dAC := Haversine(a.Lat, a.Lon, c.Lat, c.Lon)
	if dAC < 0.1 {
		dAC = 0.1
	}
	ratio := (dAB + dBC) / dAC
	if ratio <= cfg.TriangleRatio {
		return false
	}

	ax, ay := GPSToLocal(a.Lat, a.Lon, a.Lat, a.Lon, metersPerDegLat)
	bx, by := GPSToLocal(b.Lat, b.Lon, a.Lat, a.Lon, metersPerDegLat)
	cx, cy := GPSToLocal(c.Lat, c.Lon, a.Lat, a.Lon, metersPerDegLat)

	perp := perpendicularDistance(ax, ay, cx, cy, bx, by)
	return perp > cfg.MinPerpDistance
}

// perpendicularDistance returns the distance from point (px, py) to the
// infinite line through (ax, ay) and (bx, by), falling back to the
// point-to-point distance when the segment has zero length.
func perpendicularDistance(ax, ay, bx, by, px, py float64) float64 {
	dx, dy := bx-ax, by-ay
	segLen := math.Hypot(dx, dy)
	if segLen < 1e-9 {
		return math.Hypot(px-ax, py-ay)
	}
	// |cross(AB, AP)| / |AB|
	cross := dx*(py-ay) - dy*(px-ax)
	return math.Abs(cross) / segLen
}

// angularDiffDeg returns the signed shortest angular difference a - b in
// degrees, in (-180, 180].
func angularDiffDeg(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d <= 0 {
		d += 360
	}
	return d - 180
}
