package reconstruct

// Enrich computes, for a single lap's time-ordered TelemetryPoints,
// cumulative along-path distance, normalised lap position, and
// lap-relative time. Timestamps are assumed already
// origin-normalised to 0 at lap start; Enrich does not re-normalise them.
//
// Invariants upheld: the first point has Distance = 0 and LapPosition = 0;
// the last point has LapPosition = 1 (when total distance is nonzero);
// LapPosition is non-decreasing across the sequence.
func Enrich(points []TelemetryPoint) []EnrichedPoint {
	n := len(points)
	out := make([]EnrichedPoint, n)
	if n == 0 {
		return out
	}

	lapStart := points[0].Timestamp
	cumulative := 0.0
	for i, p := range points {
		if i > 0 {
			prev := points[i-1]
			cumulative += Haversine(prev.Lat, prev.Lon, p.Lat, p.Lon)
		}
		out[i] = EnrichedPoint{
			TelemetryPoint: p,
			Distance:       cumulative,
			LapTime:        p.Timestamp - lapStart,
		}
	}

	total := out[n-1].Distance
	for i := range out {
		if total > 0 {
			out[i].LapPosition = out[i].Distance / total
		} else {
			out[i].LapPosition = 0
		}
	}
	if total > 0 {
		out[n-1].LapPosition = 1
	}
	return out
}
