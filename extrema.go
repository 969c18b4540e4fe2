package reconstruct

import "math"

// Default parameters for the speed-extrema detector. These are
// design-time constants, not exposed through Config, the same way the
// teacher's orbit.go hardcoded its own numerical epsilons rather than
// threading them through as tunables.
const (
	defaultExtremaWindowSize       = 25   // samples, half-width, ~1s at 25Hz
	defaultExtremaMinSpeedMS       = 5.0  // m/s
	defaultExtremaMinDeltaKMH      = 20.0 // km/h
)

// DetectSpeedExtrema finds local speed minima/maxima along a lap: smooth,
// find strict local extrema above a threshold, merge
// same-type neighbours, then iteratively drop adjacent opposite-type pairs
// whose magnitude difference is too small to be meaningful, re-merging
// after each drop until a full pass changes nothing.
func DetectSpeedExtrema(times, speeds []float64) []SpeedExtremum {
	return detectSpeedExtremaWithParams(times, speeds, defaultExtremaWindowSize, defaultExtremaMinSpeedMS, defaultExtremaMinDeltaKMH)
}

func detectSpeedExtremaWithParams(times, speeds []float64, windowSize int, minSpeedThreshold, minDeltaKmh float64) []SpeedExtremum {
	n := len(speeds)
	if n < 3 {
		return nil
	}

	smoothed := centeredMovingAverage(speeds, windowSize)

	extrema := findStrictExtrema(times, smoothed, minSpeedThreshold)
	extrema = mergeSameType(extrema)

	minDeltaMS := minDeltaKmh / 3.6
	for {
		reduced, changed := dropWeakOppositePairs(extrema, minDeltaMS)
		if !changed {
			break
		}
		extrema = mergeSameType(reduced)
	}

	return extrema
}

// centeredMovingAverage smooths speeds with a window of half-width w,
// clipping at the array edges.
func centeredMovingAverage(speeds []float64, w int) []float64 {
	n := len(speeds)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - w
		if lo < 0 {
			lo = 0
		}
		hi := i + w
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += speeds[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// findStrictExtrema scans smoothed for strict local minima/maxima whose
// value exceeds minSpeedThreshold.
func findStrictExtrema(times, smoothed []float64, minSpeedThreshold float64) []SpeedExtremum {
	var out []SpeedExtremum
	for i := 1; i < len(smoothed)-1; i++ {
		v := smoothed[i]
		if v <= minSpeedThreshold {
			continue
		}
		isMax := v > smoothed[i-1] && v > smoothed[i+1]
		isMin := v < smoothed[i-1] && v < smoothed[i+1]
		if !isMax && !isMin {
			continue
		}
		out = append(out, SpeedExtremum{
			Index:    i,
			Time:     times[i],
			SpeedMS:  v,
			SpeedKMH: v * 3.6,
			IsMax:    isMax,
		})
	}
	return out
}

// mergeSameType collapses consecutive extrema of the same type, keeping
// the stronger one (smaller value for a run of minima, larger for a run
// of maxima).
func mergeSameType(extrema []SpeedExtremum) []SpeedExtremum {
	if len(extrema) == 0 {
		return extrema
	}
	out := make([]SpeedExtremum, 0, len(extrema))
	cur := extrema[0]
	for i := 1; i < len(extrema); i++ {
		next := extrema[i]
		if next.IsMax == cur.IsMax {
			if (cur.IsMax && next.SpeedMS > cur.SpeedMS) || (!cur.IsMax && next.SpeedMS < cur.SpeedMS) {
				cur = next
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// dropWeakOppositePairs removes the first adjacent opposite-type pair
// whose magnitude difference is below minDeltaMS, returning the reduced
// slice and whether anything changed. Only one pair is dropped per call so
// the caller can re-merge same-type runs before looking for the next weak
// pair, matching the intended "repeat the same-type merge after each
// removal" procedure.
func dropWeakOppositePairs(extrema []SpeedExtremum, minDeltaMS float64) ([]SpeedExtremum, bool) {
	for i := 0; i < len(extrema)-1; i++ {
		a, b := extrema[i], extrema[i+1]
		if a.IsMax == b.IsMax {
			continue
		}
		if math.Abs(a.SpeedMS-b.SpeedMS) < minDeltaMS {
			out := make([]SpeedExtremum, 0, len(extrema)-2)
			out = append(out, extrema[:i]...)
			out = append(out, extrema[i+2:]...)
			return out, true
		}
	}
	return extrema, false
}
