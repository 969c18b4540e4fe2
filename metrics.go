package reconstruct

import (
	"fmt"
	"math"
)

// timestampKey rounds t to three decimal places and renders it as the
// string key used to match ground truth against a reconstructor's output
//. The three-decimal quantisation is part of the contract:
// every component that needs to line up two timebases (the metric
// aggregator here, the 1-D Kalman's measurement lookup in kalman1d.go)
// uses this exact same key so a run reproduces its scores bit-exactly.
func timestampKey(t float64) string {
	return fmt.Sprintf("%.3f", t)
}

// ComputeAccuracyMetrics matches ground-truth positional fixes against a
// reconstructor's output by three-decimal timestamp key and aggregates the
// haversine residual into RMSE/MAE/max/count. If no timestamp
// in ground truth matches any in estimate, all statistics report +Inf and
// count 0.
func ComputeAccuracyMetrics(groundTruth []PositionalFix, estimate []PositionalFix) AccuracyMetrics {
	byKey := make(map[string]PositionalFix, len(estimate))
	for _, e := range estimate {
		byKey[timestampKey(e.Timestamp)] = e
	}

	var sumSq, sumAbs, maxErr float64
	count := 0
	for _, g := range groundTruth {
		e, ok := byKey[timestampKey(g.Timestamp)]
		if !ok {
			continue
		}
		d := Haversine(g.Lat, g.Lon, e.Lat, e.Lon)
		sumSq += d * d
		sumAbs += d
		if d > maxErr {
			maxErr = d
		}
		count++
	}

	if count == 0 {
		return AccuracyMetrics{RMSE: math.Inf(1), MAE: math.Inf(1), MaxError: math.Inf(1), Count: 0}
	}

	return AccuracyMetrics{
		RMSE:     math.Sqrt(sumSq / float64(count)),
		MAE:      sumAbs / float64(count),
		MaxError: maxErr,
		Count:    count,
	}
}
