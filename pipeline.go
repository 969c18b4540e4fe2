package reconstruct

import (
	"math"
	"math/rand"

	kitlog "github.com/go-kit/kit/log"
)

// downsampleStride returns the integer ratio between the high-rate and
// positional-fix cadences, clamped to at least 1.
func downsampleStride(cfg SamplingConfig) int {
	if cfg.GPSHz <= 0 || cfg.IMUHz <= 0 {
		return 1
	}
	ratio := int(math.Round(cfg.IMUHz / cfg.GPSHz))
	if ratio < 1 {
		ratio = 1
	}
	return ratio
}

// downsamplePositional picks every stride-th enriched sample as a raw
// positional fix, tagging it with the index it came from so later stages
// can recover inertial context.
func downsamplePositional(enriched []EnrichedPoint, stride int) []DownsampledFix {
	var out []DownsampledFix
	for i := 0; i < len(enriched); i += stride {
		e := enriched[i]
		out = append(out, DownsampledFix{
			PositionalFix: PositionalFix{Timestamp: e.Timestamp, Lat: e.Lat, Lon: e.Lon},
			OriginalIndex: i,
		})
	}
	return out
}

// perturbFixes returns a copy of fixes with each position displaced by an
// independent Gaussian sample per axis, stddev in
// metres converted to degrees at that fix's own latitude. rng is a
// per-lap, caller-owned source so concurrent laps never share RNG state
//.
func perturbFixes(fixes []DownsampledFix, stddevMeters, metersPerDegLat float64, rng *rand.Rand) []DownsampledFix {
	out := make([]DownsampledFix, len(fixes))
	for i, f := range fixes {
		latNoise := Gaussian(0, stddevMeters, rng) / metersPerDegLat
		lonDegPerMeter := 1 / (metersPerDegLat * math.Cos(f.Lat*deg2radG))
		lonNoise := Gaussian(0, stddevMeters, rng) * lonDegPerMeter
		out[i] = f
		out[i].Lat += latNoise
		out[i].Lon += lonNoise
	}
	return out
}

// rejectedCount counts the fixes a set of verdicts marked dropped.
func rejectedCount(verdicts []OutlierVerdict) int {
	n := 0
	for _, v := range verdicts {
		if !v.Kept {
			n++
		}
	}
	return n
}

// queryTimes returns every enriched sample's timestamp, the common
// resampling axis every reconstructor evaluates onto.
func queryTimes(enriched []EnrichedPoint) []float64 {
	out := make([]float64, len(enriched))
	for i, e := range enriched {
		out[i] = e.Timestamp
	}
	return out
}

func fixTimesLatsLons(fixes []DownsampledFix) (times, lats, lons []float64) {
	times = make([]float64, len(fixes))
	lats = make([]float64, len(fixes))
	lons = make([]float64, len(fixes))
	for i, f := range fixes {
		times[i] = f.Timestamp
		lats[i] = f.Lat
		lons[i] = f.Lon
	}
	return
}

// linearReconstruct resamples the kept fixes onto times by independent
// linear interpolation of lat/lon.
func linearReconstruct(fixes []DownsampledFix, times []float64) []PositionalFix {
	ft, flat, flon := fixTimesLatsLons(fixes)
	out := make([]PositionalFix, len(times))
	for i, t := range times {
		out[i] = PositionalFix{Timestamp: t, Lat: LerpScalar(ft, flat, t), Lon: LerpScalar(ft, flon, t)}
	}
	return out
}

// splineReconstruct is linearReconstruct's Catmull-Rom counterpart.
func splineReconstruct(fixes []DownsampledFix, times []float64) []PositionalFix {
	ft, flat, flon := fixTimesLatsLons(fixes)
	out := make([]PositionalFix, len(times))
	for i, t := range times {
		out[i] = PositionalFix{Timestamp: t, Lat: CatmullRomScalar(ft, flat, t), Lon: CatmullRomScalar(ft, flon, t)}
	}
	return out
}

// kalmanRTSReconstruct runs the 1-D Kalman + RTS smoother independently on
// each axis, converting the shared metric R/Q into degrees²
// via the per-axis conversion factor derived from the first kept fix's
// latitude.
func kalmanRTSReconstruct(fixes []DownsampledFix, times []float64, cfg KalmanConfig, metersPerDegLat float64, warnings *[]string) []PositionalFix {
	if len(fixes) == 0 {
		return nil
	}
	ft, flat, flon := fixTimesLatsLons(fixes)
	lat0 := fixes[0].Lat
	latDegPerMeter := 1 / metersPerDegLat
	lonDegPerMeter := 1 / (metersPerDegLat * math.Cos(lat0*deg2radG))

	latOut := KalmanAxisRun(times, ft, flat, cfg, latDegPerMeter, warnings)
	lonOut := KalmanAxisRun(times, ft, flon, cfg, lonDegPerMeter, warnings)

	out := make([]PositionalFix, len(times))
	for i, t := range times {
		out[i] = PositionalFix{Timestamp: t, Lat: latOut[i], Lon: lonOut[i]}
	}
	return out
}

// padEKFOutput stretches the EKF's output (which only starts once a fix
// clears MinSpeedForHeading) back to the full enriched timebase, holding
// the first computed fix steady for every earlier timestamp, the same
// "nothing better to do" choice a dead-reckoning fallback once made
// when a station had no visibility.
func padEKFOutput(enriched []EnrichedPoint, ekfOut []PositionalFix) []PositionalFix {
	if len(ekfOut) == 0 {
		return nil
	}
	out := make([]PositionalFix, len(enriched))
	startIdx := len(enriched) - len(ekfOut)
	for i := 0; i < startIdx; i++ {
		out[i] = PositionalFix{Timestamp: enriched[i].Timestamp, Lat: ekfOut[0].Lat, Lon: ekfOut[0].Lon}
	}
	copy(out[startIdx:], ekfOut)
	return out
}

// ekfSplineSmoothReconstruct takes the (padded) EKF trajectory and
// re-splines it through knots sampled at the same stride as the GPS fix
// cadence, trading a little of the EKF's own high-rate detail for a
// smoother curve anchored to its own position estimate rather than raw
// GPS (component 2.3 applied to component 2.7's output).
func ekfSplineSmoothReconstruct(ekfFull []PositionalFix, stride int) []PositionalFix {
	if len(ekfFull) == 0 {
		return nil
	}
	var knotT, knotLat, knotLon []float64
	for i := 0; i < len(ekfFull); i += stride {
		knotT = append(knotT, ekfFull[i].Timestamp)
		knotLat = append(knotLat, ekfFull[i].Lat)
		knotLon = append(knotLon, ekfFull[i].Lon)
	}
	last := ekfFull[len(ekfFull)-1]
	if knotT[len(knotT)-1] != last.Timestamp {
		knotT = append(knotT, last.Timestamp)
		knotLat = append(knotLat, last.Lat)
		knotLon = append(knotLon, last.Lon)
	}

	out := make([]PositionalFix, len(ekfFull))
	for i, f := range ekfFull {
		out[i] = PositionalFix{
			Timestamp: f.Timestamp,
			Lat:       CatmullRomScalar(knotT, knotLat, f.Timestamp),
			Lon:       CatmullRomScalar(knotT, knotLon, f.Timestamp),
		}
	}
	return out
}

// groundTruthFixes strips a reconstructor's comparison target down to the
// positional fields ComputeAccuracyMetrics needs.
func groundTruthFixes(enriched []EnrichedPoint) []PositionalFix {
	out := make([]PositionalFix, len(enriched))
	for i, e := range enriched {
		out[i] = PositionalFix{Timestamp: e.Timestamp, Lat: e.Lat, Lon: e.Lon}
	}
	return out
}

// reconstructAll runs every reconstructor against one fix set
// (clean or noisy) and scores each against ground truth.
func reconstructAll(enriched []EnrichedPoint, fixes []DownsampledFix, cfg Config, stride int, warnings *[]string) (map[ReconstructorName][]PositionalFix, map[ReconstructorName]AccuracyMetrics) {
	times := queryTimes(enriched)
	truth := groundTruthFixes(enriched)

	recon := make(map[ReconstructorName][]PositionalFix, 5)
	recon[ReconLinear] = linearReconstruct(fixes, times)
	recon[ReconCatmullRom] = splineReconstruct(fixes, times)
	recon[ReconKalmanRTS] = kalmanRTSReconstruct(fixes, times, cfg.Kalman, cfg.MetersPerDegLat, warnings)

	ekfRaw := RunEKF(enriched, fixes, cfg.EKF, cfg.G, cfg.MetersPerDegLat, cfg.Sampling.IMUHz, warnings)
	ekfFull := padEKFOutput(enriched, ekfRaw)
	recon[ReconEKFRaw] = ekfFull
	recon[ReconEKFSplineSmooth] = ekfSplineSmoothReconstruct(ekfFull, stride)

	metrics := make(map[ReconstructorName]AccuracyMetrics, len(recon))
	for name, out := range recon {
		metrics[name] = ComputeAccuracyMetrics(truth, out)
	}
	return recon, metrics
}

// runEKFSweep runs the parameter grid against fixes (the
// noisy path when noise injection is enabled, since that's the condition
// the sweep exists to tune for; the clean path otherwise) and reports the
// trial with the smallest RMSE as ReconEKFBest.
func runEKFSweep(enriched []EnrichedPoint, fixes []DownsampledFix, base EKFParams, cfg Config, warnings *[]string) ([]EKFSweepTrial, []PositionalFix) {
	truth := groundTruthFixes(enriched)
	trials := defaultEKFSweep(base)

	results := make([]EKFSweepTrial, len(trials))
	var bestOut []PositionalFix
	bestRMSE := math.Inf(1)
	for i, params := range trials {
		out := padEKFOutput(enriched, RunEKF(enriched, fixes, params, cfg.G, cfg.MetersPerDegLat, cfg.Sampling.IMUHz, warnings))
		m := ComputeAccuracyMetrics(truth, out)
		results[i] = EKFSweepTrial{Params: params, Metric: m}
		if m.RMSE < bestRMSE {
			bestRMSE = m.RMSE
			bestOut = out
		}
	}
	return results, bestOut
}

// chartStride picks a sampling interval for ChartSummary aiming for ~2 Hz
//, never less than 1.
func chartStride(imuHz float64) int {
	if imuHz <= 2 {
		return 1
	}
	s := int(math.Round(imuHz / 2))
	if s < 1 {
		s = 1
	}
	return s
}

// buildChartSummary downsamples enriched to ~2 Hz for plotting.
func buildChartSummary(enriched []EnrichedPoint, stride int) ChartSummary {
	var cs ChartSummary
	for i := 0; i < len(enriched); i += stride {
		e := enriched[i]
		cs.Timestamps = append(cs.Timestamps, e.Timestamp)
		cs.Speed = append(cs.Speed, e.Speed)
		cs.LateralG = append(cs.LateralG, e.LateralAcc)
		cs.LongitudinalG = append(cs.LongitudinalG, e.LongitudinalAcc)
		cs.Distance = append(cs.Distance, e.Distance)
		cs.LapPosition = append(cs.LapPosition, e.LapPosition)
		cs.Bearing = append(cs.Bearing, e.Bearing)
	}
	return cs
}

// ProcessLap runs the full per-lap orchestration: enrich,
// downsample, reject outliers on both a clean and a noise-injected copy,
// run every reconstructor against each, sweep the EKF's parameters, detect
// speed extrema, and assemble a chart summary. rngSeed must be unique per
// lap (Process derives it from Config.RandSeed) so concurrent laps never
// share mutable RNG state.
func ProcessLap(lap int, points []TelemetryPoint, cfg Config, rngSeed int64, logger kitlog.Logger) *LapResult {
	if logger == nil {
		logger = NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "pipeline", "lap", lap)

	enriched := Enrich(points)
	if len(enriched) == 0 {
		logger.Log("level", "warning", "message", errEmptyLap.Error())
		return nil
	}

	stride := downsampleStride(cfg.Sampling)
	rawFixes := downsamplePositional(enriched, stride)

	warnings := []string{}

	cleanFixes, cleanVerdicts := RejectOutliers(rawFixes, enriched, cfg.Outlier, cfg.G, cfg.MetersPerDegLat)

	noisyRaw := rawFixes
	if cfg.Noise.Enabled {
		rng := rand.New(rand.NewSource(rngSeed))
		noisyRaw = perturbFixes(rawFixes, cfg.Noise.StdDev(), cfg.MetersPerDegLat, rng)
	}
	noisyFixes, noisyVerdicts := RejectOutliers(noisyRaw, enriched, cfg.Outlier, cfg.G, cfg.MetersPerDegLat)

	cleanRecon, cleanMetrics := reconstructAll(enriched, cleanFixes, cfg, stride, &warnings)
	noisyRecon, noisyMetrics := reconstructAll(enriched, noisyFixes, cfg, stride, &warnings)

	sweepFixes := cleanFixes
	if cfg.Noise.Enabled {
		sweepFixes = noisyFixes
	}
	sweep, bestOut := runEKFSweep(enriched, sweepFixes, cfg.EKF, cfg, &warnings)
	if bestOut != nil {
		if cfg.Noise.Enabled {
			noisyRecon[ReconEKFBest] = bestOut
			noisyMetrics[ReconEKFBest] = ComputeAccuracyMetrics(groundTruthFixes(enriched), bestOut)
		} else {
			cleanRecon[ReconEKFBest] = bestOut
			cleanMetrics[ReconEKFBest] = ComputeAccuracyMetrics(groundTruthFixes(enriched), bestOut)
		}
	}

	times := make([]float64, len(enriched))
	speeds := make([]float64, len(enriched))
	for i, e := range enriched {
		times[i] = e.Timestamp
		speeds[i] = e.Speed
	}

	result := &LapResult{
		Lap:                  lap,
		GroundTruth:          enriched,
		CleanFixes:           cleanFixes,
		NoisyFixes:           noisyFixes,
		CleanReconstructions: cleanRecon,
		CleanMetrics:         cleanMetrics,
		NoisyReconstructions: noisyRecon,
		NoisyMetrics:         noisyMetrics,
		EKFSweep:             sweep,
		Outliers: OutlierCounts{
			Clean: rejectedCount(cleanVerdicts),
			Noisy: rejectedCount(noisyVerdicts),
			Total: len(rawFixes),
		},
		Extrema:       DetectSpeedExtrema(times, speeds),
		Duration:      enriched[len(enriched)-1].Timestamp - enriched[0].Timestamp,
		TotalDistance: enriched[len(enriched)-1].Distance,
		ChartData:     buildChartSummary(enriched, chartStride(cfg.Sampling.IMUHz)),
		Warnings:      warnings,
	}

	if len(warnings) > 0 {
		logger.Log("level", "warning", "message", "lap produced warnings", "count", len(warnings))
	}
	logger.Log("level", "info", "message", "lap processed", "duration(s)", result.Duration, "distance(m)", result.TotalDistance)

	return result
}
