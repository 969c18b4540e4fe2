package reconstruct

import "fmt"

// TelemetryPoint is one fused sensor sample, immutable once emitted by the
// caller's record source. Timestamps are seconds, origin-normalised to 0 at
// lap start.
type TelemetryPoint struct {
	Timestamp        float64 // seconds, monotonically non-decreasing within a lap
	Lat              float64 // degrees, WGS-84 nominal
	Lon              float64 // degrees, WGS-84 nominal
	Speed            float64 // m/s, >= 0
	Bearing          float64 // degrees, [0, 360), clockwise from true north
	Accuracy         float64 // metres, > 0 (defaults to 5 when missing/zero)
	Lap              int     // partitioning tag, >= 0
	LateralAcc       float64 // proper acceleration, G units, body frame
	LongitudinalAcc  float64 // proper acceleration, G units, body frame
	YawRate          float64 // deg/s about the body vertical axis
}

// EnrichedPoint is a TelemetryPoint plus derived fields computed by Enrich.
type EnrichedPoint struct {
	TelemetryPoint
	Distance    float64 // metres along-path from lap start, cumulative great-circle
	LapPosition float64 // Distance / total lap distance, non-decreasing in [0, 1]
	LapTime     float64 // Timestamp minus lap-start timestamp
}

// PositionalFix is the positional-only output of every reconstructor.
type PositionalFix struct {
	Timestamp float64
	Lat       float64
	Lon       float64
}

// DownsampledFix is a PositionalFix that retains the index into the enriched
// stream it was sampled from, so later stages can recover context (inertial
// fields, speed, bearing) without re-deriving it.
type DownsampledFix struct {
	PositionalFix
	OriginalIndex int
}

// RejectReason names why the outlier rejector dropped a fix.
type RejectReason string

const (
	ReasonNone           RejectReason = ""
	ReasonScoreThreshold RejectReason = "score_threshold"
	ReasonTriangleWindow RejectReason = "triangle_window"
)

// OutlierVerdict is the per-fix decision of the outlier rejector.
type OutlierVerdict struct {
	Kept       bool
	Reason     RejectReason
	Scores     ScoreBreakdown
	TotalScore float64
}

// ScoreBreakdown is the per-criterion contribution to a fix's physics score,
// see ScoreBreakdown and the outlier rejector.
type ScoreBreakdown struct {
	Accel float64
	Yaw   float64
	Speed float64
	LatAcc float64
}

// AccuracyMetrics is the {rmse, mae, max_error, count} accuracy record.
// Invariant: 0 <= MAE <= RMSE <= MaxError, Count is the number of matched
// timestamps.
type AccuracyMetrics struct {
	RMSE     float64
	MAE      float64
	MaxError float64
	Count    int
}

func (m AccuracyMetrics) String() string {
	return fmt.Sprintf("rmse=%.3fm mae=%.3fm max=%.3fm n=%d", m.RMSE, m.MAE, m.MaxError, m.Count)
}

// ReconstructorName identifies one of the reconstruction strategies run by
// the pipeline per lap.
type ReconstructorName string

const (
	ReconLinear          ReconstructorName = "linear"
	ReconCatmullRom      ReconstructorName = "spline"
	ReconKalmanRTS       ReconstructorName = "kalman_rts"
	ReconEKFRaw          ReconstructorName = "ekf_raw"
	ReconEKFSplineSmooth ReconstructorName = "ekf_spline_smooth"
	ReconEKFBest         ReconstructorName = "ekf_best"
)

// OutlierCounts tallies how many fixes were rejected on each path.
type OutlierCounts struct {
	Clean int
	Noisy int
	Total int
}

// ChartSummary is a low-rate (~2 Hz) summary suitable for plotting, per
// for plotting.
type ChartSummary struct {
	Timestamps      []float64
	Speed           []float64
	LateralG        []float64
	LongitudinalG   []float64
	Distance        []float64
	LapPosition     []float64
	Bearing         []float64
}

// SpeedExtremum is a single local minimum or maximum reported by the
// speed-extrema detector.
type SpeedExtremum struct {
	Index    int
	Time     float64
	SpeedMS  float64
	SpeedKMH float64
	IsMax    bool
}

// LapResult aggregates everything the pipeline orchestrator computes for one
// lap.
type LapResult struct {
	Lap int

	GroundTruth []EnrichedPoint

	CleanFixes []DownsampledFix
	NoisyFixes []DownsampledFix

	// CleanReconstructions/CleanMetrics run every reconstructor against the
	// un-noised downsampled fixes; NoisyReconstructions/NoisyMetrics run them
	// against the Gaussian-perturbed fixes. When noise injection is
	// disabled the two pairs are identical, except for the ekf_best entry:
	// it appears only on the path the EKF sweep ran against (noisy when
	// noise injection is enabled, clean otherwise).
	CleanReconstructions map[ReconstructorName][]PositionalFix
	CleanMetrics         map[ReconstructorName]AccuracyMetrics
	NoisyReconstructions map[ReconstructorName][]PositionalFix
	NoisyMetrics         map[ReconstructorName]AccuracyMetrics

	EKFSweep []EKFSweepTrial

	Outliers OutlierCounts
	Extrema  []SpeedExtremum

	Duration      float64
	TotalDistance float64
	ChartData     ChartSummary

	// Warnings collects human-readable notes about numerically degenerate
	// steps that were locally recovered from: a singular RTS
	// transition, a skipped EKF update. Always non-nil; empty when nothing
	// degraded during the lap.
	Warnings []string
}

// EKFSweepTrial records one point of the EKF parameter grid search: the
// configuration tried and the RMSE it produced against ground
// truth.
type EKFSweepTrial struct {
	Params EKFParams
	Metric AccuracyMetrics
}

// Result is the top-level output of Process.
type Result struct {
	// RunID correlates this run's log lines and lets a caller running many
	// Process calls concurrently (e.g. an external parameter sweep) tell
	// them apart.
	RunID string

	Laps        []int
	SelectedLap int
	PerLap      map[int]*LapResult
}
