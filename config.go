package reconstruct

import "fmt"

// Config holds every tunable recognised by the reconstruction core.
// Unlike a package-level `_smdconfig` global mutated by a
// `viper.ReadInConfig()` call, Config is an explicit value: callers build
// one (or start from DefaultConfig and override fields) and pass it into
// Process. The EKF parameter sweep builds its own EKFParams value per
// trial and restores nothing, because nothing global was ever mutated —
// two concurrent laps each hold their own copy by construction.
type Config struct {
	Sampling SamplingConfig
	Noise    NoiseConfig
	Kalman   KalmanConfig
	EKF      EKFParams
	Outlier  OutlierConfig

	// G is standard gravity in m/s², used to convert proper acceleration in
	// G units to m/s².
	G float64
	// MetersPerDegLat is the flat-earth conversion factor K used to convert
	// between degrees and metres.
	MetersPerDegLat float64

	// RandSeed drives the noisy-path Gaussian injection (pipeline.go) and the
	// per-lap RNG derivation. Not part of the source's tunable table, but
	// required to satisfy the bit-exact-reproducibility guarantee: the same
	// seed must always produce the same noisy fixes, regardless of how many
	// laps run concurrently.
	RandSeed int64
}

// SamplingConfig controls the high-rate/low-rate cadence of the pipeline.
type SamplingConfig struct {
	IMUHz float64 // high-rate output cadence, default 25
	GPSHz float64 // positional fix cadence, default 1
}

// NoiseConfig controls the noisy-path Gaussian position perturbation.
type NoiseConfig struct {
	Enabled    bool
	MinMeters  float64 // half-width of uniform pre-average, default 1
	MaxMeters  float64 // half-width of uniform pre-average, default 3
}

// StdDev returns the Gaussian standard deviation implied by the configured
// min/max half-widths: their mean.
func (n NoiseConfig) StdDev() float64 {
	return (n.MinMeters + n.MaxMeters) / 2
}

// KalmanConfig parametrizes the 1-D Kalman + RTS smoother.
type KalmanConfig struct {
	R        float64 // measurement variance, m², default 0.01
	Q        float64 // process variance, m²/s³, default 1.0
	InitialP float64 // initial axis covariance, default 100
}

// EKFParams parametrizes the 7-state EKF; also the unit of the
// parameter sweep grid.
type EKFParams struct {
	SigmaAccel       float64 // accelerometer noise, m/s², default 0.5
	SigmaGyro        float64 // gyro noise, rad/s, default 0.02
	SigmaBias        float64 // bias random-walk intensity, default 0.001
	GPSPosNoise      float64 // default fix stddev, m, default 5.0
	MinSpeedForHeading float64 // heading-init threshold, m/s, default 2.0
}

// OutlierConfig parametrizes the physics-based / simple outlier rejector
//.
type OutlierConfig struct {
	Enabled         bool
	Method          OutlierMethod // "physics" (default) or "simple"
	MaxAccelG       float64       // default 2.0
	MaxYawRateDiff  float64       // deg/s, default 45
	MaxSpeedDiff    float64       // m/s, default 15
	MaxLatAccDiff   float64       // G, default 0.8
	AnomalyThreshold float64      // default 4.0
	UseTemporalCheck bool         // gate the triangle-window test
	MinPerpDistance float64       // metres, default 15
	TriangleRatio   float64       // default 2.5
}

// OutlierMethod selects the outlier-rejection strategy.
type OutlierMethod string

const (
	OutlierPhysics OutlierMethod = "physics"
	OutlierSimple  OutlierMethod = "simple"
)

// DefaultConfig returns the recognised defaults.
func DefaultConfig() Config {
	return Config{
		Sampling: SamplingConfig{IMUHz: 25, GPSHz: 1},
		Noise: NoiseConfig{
			Enabled:   true,
			MinMeters: 1,
			MaxMeters: 3,
		},
		Kalman: KalmanConfig{
			R:        0.01,
			Q:        1.0,
			InitialP: 100,
		},
		EKF: EKFParams{
			SigmaAccel:         0.5,
			SigmaGyro:          0.02,
			SigmaBias:          0.001,
			GPSPosNoise:        5.0,
			MinSpeedForHeading: 2.0,
		},
		Outlier: OutlierConfig{
			Enabled:          true,
			Method:           OutlierPhysics,
			MaxAccelG:        2.0,
			MaxYawRateDiff:   45,
			MaxSpeedDiff:     15,
			MaxLatAccDiff:    0.8,
			AnomalyThreshold: 4.0,
			UseTemporalCheck: true,
			MinPerpDistance:  15,
			TriangleRatio:    2.5,
		},
		G:               9.81,
		MetersPerDegLat: 111320,
	}
}

// Clone returns an independent copy of c. Config has no pointer or slice
// fields, so a plain value copy already satisfies the no-aliasing
// requirement; Clone exists so call sites that mutate a
// config for one trial of a sweep read as intentional copies
// rather than silent value semantics.
func (c Config) Clone() Config {
	return c
}

// String renders a one-line summary of the cadence and noise settings
// that most affect a run's shape, the way a log line or CLI flag dump
// would want it.
func (c Config) String() string {
	return fmt.Sprintf("[reconstruct:config] imu=%gHz gps=%gHz noise=%v outlier=%s(%s) seed=%d",
		c.Sampling.IMUHz, c.Sampling.GPSHz, c.Noise.Enabled, c.Outlier.Method, boolEnabled(c.Outlier.Enabled), c.RandSeed)
}

func boolEnabled(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// defaultEKFSweep is the small, design-time grid of (sigma_accel, sigma_gyro,
// sigma_bias, gps_pos_noise) tuples the orchestrator runs per lap. It is
// not meant to be exhaustive or adaptive.
func defaultEKFSweep(base EKFParams) []EKFParams {
	return []EKFParams{
		base,
		{SigmaAccel: base.SigmaAccel * 0.5, SigmaGyro: base.SigmaGyro, SigmaBias: base.SigmaBias, GPSPosNoise: base.GPSPosNoise, MinSpeedForHeading: base.MinSpeedForHeading},
		{SigmaAccel: base.SigmaAccel * 2, SigmaGyro: base.SigmaGyro, SigmaBias: base.SigmaBias, GPSPosNoise: base.GPSPosNoise, MinSpeedForHeading: base.MinSpeedForHeading},
		{SigmaAccel: base.SigmaAccel, SigmaGyro: base.SigmaGyro * 2, SigmaBias: base.SigmaBias, GPSPosNoise: base.GPSPosNoise, MinSpeedForHeading: base.MinSpeedForHeading},
		{SigmaAccel: base.SigmaAccel, SigmaGyro: base.SigmaGyro, SigmaBias: base.SigmaBias * 5, GPSPosNoise: base.GPSPosNoise, MinSpeedForHeading: base.MinSpeedForHeading},
		{SigmaAccel: base.SigmaAccel, SigmaGyro: base.SigmaGyro, SigmaBias: base.SigmaBias, GPSPosNoise: base.GPSPosNoise * 2, MinSpeedForHeading: base.MinSpeedForHeading},
	}
}
