package reconstruct

import (
	"errors"
	"testing"
)

func lapSamples(lap int, n int, dt, speedMS float64) []TelemetryPoint {
	pts := steadyLapSamples(n, dt, speedMS)
	for i := range pts {
		pts[i].Lap = lap
	}
	return pts
}

func TestProcessEmptyInputIsInvalid(t *testing.T) {
	_, err := Process(nil, DefaultConfig(), nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// S1: a single clean lap with noise injection disabled should reconstruct
// itself near-perfectly — every reconstructor should score a small RMSE
// against its own ground truth.
func TestProcessS1IdentityReconstruction(t *testing.T) {
	samples := lapSamples(0, 250, 0.04, 20.0)
	cfg := DefaultConfig()
	cfg.Noise.Enabled = false

	result, err := Process(samples, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lr := result.PerLap[0]
	if lr == nil {
		t.Fatal("expected lap 0 in the result")
	}
	for name, m := range lr.CleanMetrics {
		if m.RMSE > 5 {
			t.Errorf("%s RMSE too large for a noiseless identity lap: %v", name, m.RMSE)
		}
	}
}

// S2: with noise injection enabled, the noisy-path RMSE should be worse
// than (or comparable to, never dramatically better than) the clean path
// for the reconstructors that just interpolate raw fixes.
func TestProcessS2NoiseInjectionDegradesLinear(t *testing.T) {
	samples := lapSamples(0, 250, 0.04, 20.0)
	cfg := DefaultConfig()
	cfg.Noise.Enabled = true
	cfg.RandSeed = 123

	result, err := Process(samples, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lr := result.PerLap[0]
	if lr.NoisyMetrics[ReconLinear].RMSE <= 0 {
		t.Fatal("expected nonzero RMSE once noise is injected")
	}
}

// S3: zero inertial input degenerates the EKF to dead reckoning from the
// position fixes alone; Process must still complete without error.
func TestProcessS3DegenerateEKFStillCompletes(t *testing.T) {
	samples := lapSamples(0, 150, 0.04, 15.0)
	for i := range samples {
		samples[i].LateralAcc = 0
		samples[i].LongitudinalAcc = 0
		samples[i].YawRate = 0
	}
	result, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.PerLap[0].CleanReconstructions[ReconEKFRaw]) == 0 {
		t.Fatal("expected a non-empty EKF reconstruction even in the degenerate case")
	}
}

// S4: a single, wildly displaced fix should be caught by the outlier
// rejector and not appear among the kept clean fixes.
func TestProcessS4SingleOutlierIsFiltered(t *testing.T) {
	samples := lapSamples(0, 200, 0.04, 20.0)
	samples[100].Lon += 200.0 / (111320.0 * 0.70710678)

	result, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PerLap[0].Outliers.Clean == 0 {
		t.Fatal("expected the physics rejector to catch the displaced fix")
	}
}

// S5: round-tripping a lap through Process twice with identical input and
// config must produce identical results.
func TestProcessS5RoundTripIsReproducible(t *testing.T) {
	samples := lapSamples(0, 180, 0.04, 18.0)
	cfg := DefaultConfig()
	cfg.RandSeed = 55

	r1, err := Process(samples, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Process(samples, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lr1, lr2 := r1.PerLap[0], r2.PerLap[0]
	if len(lr1.NoisyFixes) != len(lr2.NoisyFixes) {
		t.Fatal("expected identical noisy fix counts across runs")
	}
	for i := range lr1.NoisyFixes {
		if lr1.NoisyFixes[i].Lat != lr2.NoisyFixes[i].Lat {
			t.Fatalf("noisy fix %d diverged across reproducible runs", i)
		}
	}
}

// S6: multiple laps, processed concurrently, must each retain their own
// samples without cross-contamination, even though both laps share the
// same timestamps.
func TestProcessS6MultipleLapsAreIndependent(t *testing.T) {
	lap0 := lapSamples(0, 120, 0.04, 15.0)
	lap1 := lapSamples(1, 140, 0.04, 25.0)
	samples := append(append([]TelemetryPoint{}, lap0...), lap1...)

	result, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Laps) != 2 {
		t.Fatalf("expected 2 laps, got %d", len(result.Laps))
	}
	if result.PerLap[0].TotalDistance == result.PerLap[1].TotalDistance {
		t.Fatal("expected the two laps' distances to differ given different speeds/durations")
	}
}

func TestProcessSelectsLongestLapByDefault(t *testing.T) {
	lap0 := lapSamples(0, 80, 0.04, 10.0)
	lap1 := lapSamples(1, 200, 0.04, 10.0)
	samples := append(append([]TelemetryPoint{}, lap0...), lap1...)

	result, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SelectedLap != 1 {
		t.Fatalf("expected lap 1 (the longer lap) to be selected, got %d", result.SelectedLap)
	}
}

func TestProcessEveryRunGetsAUniqueRunID(t *testing.T) {
	samples := lapSamples(0, 60, 0.04, 10.0)
	r1, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Process(samples, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1.RunID == "" || r2.RunID == "" {
		t.Fatal("expected non-empty run IDs")
	}
	if r1.RunID == r2.RunID {
		t.Fatal("expected distinct run IDs across separate Process calls")
	}
}
