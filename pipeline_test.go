package reconstruct

import "testing"

func TestProcessLapProducesEveryReconstructor(t *testing.T) {
	pts := steadyLapSamples(250, 0.04, 20.0) // 25 Hz, 10s lap
	cfg := DefaultConfig()

	result := ProcessLap(0, pts, cfg, 42, nil)
	if result == nil {
		t.Fatal("expected a non-nil LapResult")
	}

	for _, name := range []ReconstructorName{ReconLinear, ReconCatmullRom, ReconKalmanRTS, ReconEKFRaw, ReconEKFSplineSmooth} {
		if len(result.CleanReconstructions[name]) != len(result.GroundTruth) {
			t.Errorf("%s clean reconstruction length = %d, want %d", name, len(result.CleanReconstructions[name]), len(result.GroundTruth))
		}
		if len(result.NoisyReconstructions[name]) != len(result.GroundTruth) {
			t.Errorf("%s noisy reconstruction length = %d, want %d", name, len(result.NoisyReconstructions[name]), len(result.GroundTruth))
		}
	}

	if len(result.EKFSweep) == 0 {
		t.Fatal("expected a non-empty EKF sweep")
	}
	if result.Outliers.Total == 0 {
		t.Fatal("expected at least one downsampled fix")
	}
	if result.Warnings == nil {
		t.Fatal("Warnings must always be non-nil")
	}
}

func TestProcessLapNoiseDisabledMatchesClean(t *testing.T) {
	pts := steadyLapSamples(100, 0.04, 20.0)
	cfg := DefaultConfig()
	cfg.Noise.Enabled = false

	result := ProcessLap(0, pts, cfg, 7, nil)
	if len(result.NoisyFixes) != len(result.CleanFixes) {
		t.Fatalf("with noise disabled, noisy/clean fix counts should match: %d vs %d", len(result.NoisyFixes), len(result.CleanFixes))
	}
	for i := range result.CleanFixes {
		if result.NoisyFixes[i].Lat != result.CleanFixes[i].Lat || result.NoisyFixes[i].Lon != result.CleanFixes[i].Lon {
			t.Fatalf("with noise disabled, fix %d should be identical between clean and noisy paths", i)
		}
	}
}

func TestProcessLapDeterministicForFixedSeed(t *testing.T) {
	pts := steadyLapSamples(120, 0.04, 20.0)
	cfg := DefaultConfig()

	r1 := ProcessLap(0, pts, cfg, 99, nil)
	r2 := ProcessLap(0, pts, cfg, 99, nil)

	if len(r1.NoisyFixes) != len(r2.NoisyFixes) {
		t.Fatalf("noisy fix counts differ across runs with the same seed: %d vs %d", len(r1.NoisyFixes), len(r2.NoisyFixes))
	}
	for i := range r1.NoisyFixes {
		if r1.NoisyFixes[i].Lat != r2.NoisyFixes[i].Lat || r1.NoisyFixes[i].Lon != r2.NoisyFixes[i].Lon {
			t.Fatalf("noisy fix %d differs across runs with the same seed", i)
		}
	}
}

func TestProcessLapEmptyInputReturnsNil(t *testing.T) {
	result := ProcessLap(0, nil, DefaultConfig(), 1, nil)
	if result != nil {
		t.Fatal("expected nil LapResult for an empty lap")
	}
}
