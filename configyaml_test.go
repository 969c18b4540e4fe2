package reconstruct

import (
	"strings"
	"testing"
)

func TestLoadConfigYAMLEmptyMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfigYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfigYAML: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("empty document should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfigYAMLOverridesOnlyGivenFields(t *testing.T) {
	doc := `
outlier:
  anomaly_threshold: 7.5
  method: simple
ekf:
  sigma_accel: 1.25
`
	cfg, err := LoadConfigYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfigYAML: %v", err)
	}
	if cfg.Outlier.AnomalyThreshold != 7.5 {
		t.Fatalf("AnomalyThreshold = %v, want 7.5", cfg.Outlier.AnomalyThreshold)
	}
	if cfg.Outlier.Method != OutlierSimple {
		t.Fatalf("Method = %v, want simple", cfg.Outlier.Method)
	}
	if cfg.EKF.SigmaAccel != 1.25 {
		t.Fatalf("SigmaAccel = %v, want 1.25", cfg.EKF.SigmaAccel)
	}
	// Untouched fields keep defaults.
	if cfg.Sampling.IMUHz != 25 {
		t.Fatalf("IMUHz = %v, want default 25", cfg.Sampling.IMUHz)
	}
	if cfg.Kalman.Q != 1.0 {
		t.Fatalf("Kalman.Q = %v, want default 1.0", cfg.Kalman.Q)
	}
}
