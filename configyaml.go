package reconstruct

import (
	"bytes"
	"io"

	"github.com/spf13/viper"
)

// LoadConfigYAML reads a YAML document overlaying DefaultConfig and returns
// the resulting value. It replaces the common pattern of
// `viper.AddConfigPath` + `viper.ReadInConfig` mutating a package-level
// config (see config.go's doc comment): each call builds a fresh viper
// instance and returns a plain Config value, so concurrent callers loading
// different overlays never interfere with each other.
//
// Only fields present in the document override the default; everything
// else keeps DefaultConfig's value. Keys mirror Config's own dotted field
// paths, e.g. `kalman.initial_P` or `outlier.anomaly_threshold`.
func LoadConfigYAML(r io.Reader) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := DefaultConfig()
	applyDefaults(v, cfg)

	buf, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	if len(bytes.TrimSpace(buf)) > 0 {
		if err := v.ReadConfig(bytes.NewReader(buf)); err != nil {
			return Config{}, err
		}
	}

	cfg.Sampling.IMUHz = v.GetFloat64("sampling.imu_hz")
	cfg.Sampling.GPSHz = v.GetFloat64("sampling.gps_hz")

	cfg.Noise.Enabled = v.GetBool("noise.enabled")
	cfg.Noise.MinMeters = v.GetFloat64("noise.min_meters")
	cfg.Noise.MaxMeters = v.GetFloat64("noise.max_meters")

	cfg.Kalman.R = v.GetFloat64("kalman.r")
	cfg.Kalman.Q = v.GetFloat64("kalman.q")
	cfg.Kalman.InitialP = v.GetFloat64("kalman.initial_p")

	cfg.EKF.SigmaAccel = v.GetFloat64("ekf.sigma_accel")
	cfg.EKF.SigmaGyro = v.GetFloat64("ekf.sigma_gyro")
	cfg.EKF.SigmaBias = v.GetFloat64("ekf.sigma_bias")
	cfg.EKF.GPSPosNoise = v.GetFloat64("ekf.gps_pos_noise")
	cfg.EKF.MinSpeedForHeading = v.GetFloat64("ekf.min_speed_for_heading")

	cfg.Outlier.Enabled = v.GetBool("outlier.enabled")
	cfg.Outlier.Method = OutlierMethod(v.GetString("outlier.method"))
	cfg.Outlier.MaxAccelG = v.GetFloat64("outlier.max_accel_g")
	cfg.Outlier.MaxYawRateDiff = v.GetFloat64("outlier.max_yaw_rate_diff")
	cfg.Outlier.MaxSpeedDiff = v.GetFloat64("outlier.max_speed_diff")
	cfg.Outlier.MaxLatAccDiff = v.GetFloat64("outlier.max_lat_acc_diff")
	cfg.Outlier.AnomalyThreshold = v.GetFloat64("outlier.anomaly_threshold")
	cfg.Outlier.UseTemporalCheck = v.GetBool("outlier.use_temporal_check")
	cfg.Outlier.MinPerpDistance = v.GetFloat64("outlier.min_perp_distance")
	cfg.Outlier.TriangleRatio = v.GetFloat64("outlier.triangle_ratio")

	cfg.G = v.GetFloat64("g")
	cfg.MetersPerDegLat = v.GetFloat64("meters_per_deg_lat")

	return cfg, nil
}

// applyDefaults seeds v with cfg's values so that fields absent from the
// YAML document still resolve through viper's default mechanism rather than
// silently zeroing out.
func applyDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("sampling.imu_hz", cfg.Sampling.IMUHz)
	v.SetDefault("sampling.gps_hz", cfg.Sampling.GPSHz)

	v.SetDefault("noise.enabled", cfg.Noise.Enabled)
	v.SetDefault("noise.min_meters", cfg.Noise.MinMeters)
	v.SetDefault("noise.max_meters", cfg.Noise.MaxMeters)

	v.SetDefault("kalman.r", cfg.Kalman.R)
	v.SetDefault("kalman.q", cfg.Kalman.Q)
	v.SetDefault("kalman.initial_p", cfg.Kalman.InitialP)

	v.SetDefault("ekf.sigma_accel", cfg.EKF.SigmaAccel)
	v.SetDefault("ekf.sigma_gyro", cfg.EKF.SigmaGyro)
	v.SetDefault("ekf.sigma_bias", cfg.EKF.SigmaBias)
	v.SetDefault("ekf.gps_pos_noise", cfg.EKF.GPSPosNoise)
	v.SetDefault("ekf.min_speed_for_heading", cfg.EKF.MinSpeedForHeading)

	v.SetDefault("outlier.enabled", cfg.Outlier.Enabled)
	v.SetDefault("outlier.method", string(cfg.Outlier.Method))
	v.SetDefault("outlier.max_accel_g", cfg.Outlier.MaxAccelG)
	v.SetDefault("outlier.max_yaw_rate_diff", cfg.Outlier.MaxYawRateDiff)
	v.SetDefault("outlier.max_speed_diff", cfg.Outlier.MaxSpeedDiff)
	v.SetDefault("outlier.max_lat_acc_diff", cfg.Outlier.MaxLatAccDiff)
	v.SetDefault("outlier.anomaly_threshold", cfg.Outlier.AnomalyThreshold)
	v.SetDefault("outlier.use_temporal_check", cfg.Outlier.UseTemporalCheck)
	v.SetDefault("outlier.min_perp_distance", cfg.Outlier.MinPerpDistance)
	v.SetDefault("outlier.triangle_ratio", cfg.Outlier.TriangleRatio)

	v.SetDefault("g", cfg.G)
	v.SetDefault("meters_per_deg_lat", cfg.MetersPerDegLat)
}
