package reconstruct

import (
	"fmt"
	"sort"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/google/uuid"
)

// Process is the pure entry point: group samples by lap, run
// the per-lap orchestrator (pipeline.go) on each lap concurrently, and
// assemble the results. It returns ErrInvalidInput if samples is empty or
// no lap yields a non-empty result; every other degeneracy (a singular
// covariance, an EKF update skipped) is recovered locally and surfaced
// through LapResult.Warnings instead of an error.
//
// logger may be nil, in which case nothing is logged. Process never
// mutates cfg or samples.
func Process(samples []TelemetryPoint, cfg Config, logger kitlog.Logger) (*Result, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	runID := uuid.NewString()
	logger = kitlog.With(logger, "component", "reconstruct", "run_id", runID)

	byLap := make(map[int][]TelemetryPoint)
	for _, s := range samples {
		byLap[s.Lap] = append(byLap[s.Lap], s)
	}
	if len(byLap) == 0 {
		return nil, fmt.Errorf("%w: no laps found", ErrInvalidInput)
	}

	laps := make([]int, 0, len(byLap))
	for lap := range byLap {
		laps = append(laps, lap)
	}
	sort.Ints(laps)

	logger.Log("level", "info", "message", "processing run", "laps", len(laps), "samples", len(samples))

	perLap := make(map[int]*LapResult, len(laps))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, lap := range laps {
		wg.Add(1)
		go func(lap int) {
			defer wg.Done()
			points := byLap[lap]
			sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })

			result := ProcessLap(lap, points, cfg, cfg.RandSeed+int64(lap), logger)

			mu.Lock()
			if result != nil {
				perLap[lap] = result
			}
			mu.Unlock()
		}(lap)
	}
	wg.Wait() // don't return until every lap has finished processing.

	if len(perLap) == 0 {
		return nil, fmt.Errorf("%w: every lap was empty after filtering", ErrInvalidInput)
	}

	validLaps := make([]int, 0, len(perLap))
	for lap := range perLap {
		validLaps = append(validLaps, lap)
	}
	sort.Ints(validLaps)

	selected := selectLap(perLap, validLaps)

	logger.Log("level", "notice", "message", "run finished", "selected_lap", selected)

	return &Result{
		RunID:       runID,
		Laps:        validLaps,
		SelectedLap: selected,
		PerLap:      perLap,
	}, nil
}

// selectLap picks the lap with the greatest total distance as the run's
// representative lap, a reasonable default in the absence of any
// caller-supplied preference: the longest lap is the one most likely to be
// a genuine timed lap rather than an out-lap or in-lap fragment.
func selectLap(perLap map[int]*LapResult, laps []int) int {
	best := laps[0]
	bestDist := perLap[best].TotalDistance
	for _, lap := range laps[1:] {
		if d := perLap[lap].TotalDistance; d > bestDist {
			best = lap
			bestDist = d
		}
	}
	return best
}
