package domain

import "math"

// SessionTotals are the session-level aggregates over all exercises of one
// completed session.
type SessionTotals struct {
	TotalCalories  int
	AvgIntensity   int
	TotalExercises int
	TotalSets      int
}

// AggregateSession combines per-exercise statistics into session totals.
// It is a pure aggregation and safe to recompute any number of times from
// the same logs. An empty stat list yields all zeros, never NaN.
func AggregateSession(stats []ExerciseStat) SessionTotals {
	totals := SessionTotals{
		TotalExercises: len(stats),
	}

	var intensitySum int
	for _, stat := range stats {
		totals.TotalCalories += stat.EstimatedCalories
		totals.TotalSets += stat.TotalSets
		intensitySum += stat.IntensityScore
	}

	if len(stats) > 0 {
		totals.AvgIntensity = int(math.Round(float64(intensitySum) / float64(len(stats))))
	}

	return totals
}
