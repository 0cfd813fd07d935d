package domain

import "math"

// MET values for resistance training, by relative intensity band.
const (
	metVigorous = 6.0
	metModerate = 5.0
	metLight    = 3.5
)

// MetricsCalculator converts the logged sets of one exercise into an
// ExerciseStat.
type MetricsCalculator struct {
	cfg Config
}

// NewMetricsCalculator constructs a calculator with the given policy.
func NewMetricsCalculator(cfg Config) *MetricsCalculator {
	return &MetricsCalculator{cfg: cfg}
}

// ExerciseStats computes the statistics for one exercise performed within
// one session. bodyWeightKg is the athlete's body weight; values <= 0 fall
// back to the configured default. Malformed sets (negative reps or weights,
// non-finite weights) are skipped so they cannot corrupt the totals. With
// no performed sets every numeric output is zero.
func (c *MetricsCalculator) ExerciseStats(name, muscleGroup string, sets []SetRecord, bodyWeightKg float64) ExerciseStat {
	if bodyWeightKg <= 0 {
		bodyWeightKg = c.cfg.DefaultBodyWeightKg
	}

	stat := ExerciseStat{
		ExerciseName: name,
		MuscleGroup:  muscleGroup,
	}

	for _, set := range sets {
		if !validSet(set) {
			continue
		}
		if set.Reps == 0 && set.Weight == 0 {
			// An all-zero set was not performed.
			continue
		}

		weight := effectiveWeight(set, bodyWeightKg)
		stat.TotalSets++
		stat.TotalReps += set.Reps
		stat.TotalWeight += weight * float64(set.Reps)
		if weight > stat.MaxWeight {
			stat.MaxWeight = weight
		}
	}

	if stat.TotalSets == 0 {
		return stat
	}

	var relativeIntensity float64
	if stat.TotalReps > 0 {
		relativeIntensity = (stat.TotalWeight / float64(stat.TotalReps)) / bodyWeightKg
	}

	met := metLight
	switch {
	case relativeIntensity > 0.5:
		met = metVigorous
	case relativeIntensity > 0.2:
		met = metModerate
	}

	durationMinutes := float64(stat.TotalSets * c.cfg.MinutesPerSet)
	stat.EstimatedCalories = int(math.Round(met * bodyWeightKg * durationMinutes / 60))

	strengthScore := math.Min(40, relativeIntensity*80)
	volumeScore := math.Min(30, float64(stat.TotalReps)*0.5)
	setScore := math.Min(30, float64(stat.TotalSets)*5)
	stat.IntensityScore = int(math.Min(100, math.Round(strengthScore+volumeScore+setScore)))

	return stat
}

// effectiveWeight resolves the weight moved in one rep of the given set.
func effectiveWeight(set SetRecord, bodyWeightKg float64) float64 {
	if set.IsBodyweight {
		return bodyWeightKg + set.ExtraWeight
	}
	return set.Weight
}

// validSet rejects malformed input records: negative reps or weights and
// non-finite weights.
func validSet(set SetRecord) bool {
	if set.Reps < 0 || set.Weight < 0 || set.ExtraWeight < 0 {
		return false
	}
	if math.IsNaN(set.Weight) || math.IsInf(set.Weight, 0) {
		return false
	}
	if math.IsNaN(set.ExtraWeight) || math.IsInf(set.ExtraWeight, 0) {
		return false
	}
	return true
}
