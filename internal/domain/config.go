package domain

// ScoreWeights are the composite-score coefficients for the daily
// leaderboard. They encode product policy and are injected, not hardcoded
// at call sites.
type ScoreWeights struct {
	Intensity    float64
	Calories     float64
	Exercises    float64
	WorkoutCount float64
}

// Config carries the engine's policy constants.
type Config struct {
	// DefaultBodyWeightKg is used for bodyweight sets when the athlete's
	// body weight is unknown.
	DefaultBodyWeightKg float64
	// MinutesPerSet is the assumed duration of one set including rest.
	MinutesPerSet int
	// StreakWindowDays is the trailing window inspected for friend streaks.
	StreakWindowDays int
	// MinStreakToReport filters out streaks below this many days.
	MinStreakToReport int
	// MaxStreaksReported caps how many friend streaks a query returns.
	MaxStreaksReported int
	ScoreWeights       ScoreWeights
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{
		DefaultBodyWeightKg: 75,
		MinutesPerSet:       2,
		StreakWindowDays:    7,
		MinStreakToReport:   3,
		MaxStreaksReported:  5,
		ScoreWeights: ScoreWeights{
			Intensity:    0.4,
			Calories:     0.003,
			Exercises:    2,
			WorkoutCount: 10,
		},
	}
}
