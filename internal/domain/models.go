// Package domain implements the fitness metrics and ranking engine:
// per-exercise statistics, session aggregation, the daily leaderboard,
// and friend streak detection.
package domain

import "time"

// Medal is the rank-derived tier awarded to the top three daily scorers.
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
	MedalNone   Medal = "none"
)

// MedalForRank derives the medal from a dense rank. Medals are never
// assigned independently of rank.
func MedalForRank(rank int) Medal {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

// SetRecord is one logged set of an exercise. It is never mutated after
// creation.
type SetRecord struct {
	Reps         int
	Weight       float64
	IsBodyweight bool
	ExtraWeight  float64
}

// ExerciseStat holds the derived statistics for one exercise within one
// session. Calories and intensity are integers; intensity is clamped to
// [0, 100].
type ExerciseStat struct {
	ExerciseName      string
	MuscleGroup       string
	TotalSets         int
	TotalReps         int
	TotalWeight       float64
	MaxWeight         float64
	EstimatedCalories int
	IntensityScore    int
}

// SessionSummary is the persisted aggregate of one completed workout
// session. It is recomputed from the underlying logs whenever they change.
type SessionSummary struct {
	SessionID      string
	UserID         string
	Date           time.Time
	TotalCalories  int
	AvgIntensity   int
	TotalExercises int
	TotalSets      int
	CompletedAt    time.Time
}

// SessionFact is the slice of a session summary the ranking engine reads:
// one row per completed session on the target date.
type SessionFact struct {
	UserID    string
	Intensity int
	Calories  int
	Exercises int
}

// LeaderboardEntry is one row of the daily leaderboard, keyed by
// (UserID, Date). Rank is a dense 1..N permutation per date.
type LeaderboardEntry struct {
	UserID         string
	Date           time.Time
	TotalIntensity int
	TotalCalories  int
	TotalExercises int
	WorkoutCount   int
	Score          float64
	Rank           int
	Medal          Medal
}

// DayActivity is a "did this user train on this day" fact used by streak
// detection.
type DayActivity struct {
	UserID       string
	Date         time.Time
	WorkoutCount int
}

// StreakInfo reports a friend's run of consecutive active days ending
// today. It is derived on demand and never persisted.
type StreakInfo struct {
	UserID         string
	Streak         int
	LastActiveDate time.Time
}

// Cursor models the pagination token for session listings.
type Cursor struct {
	CompletedAt time.Time
	ID          string
}

// Day truncates t to midnight UTC. All engine date arithmetic happens on
// day granularity in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
