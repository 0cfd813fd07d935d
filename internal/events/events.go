// Package events defines the message payloads published on the bus.
package events

import "time"

// SessionCompleted represents the message emitted when a workout session is
// recorded. Date is the session's calendar day in UTC, formatted 2006-01-02.
type SessionCompleted struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Date           string    `json:"date"`
	TotalCalories  int       `json:"total_calories"`
	AvgIntensity   int       `json:"avg_intensity"`
	TotalExercises int       `json:"total_exercises"`
	TotalSets      int       `json:"total_sets"`
	CompletedAt    time.Time `json:"completed_at"`
}

// LeaderboardEntry is one ranked row inside a LeaderboardUpdated message.
type LeaderboardEntry struct {
	UserID       string  `json:"user_id"`
	Rank         int     `json:"rank"`
	Score        float64 `json:"score"`
	Medal        string  `json:"medal"`
	Calories     int     `json:"calories"`
	WorkoutCount int     `json:"workout_count"`
}

// LeaderboardUpdated is emitted after a date's leaderboard has been rebuilt.
type LeaderboardUpdated struct {
	Date       string             `json:"date"`
	Entries    []LeaderboardEntry `json:"entries"`
	OccurredAt time.Time          `json:"occurred_at"`
}
