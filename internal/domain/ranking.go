package domain

import (
	"math"
	"sort"
	"time"
)

// userDayTotals accumulates one user's session facts for a single date.
type userDayTotals struct {
	userID         string
	totalIntensity int
	totalCalories  int
	totalExercises int
	workoutCount   int
}

// RankingEngine builds the daily cross-user leaderboard.
type RankingEngine struct {
	weights ScoreWeights
}

// NewRankingEngine constructs an engine with the given score weights.
func NewRankingEngine(weights ScoreWeights) *RankingEngine {
	return &RankingEngine{weights: weights}
}

// BuildDailyLeaderboard turns the completed-session facts of one date into
// a full replacement set of leaderboard entries. It is deterministic: the
// same facts always produce identical entries, so recomputation is
// idempotent. An empty fact list yields an empty result.
func (e *RankingEngine) BuildDailyLeaderboard(date time.Time, facts []SessionFact) []LeaderboardEntry {
	if len(facts) == 0 {
		return nil
	}
	date = Day(date)

	byUser := make(map[string]*userDayTotals)
	for _, fact := range facts {
		totals, ok := byUser[fact.UserID]
		if !ok {
			totals = &userDayTotals{userID: fact.UserID}
			byUser[fact.UserID] = totals
		}
		totals.totalIntensity += fact.Intensity
		totals.totalCalories += fact.Calories
		totals.totalExercises += fact.Exercises
		totals.workoutCount++
	}

	entries := make([]LeaderboardEntry, 0, len(byUser))
	for _, totals := range byUser {
		avgIntensity := float64(totals.totalIntensity) / float64(totals.workoutCount)
		score := avgIntensity*e.weights.Intensity +
			float64(totals.totalCalories)*e.weights.Calories +
			float64(totals.totalExercises)*e.weights.Exercises +
			float64(totals.workoutCount)*e.weights.WorkoutCount

		entries = append(entries, LeaderboardEntry{
			UserID:         totals.userID,
			Date:           date,
			TotalIntensity: totals.totalIntensity,
			TotalCalories:  totals.totalCalories,
			TotalExercises: totals.totalExercises,
			WorkoutCount:   totals.workoutCount,
			Score:          math.Round(score*100) / 100,
		})
	}

	// Total order: score desc, then calories desc, then workout count desc,
	// then user ID asc. Ties can therefore never depend on input order.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalCalories != b.TotalCalories {
			return a.TotalCalories > b.TotalCalories
		}
		if a.WorkoutCount != b.WorkoutCount {
			return a.WorkoutCount > b.WorkoutCount
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Medal = MedalForRank(entries[i].Rank)
	}

	return entries
}
