package domain

import (
	"sort"
	"time"
)

// StreakDetector finds friends on a run of consecutive training days.
type StreakDetector struct {
	cfg Config
}

// NewStreakDetector constructs a detector with the given policy.
func NewStreakDetector(cfg Config) *StreakDetector {
	return &StreakDetector{cfg: cfg}
}

// FriendStreaks computes, per friend, the longest unbroken run of
// consecutive active days ending today. facts are the trailing-window
// activity days; rows with WorkoutCount <= 0 are ignored.
//
// The walk is anchored strictly at today: a friend who trained yesterday
// and the day before but not (yet) today reports streak 0, not 2. Product
// sign-off on changing that anchor is pending; until then the behavior is
// kept as-is.
//
// The result is filtered to streaks of at least MinStreakToReport days,
// sorted longest first, and capped at MaxStreaksReported friends.
func (d *StreakDetector) FriendStreaks(today time.Time, friendIDs []string, facts []DayActivity) []StreakInfo {
	today = Day(today)

	daysByUser := make(map[string][]time.Time)
	for _, fact := range facts {
		if fact.WorkoutCount <= 0 {
			continue
		}
		daysByUser[fact.UserID] = append(daysByUser[fact.UserID], Day(fact.Date))
	}

	streaks := make([]StreakInfo, 0, len(friendIDs))
	for _, friendID := range friendIDs {
		days := daysByUser[friendID]
		if len(days) == 0 {
			continue
		}

		sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

		streak := 0
		for _, day := range days {
			if daysBetween(day, today) == streak {
				streak++
			} else {
				break
			}
		}

		if streak >= d.cfg.MinStreakToReport {
			streaks = append(streaks, StreakInfo{
				UserID:         friendID,
				Streak:         streak,
				LastActiveDate: days[0],
			})
		}
	}

	sort.Slice(streaks, func(i, j int) bool {
		if streaks[i].Streak != streaks[j].Streak {
			return streaks[i].Streak > streaks[j].Streak
		}
		return streaks[i].UserID < streaks[j].UserID
	})

	if d.cfg.MaxStreaksReported > 0 && len(streaks) > d.cfg.MaxStreaksReported {
		streaks = streaks[:d.cfg.MaxStreaksReported]
	}

	return streaks
}

// daysBetween counts whole days from day up to ref. Both arguments must
// already be day-truncated UTC times.
func daysBetween(day, ref time.Time) int {
	return int(ref.Sub(day).Hours() / 24)
}
