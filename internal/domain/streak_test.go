package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var streakToday = time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

func activeDays(userID string, offsets ...int) []DayActivity {
	facts := make([]DayActivity, 0, len(offsets))
	for _, offset := range offsets {
		facts = append(facts, DayActivity{
			UserID:       userID,
			Date:         streakToday.AddDate(0, 0, -offset),
			WorkoutCount: 1,
		})
	}
	return facts
}

func TestFriendStreaksThreeConsecutiveDays(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	// Active today, yesterday, and the day before; inactive on day -3.
	facts := activeDays("friend-1", 0, 1, 2, 4)

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, facts)
	require.Len(t, streaks, 1)
	require.Equal(t, "friend-1", streaks[0].UserID)
	require.Equal(t, 3, streaks[0].Streak)
	require.Equal(t, streakToday, streaks[0].LastActiveDate)
}

func TestFriendStreaksNotActiveToday(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	// Active yesterday and the day before, but not today: the walk is
	// anchored at today, so the streak terminates immediately at zero.
	facts := activeDays("friend-1", 1, 2)

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, facts)
	require.Empty(t, streaks)
}

func TestFriendStreaksBelowThreshold(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	facts := activeDays("friend-1", 0, 1)

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, facts)
	require.Empty(t, streaks)
}

func TestFriendStreaksStopAtGap(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	// Gap at day -2 cuts a longer history down to 2, below the threshold.
	facts := activeDays("friend-1", 0, 1, 3, 4, 5)

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, facts)
	require.Empty(t, streaks)
}

func TestFriendStreaksSortedAndCapped(t *testing.T) {
	cfg := DefaultConfig()
	detector := NewStreakDetector(cfg)

	friendIDs := []string{"f1", "f2", "f3", "f4", "f5", "f6"}
	var facts []DayActivity
	for i, id := range friendIDs {
		days := 3 + i // f1 streak 3 ... f6 streak 8
		offsets := make([]int, days)
		for d := 0; d < days; d++ {
			offsets[d] = d
		}
		facts = append(facts, activeDays(id, offsets...)...)
	}

	streaks := detector.FriendStreaks(streakToday, friendIDs, facts)
	require.Len(t, streaks, cfg.MaxStreaksReported)
	require.Equal(t, "f6", streaks[0].UserID)
	require.Equal(t, 8, streaks[0].Streak)
	require.Equal(t, "f2", streaks[len(streaks)-1].UserID)
}

func TestFriendStreaksIgnoresZeroWorkoutDays(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	facts := []DayActivity{
		{UserID: "friend-1", Date: streakToday, WorkoutCount: 0},
		{UserID: "friend-1", Date: streakToday.AddDate(0, 0, -1), WorkoutCount: 1},
	}

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, facts)
	require.Empty(t, streaks)
}

func TestFriendStreaksUnknownFriend(t *testing.T) {
	detector := NewStreakDetector(DefaultConfig())

	streaks := detector.FriendStreaks(streakToday, []string{"friend-1"}, nil)
	require.Empty(t, streaks)
}
