package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/gymrank/internal/observability"
)

// SessionRepository captures persistence of completed-session summaries and
// the per-date facts the ranking engine reads.
type SessionRepository interface {
	FindByIdempotency(ctx context.Context, userID, idempotencyKey string) (*SessionSummary, error)
	Create(ctx context.Context, summary SessionSummary, idempotencyKey string) error
	Get(ctx context.Context, sessionID string) (*SessionSummary, error)
	ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]SessionSummary, *Cursor, error)
	FactsForDate(ctx context.Context, date time.Time) ([]SessionFact, error)
}

// LeaderboardRepository captures the ranking store. ReplaceForDate must
// apply the entries as a single all-or-nothing replacement of the date's
// rows.
type LeaderboardRepository interface {
	ReplaceForDate(ctx context.Context, date time.Time, entries []LeaderboardEntry) error
	EntriesForDate(ctx context.Context, date time.Time) ([]LeaderboardEntry, error)
	EntryForUser(ctx context.Context, userID string, date time.Time) (*LeaderboardEntry, error)
	ActiveDays(ctx context.Context, userIDs []string, from time.Time) ([]DayActivity, error)
}

// Service orchestrates the engine against its storage collaborators.
type Service struct {
	sessions    SessionRepository
	leaderboard LeaderboardRepository
	calc        *MetricsCalculator
	ranking     *RankingEngine
	streaks     *StreakDetector
	cfg         Config
}

// NewService constructs a Service.
func NewService(sessions SessionRepository, leaderboard LeaderboardRepository, cfg Config) *Service {
	return &Service{
		sessions:    sessions,
		leaderboard: leaderboard,
		calc:        NewMetricsCalculator(cfg),
		ranking:     NewRankingEngine(cfg.ScoreWeights),
		streaks:     NewStreakDetector(cfg),
		cfg:         cfg,
	}
}

// ExerciseInput carries the raw set logs of one exercise.
type ExerciseInput struct {
	Name        string
	MuscleGroup string
	Sets        []SetRecord
}

// CompleteSessionInput captures the payload of a finished workout session.
type CompleteSessionInput struct {
	UserID         string
	Date           time.Time
	BodyWeightKg   float64
	Exercises      []ExerciseInput
	IdempotencyKey string
}

// CompletedSession pairs the persisted summary with the per-exercise
// statistics it was derived from. On an idempotent replay only the summary
// is available.
type CompletedSession struct {
	Summary   SessionSummary
	Exercises []ExerciseStat
}

// CompleteSession computes per-exercise statistics and session totals from
// the raw set logs, persists the summary, and records the completion event.
// The boolean result reports an idempotent replay.
func (s *Service) CompleteSession(ctx context.Context, input CompleteSessionInput) (*CompletedSession, bool, error) {
	if existing, err := s.sessions.FindByIdempotency(ctx, input.UserID, input.IdempotencyKey); err != nil {
		return nil, false, storageErr("find session by idempotency key", err)
	} else if existing != nil {
		return &CompletedSession{Summary: *existing}, true, nil
	}

	stats := make([]ExerciseStat, 0, len(input.Exercises))
	for _, exercise := range input.Exercises {
		stats = append(stats, s.calc.ExerciseStats(exercise.Name, exercise.MuscleGroup, exercise.Sets, input.BodyWeightKg))
	}
	totals := AggregateSession(stats)

	summary := SessionSummary{
		SessionID:      uuid.NewString(),
		UserID:         input.UserID,
		Date:           Day(input.Date),
		TotalCalories:  totals.TotalCalories,
		AvgIntensity:   totals.AvgIntensity,
		TotalExercises: totals.TotalExercises,
		TotalSets:      totals.TotalSets,
		CompletedAt:    time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, summary, input.IdempotencyKey); err != nil {
		return nil, false, storageErr("create session summary", err)
	}

	return &CompletedSession{Summary: summary, Exercises: stats}, false, nil
}

// GetSession returns a stored session summary by ID.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionSummary, error) {
	summary, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr("get session", err)
	}
	if summary == nil {
		return nil, ErrSessionNotFound
	}
	return summary, nil
}

// ListSessions returns a user's session summaries, newest first, with
// cursor pagination.
func (s *Service) ListSessions(ctx context.Context, userID string, cursor *Cursor, limit int) ([]SessionSummary, *Cursor, error) {
	summaries, next, err := s.sessions.ListByUser(ctx, userID, cursor, limit)
	if err != nil {
		return nil, nil, storageErr("list sessions", err)
	}
	return summaries, next, nil
}

// RecomputeDailyLeaderboard rebuilds the leaderboard for one date from all
// completed sessions of that date and replaces the stored rows atomically.
// With zero sessions it returns an empty result and writes nothing, leaving
// prior leaderboard state untouched. Recomputation with unchanged facts is
// idempotent, so concurrent runs for the same date are safe under
// last-write-wins.
func (s *Service) RecomputeDailyLeaderboard(ctx context.Context, date time.Time) ([]LeaderboardEntry, error) {
	started := time.Now()
	date = Day(date)

	facts, err := s.sessions.FactsForDate(ctx, date)
	if err != nil {
		return nil, storageErr("read session facts", err)
	}
	if len(facts) == 0 {
		return nil, nil
	}

	entries := s.ranking.BuildDailyLeaderboard(date, facts)
	if err := s.leaderboard.ReplaceForDate(ctx, date, entries); err != nil {
		return nil, storageErr("replace leaderboard entries", err)
	}

	observability.RecordLeaderboardRecompute(time.Since(started), len(entries))
	return entries, nil
}

// DailyLeaderboard returns the stored entries for a date, rank ascending.
func (s *Service) DailyLeaderboard(ctx context.Context, date time.Time) ([]LeaderboardEntry, error) {
	entries, err := s.leaderboard.EntriesForDate(ctx, Day(date))
	if err != nil {
		return nil, storageErr("read leaderboard entries", err)
	}
	return entries, nil
}

// MedalStatus is a user's standing for one date. Entry is nil when the
// user has no leaderboard row for the date; Top3 is then left empty.
type MedalStatus struct {
	Date  time.Time
	Entry *LeaderboardEntry
	Top3  []LeaderboardEntry
}

// UserMedal returns the user's leaderboard entry for the date together with
// the date's podium.
func (s *Service) UserMedal(ctx context.Context, userID string, date time.Time) (*MedalStatus, error) {
	date = Day(date)

	entry, err := s.leaderboard.EntryForUser(ctx, userID, date)
	if err != nil {
		return nil, storageErr("read user leaderboard entry", err)
	}

	status := &MedalStatus{Date: date, Entry: entry}
	if entry == nil {
		return status, nil
	}

	entries, err := s.leaderboard.EntriesForDate(ctx, date)
	if err != nil {
		return nil, storageErr("read leaderboard entries", err)
	}
	if len(entries) > 3 {
		entries = entries[:3]
	}
	status.Top3 = entries
	return status, nil
}

// FriendStreaks reports which of the given friends are on an active streak.
// The friend set itself is supplied by the caller; the activity facts come
// from the ranking store's trailing window.
func (s *Service) FriendStreaks(ctx context.Context, friendIDs []string, today time.Time) ([]StreakInfo, error) {
	if len(friendIDs) == 0 {
		return nil, nil
	}

	today = Day(today)
	from := today.AddDate(0, 0, -s.cfg.StreakWindowDays)

	facts, err := s.leaderboard.ActiveDays(ctx, friendIDs, from)
	if err != nil {
		return nil, storageErr("read friend activity days", err)
	}

	return s.streaks.FriendStreaks(today, friendIDs, facts), nil
}
