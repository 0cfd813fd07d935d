package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/gymrank/internal/auth"
	"example.com/gymrank/internal/domain"
)

func testClaims(scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	return &auth.Claims{
		Subject:   "user-1",
		Scopes:    set,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newTestHandler(sessions *mockSessionRepo, leaderboard *mockLeaderboardRepo) *Handler {
	if sessions == nil {
		sessions = &mockSessionRepo{}
	}
	if leaderboard == nil {
		leaderboard = &mockLeaderboardRepo{}
	}
	return NewHandler(domain.NewService(sessions, leaderboard, domain.DefaultConfig()))
}

func TestCompleteSessionSuccess(t *testing.T) {
	sessions := &mockSessionRepo{}
	handler := newTestHandler(sessions, nil)

	body := `{
		"date": "2026-08-30",
		"exercises": [
			{"name": "Bench Press", "muscle_group": "chest", "sets": [
				{"reps": 10, "weight": 60},
				{"reps": 10, "weight": 60},
				{"reps": 10, "weight": 60}
			]}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsWrite)))

	rr := httptest.NewRecorder()
	handler.completeSession(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CompleteSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Session.UserID != "user-1" {
		t.Fatalf("expected user-1 got %s", resp.Session.UserID)
	}
	if resp.Session.Date != "2026-08-30" {
		t.Fatalf("unexpected date %s", resp.Session.Date)
	}
	if resp.Session.TotalCalories != 45 {
		t.Fatalf("expected 45 calories got %d", resp.Session.TotalCalories)
	}
	if resp.Session.AvgIntensity != 70 {
		t.Fatalf("expected intensity 70 got %d", resp.Session.AvgIntensity)
	}
	if len(resp.Exercises) != 1 || resp.Exercises[0].TotalReps != 30 {
		t.Fatalf("unexpected exercise stats: %+v", resp.Exercises)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one created session, got %d", len(sessions.created))
	}
}

func TestCompleteSessionAcceptsSingleSetObject(t *testing.T) {
	handler := newTestHandler(nil, nil)

	body := `{
		"exercises": [
			{"name": "Pull Up", "sets": {"reps": 8, "is_bodyweight": true}}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsWrite)))

	rr := httptest.NewRecorder()
	handler.completeSession(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CompleteSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Exercises[0].TotalSets != 1 || resp.Exercises[0].TotalReps != 8 {
		t.Fatalf("unexpected stats for single-set object: %+v", resp.Exercises[0])
	}
}

func TestCompleteSessionIdempotentReplay(t *testing.T) {
	existing := &domain.SessionSummary{
		SessionID: "sess-1",
		UserID:    "user-1",
		Date:      time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC),
	}
	sessions := &mockSessionRepo{existing: existing}
	handler := newTestHandler(sessions, nil)

	body := `{"exercises": [{"name": "Squat", "sets": [{"reps": 5, "weight": 100}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsWrite)))

	rr := httptest.NewRecorder()
	handler.completeSession(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp CompleteSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Replay {
		t.Fatal("expected idempotent_replay true")
	}
	if resp.Session.SessionID != "sess-1" {
		t.Fatalf("expected replayed session id, got %s", resp.Session.SessionID)
	}
}

func TestCompleteSessionRequiresScope(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{}`))
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsRead)))

	rr := httptest.NewRecorder()
	handler.completeSession(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestCompleteSessionRejectsEmptyExercises(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"exercises": []}`))
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsWrite)))

	rr := httptest.NewRecorder()
	handler.completeSession(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestSessionByIDNotFound(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeSessionsRead)))

	rr := httptest.NewRecorder()
	handler.sessionByID(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestDailyLeaderboardReturnsEntries(t *testing.T) {
	date := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	leaderboard := &mockLeaderboardRepo{
		entries: []domain.LeaderboardEntry{
			{UserID: "user-2", Date: date, Rank: 1, Score: 91.5, Medal: domain.MedalGold, WorkoutCount: 2},
			{UserID: "user-1", Date: date, Rank: 2, Score: 80.25, Medal: domain.MedalSilver, WorkoutCount: 1},
		},
	}
	handler := newTestHandler(nil, leaderboard)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard/daily?date=2026-08-30", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.dailyLeaderboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp LeaderboardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Date != "2026-08-30" {
		t.Fatalf("unexpected date %s", resp.Date)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Medal != "gold" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestDailyLeaderboardRejectsBadDate(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard/daily?date=30-08-2026", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.dailyLeaderboard(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestRecomputeLeaderboardRequiresWriteScope(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/leaderboard/recompute?date=2026-08-30", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.recomputeLeaderboard(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestRecomputeLeaderboardRanksSessions(t *testing.T) {
	sessions := &mockSessionRepo{
		facts: []domain.SessionFact{
			{UserID: "user-1", Intensity: 70, Calories: 400, Exercises: 5},
			{UserID: "user-2", Intensity: 90, Calories: 600, Exercises: 6},
		},
	}
	leaderboard := &mockLeaderboardRepo{}
	handler := newTestHandler(sessions, leaderboard)

	req := httptest.NewRequest(http.MethodPost, "/v1/leaderboard/recompute", strings.NewReader(`{"date": "2026-08-30"}`))
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardWrite)))

	rr := httptest.NewRecorder()
	handler.recomputeLeaderboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RecomputeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Date != "2026-08-30" {
		t.Fatalf("unexpected date %s", resp.Date)
	}
	if resp.Count != 2 || len(resp.Entries) != 2 {
		t.Fatalf("expected 2 entries got count=%d len=%d", resp.Count, len(resp.Entries))
	}
	if resp.NoSessions {
		t.Fatal("unexpected no_sessions marker")
	}
	if resp.Entries[0].UserID != "user-2" || resp.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", resp.Entries[0])
	}
	if len(leaderboard.replaced) != 1 {
		t.Fatalf("expected one replacement, got %d", len(leaderboard.replaced))
	}
}

func TestRecomputeLeaderboardNoSessions(t *testing.T) {
	leaderboard := &mockLeaderboardRepo{}
	handler := newTestHandler(&mockSessionRepo{}, leaderboard)

	req := httptest.NewRequest(http.MethodPost, "/v1/leaderboard/recompute?date=2026-08-30", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardWrite)))

	rr := httptest.NewRecorder()
	handler.recomputeLeaderboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RecomputeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.NoSessions || resp.Count != 0 {
		t.Fatalf("expected no_sessions marker, got %+v", resp)
	}
	if len(leaderboard.replaced) != 0 {
		t.Fatalf("expected no writes, got %d", len(leaderboard.replaced))
	}
}

func TestUserMedalWithoutEntry(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard/medal?date=2026-08-30", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.userMedal(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp MedalResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Entry != nil {
		t.Fatalf("expected no entry, got %+v", resp.Entry)
	}
	if len(resp.Top3) != 0 {
		t.Fatalf("expected empty top3, got %+v", resp.Top3)
	}
}

func TestFriendStreaksRequiresFriendIDs(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/streaks", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.friendStreaks(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestFriendStreaksReportsActiveRuns(t *testing.T) {
	today := domain.Day(time.Now().UTC())
	var activeDays []domain.DayActivity
	for offset := 0; offset < 4; offset++ {
		activeDays = append(activeDays, domain.DayActivity{
			UserID:       "friend-1",
			Date:         today.AddDate(0, 0, -offset),
			WorkoutCount: 1,
		})
	}
	leaderboard := &mockLeaderboardRepo{activeDays: activeDays}
	handler := newTestHandler(nil, leaderboard)

	req := httptest.NewRequest(http.MethodGet, "/v1/streaks?friend_ids=friend-1,friend-2", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), testClaims(auth.ScopeLeaderboardRead)))

	rr := httptest.NewRecorder()
	handler.friendStreaks(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp StreaksResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Streaks) != 1 {
		t.Fatalf("expected one streak got %d", len(resp.Streaks))
	}
	if resp.Streaks[0].UserID != "friend-1" || resp.Streaks[0].Streak != 4 {
		t.Fatalf("unexpected streak: %+v", resp.Streaks[0])
	}
}

type mockSessionRepo struct {
	existing *domain.SessionSummary
	created  []domain.SessionSummary
	facts    []domain.SessionFact
	sessions []domain.SessionSummary
}

func (m *mockSessionRepo) FindByIdempotency(ctx context.Context, userID, idempotencyKey string) (*domain.SessionSummary, error) {
	if idempotencyKey == "" {
		return nil, nil
	}
	return m.existing, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, summary domain.SessionSummary, idempotencyKey string) error {
	m.created = append(m.created, summary)
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	return m.existing, nil
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.SessionSummary, *domain.Cursor, error) {
	return m.sessions, nil, nil
}

func (m *mockSessionRepo) FactsForDate(ctx context.Context, date time.Time) ([]domain.SessionFact, error) {
	return m.facts, nil
}

type mockLeaderboardRepo struct {
	replaced   map[string][]domain.LeaderboardEntry
	entries    []domain.LeaderboardEntry
	userEntry  *domain.LeaderboardEntry
	activeDays []domain.DayActivity
}

func (m *mockLeaderboardRepo) ReplaceForDate(ctx context.Context, date time.Time, entries []domain.LeaderboardEntry) error {
	if m.replaced == nil {
		m.replaced = make(map[string][]domain.LeaderboardEntry)
	}
	m.replaced[date.Format("2006-01-02")] = entries
	return nil
}

func (m *mockLeaderboardRepo) EntriesForDate(ctx context.Context, date time.Time) ([]domain.LeaderboardEntry, error) {
	return m.entries, nil
}

func (m *mockLeaderboardRepo) EntryForUser(ctx context.Context, userID string, date time.Time) (*domain.LeaderboardEntry, error) {
	return m.userEntry, nil
}

func (m *mockLeaderboardRepo) ActiveDays(ctx context.Context, userIDs []string, from time.Time) ([]domain.DayActivity, error) {
	return m.activeDays, nil
}
