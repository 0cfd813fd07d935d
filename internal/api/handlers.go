// Package api exposes HTTP handlers for the ranking service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/gymrank/internal/auth"
	"example.com/gymrank/internal/domain"
	"example.com/gymrank/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sessions", h.sessions)
	mux.HandleFunc("/v1/sessions/", h.sessionByID)
	mux.HandleFunc("/v1/leaderboard/daily", h.dailyLeaderboard)
	mux.HandleFunc("/v1/leaderboard/recompute", h.recomputeLeaderboard)
	mux.HandleFunc("/v1/leaderboard/medal", h.userMedal)
	mux.HandleFunc("/v1/streaks", h.friendStreaks)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.completeSession(w, r)
	case http.MethodGet:
		h.listSessions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) sessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeSessionsRead) && !claims.HasScope(auth.ScopeSessionsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope sessions:read required")
		return
	}

	summary, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSessionView(*summary))
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeSessionsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope sessions:write required")
		return
	}

	var req CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	exercises := make([]domain.ExerciseInput, 0, len(req.Exercises))
	for _, exercise := range req.Exercises {
		sets := make([]domain.SetRecord, 0, len(exercise.Sets))
		for _, set := range exercise.Sets {
			sets = append(sets, domain.SetRecord{
				Reps:         set.Reps,
				Weight:       set.Weight,
				IsBodyweight: set.IsBodyweight,
				ExtraWeight:  set.ExtraWeight,
			})
		}
		exercises = append(exercises, domain.ExerciseInput{
			Name:        exercise.Name,
			MuscleGroup: exercise.MuscleGroup,
			Sets:        sets,
		})
	}

	completed, replay, err := h.service.CompleteSession(r.Context(), domain.CompleteSessionInput{
		UserID:         claims.Subject,
		Date:           date,
		BodyWeightKg:   req.BodyWeightKg,
		Exercises:      exercises,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := CompleteSessionResponse{
		Session:   toSessionView(completed.Summary),
		Exercises: make([]ExerciseStatView, 0, len(completed.Exercises)),
		Replay:    replay,
	}
	for _, stat := range completed.Exercises {
		resp.Exercises = append(resp.Exercises, toExerciseStatView(stat))
	}

	status := http.StatusCreated
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeSessionsRead) && !claims.HasScope(auth.ScopeSessionsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope sessions:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = claims.Subject
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	summaries, next, err := h.service.ListSessions(r.Context(), userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]SessionView, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, toSessionView(summary))
	}

	writeJSON(w, http.StatusOK, ListSessionsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) dailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLeaderboardRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope leaderboard:read required")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	entries, err := h.service.DailyLeaderboard(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Date:    date.Format(dateLayout),
		Entries: toEntryViews(entries),
	})
}

func (h *Handler) recomputeLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLeaderboardWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope leaderboard:write required")
		return
	}

	var req RecomputeRequest
	if r.Body != nil {
		// An empty body means "today"; a malformed one is still rejected.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	}
	if req.Date == "" {
		req.Date = r.URL.Query().Get("date")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	entries, err := h.service.RecomputeDailyLeaderboard(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RecomputeResponse{
		Date:       date.Format(dateLayout),
		Count:      len(entries),
		NoSessions: len(entries) == 0,
		Entries:    toEntryViews(entries),
	})
}

func (h *Handler) userMedal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLeaderboardRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope leaderboard:read required")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	status, err := h.service.UserMedal(r.Context(), claims.Subject, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := MedalResponse{
		Date: status.Date.Format(dateLayout),
		Top3: toEntryViews(status.Top3),
	}
	if status.Entry != nil {
		view := toEntryView(*status.Entry)
		resp.Entry = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) friendStreaks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLeaderboardRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope leaderboard:read required")
		return
	}

	friendIDs := splitIDs(r.URL.Query().Get("friend_ids"))
	if len(friendIDs) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing friend_ids parameter")
		return
	}

	streaks, err := h.service.FriendStreaks(r.Context(), friendIDs, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]StreakView, 0, len(streaks))
	for _, streak := range streaks {
		items = append(items, StreakView{
			UserID:         streak.UserID,
			Streak:         streak.Streak,
			LastActiveDate: streak.LastActiveDate.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, StreaksResponse{Streaks: items})
}

const dateLayout = "2006-01-02"

// parseDate interprets an optional date query value, defaulting to today UTC.
func parseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Day(time.Now().UTC()), nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return parsed, nil
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SetPayload is one logged set inside a session payload.
type SetPayload struct {
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
	IsBodyweight bool    `json:"is_bodyweight"`
	ExtraWeight  float64 `json:"extra_weight"`
}

// SetList accepts either a JSON array of sets or a single set object.
// Older mobile clients send a bare object when an exercise has one set.
type SetList []SetPayload

// UnmarshalJSON implements the array-or-object decoding.
func (s *SetList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var many []SetPayload
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	var one SetPayload
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = SetList{one}
	return nil
}

// ExercisePayload is one exercise with its sets.
type ExercisePayload struct {
	Name        string  `json:"name"`
	MuscleGroup string  `json:"muscle_group"`
	Sets        SetList `json:"sets"`
}

// CompleteSessionRequest is the payload for POST /v1/sessions.
type CompleteSessionRequest struct {
	Date         string            `json:"date"`
	BodyWeightKg float64           `json:"body_weight_kg"`
	Exercises    []ExercisePayload `json:"exercises"`
}

// Validate ensures request correctness.
func (r CompleteSessionRequest) Validate() error {
	if len(r.Exercises) == 0 {
		return errors.New("exercises is required")
	}
	for i, exercise := range r.Exercises {
		if strings.TrimSpace(exercise.Name) == "" {
			return fmt.Errorf("exercises[%d].name is required", i)
		}
	}
	return nil
}

// SessionView exposes a stored session summary.
type SessionView struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Date           string    `json:"date"`
	TotalCalories  int       `json:"total_calories"`
	AvgIntensity   int       `json:"avg_intensity"`
	TotalExercises int       `json:"total_exercises"`
	TotalSets      int       `json:"total_sets"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ExerciseStatView exposes per-exercise derived statistics.
type ExerciseStatView struct {
	Name              string  `json:"name"`
	MuscleGroup       string  `json:"muscle_group,omitempty"`
	TotalSets         int     `json:"total_sets"`
	TotalReps         int     `json:"total_reps"`
	TotalWeight       float64 `json:"total_weight"`
	MaxWeight         float64 `json:"max_weight"`
	EstimatedCalories int     `json:"estimated_calories"`
	IntensityScore    int     `json:"intensity_score"`
}

// CompleteSessionResponse describes the response body for session completion.
type CompleteSessionResponse struct {
	Session   SessionView        `json:"session"`
	Exercises []ExerciseStatView `json:"exercises"`
	Replay    bool               `json:"idempotent_replay"`
}

// ListSessionsResponse packages list results.
type ListSessionsResponse struct {
	Items      []SessionView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// EntryView exposes one leaderboard row.
type EntryView struct {
	UserID         string  `json:"user_id"`
	Rank           int     `json:"rank"`
	Score          float64 `json:"score"`
	Medal          string  `json:"medal"`
	TotalIntensity int     `json:"total_intensity"`
	TotalCalories  int     `json:"total_calories"`
	TotalExercises int     `json:"total_exercises"`
	WorkoutCount   int     `json:"workout_count"`
}

// LeaderboardResponse is the body for leaderboard reads.
type LeaderboardResponse struct {
	Date    string      `json:"date"`
	Entries []EntryView `json:"entries"`
}

// RecomputeRequest optionally names the date to rebuild.
type RecomputeRequest struct {
	Date string `json:"date"`
}

// RecomputeResponse reports the outcome of a leaderboard rebuild.
// NoSessions marks a date with no completed sessions, where nothing
// was written and any prior leaderboard state was left untouched.
type RecomputeResponse struct {
	Date       string      `json:"date"`
	Count      int         `json:"count"`
	NoSessions bool        `json:"no_sessions,omitempty"`
	Entries    []EntryView `json:"entries"`
}

// MedalResponse reports the caller's standing and the podium for a date.
type MedalResponse struct {
	Date  string      `json:"date"`
	Entry *EntryView  `json:"entry,omitempty"`
	Top3  []EntryView `json:"top3"`
}

// StreakView reports one friend's active streak.
type StreakView struct {
	UserID         string `json:"user_id"`
	Streak         int    `json:"streak"`
	LastActiveDate string `json:"last_active_date"`
}

// StreaksResponse packages streak results.
type StreaksResponse struct {
	Streaks []StreakView `json:"streaks"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toSessionView(summary domain.SessionSummary) SessionView {
	return SessionView{
		SessionID:      summary.SessionID,
		UserID:         summary.UserID,
		Date:           summary.Date.Format(dateLayout),
		TotalCalories:  summary.TotalCalories,
		AvgIntensity:   summary.AvgIntensity,
		TotalExercises: summary.TotalExercises,
		TotalSets:      summary.TotalSets,
		CompletedAt:    summary.CompletedAt,
	}
}

func toExerciseStatView(stat domain.ExerciseStat) ExerciseStatView {
	return ExerciseStatView{
		Name:              stat.ExerciseName,
		MuscleGroup:       stat.MuscleGroup,
		TotalSets:         stat.TotalSets,
		TotalReps:         stat.TotalReps,
		TotalWeight:       stat.TotalWeight,
		MaxWeight:         stat.MaxWeight,
		EstimatedCalories: stat.EstimatedCalories,
		IntensityScore:    stat.IntensityScore,
	}
}

func toEntryView(entry domain.LeaderboardEntry) EntryView {
	return EntryView{
		UserID:         entry.UserID,
		Rank:           entry.Rank,
		Score:          entry.Score,
		Medal:          string(entry.Medal),
		TotalIntensity: entry.TotalIntensity,
		TotalCalories:  entry.TotalCalories,
		TotalExercises: entry.TotalExercises,
		WorkoutCount:   entry.WorkoutCount,
	}
}

func toEntryViews(entries []domain.LeaderboardEntry) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toEntryView(entry))
	}
	return views
}
