package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymrank/internal/domain"
	"example.com/gymrank/internal/events"
	"example.com/gymrank/internal/observability"
)

// Repository provides Postgres-backed persistence for session summaries,
// leaderboard rows, and outbox events. It implements both
// domain.SessionRepository and domain.LeaderboardRepository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `session_id, user_id, date, COALESCE(total_calories, 0), COALESCE(avg_intensity, 0), COALESCE(total_exercises, 0), COALESCE(total_sets, 0), completed_at`

// FindByIdempotency checks if a session already exists for the supplied idempotency key.
func (r *Repository) FindByIdempotency(ctx context.Context, userID, idempotencyKey string) (*domain.SessionSummary, error) {
	if idempotencyKey == "" {
		return nil, nil
	}

	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE user_id=$1 AND idempotency_key=$2`

	row := r.pool.QueryRow(ctx, query, userID, idempotencyKey)
	var summary domain.SessionSummary
	if err := row.Scan(&summary.SessionID, &summary.UserID, &summary.Date, &summary.TotalCalories, &summary.AvgIntensity, &summary.TotalExercises, &summary.TotalSets, &summary.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// Create persists the session summary and records the completion outbox
// event inside a single transaction.
func (r *Repository) Create(ctx context.Context, summary domain.SessionSummary, idempotencyKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertSession = `INSERT INTO workout_sessions (session_id, user_id, date, total_calories, avg_intensity, total_exercises, total_sets, idempotency_key, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, insertSession,
		summary.SessionID,
		summary.UserID,
		summary.Date,
		summary.TotalCalories,
		summary.AvgIntensity,
		summary.TotalExercises,
		summary.TotalSets,
		nullIfEmpty(idempotencyKey),
		summary.CompletedAt,
	)
	if err != nil {
		return err
	}

	dedupeKey := fmt.Sprintf("%s:session.completed", summary.SessionID)
	if err = insertOutbox(ctx, tx, "session.completed", summary.SessionID, summary.UserID, dedupeKey, events.SessionCompleted{
		SessionID:      summary.SessionID,
		UserID:         summary.UserID,
		Date:           summary.Date.Format("2006-01-02"),
		TotalCalories:  summary.TotalCalories,
		AvgIntensity:   summary.AvgIntensity,
		TotalExercises: summary.TotalExercises,
		TotalSets:      summary.TotalSets,
		CompletedAt:    summary.CompletedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordSessionPersisted(summary.CompletedAt)
	return nil
}

// Get retrieves a session summary by ID.
func (r *Repository) Get(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE session_id=$1`

	row := r.pool.QueryRow(ctx, query, sessionID)
	var summary domain.SessionSummary
	if err := row.Scan(&summary.SessionID, &summary.UserID, &summary.Date, &summary.TotalCalories, &summary.AvgIntensity, &summary.TotalExercises, &summary.TotalSets, &summary.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// ListByUser returns session summaries for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.SessionSummary, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (completed_at, session_id) < ($3, $4)`
		args = append(args, cursor.CompletedAt, cursor.ID)
	}

	query += ` ORDER BY completed_at DESC, session_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.SessionSummary, 0, limit)
	for rows.Next() {
		var summary domain.SessionSummary
		if err := rows.Scan(&summary.SessionID, &summary.UserID, &summary.Date, &summary.TotalCalories, &summary.AvgIntensity, &summary.TotalExercises, &summary.TotalSets, &summary.CompletedAt); err != nil {
			return nil, nil, err
		}
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CompletedAt: last.CompletedAt, ID: last.SessionID}
	}

	return results, nextCursor, nil
}

// FactsForDate returns one ranking fact per completed session on the date.
func (r *Repository) FactsForDate(ctx context.Context, date time.Time) ([]domain.SessionFact, error) {
	const query = `SELECT user_id, COALESCE(avg_intensity, 0), COALESCE(total_calories, 0), COALESCE(total_exercises, 0)
        FROM workout_sessions WHERE date=$1`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []domain.SessionFact
	for rows.Next() {
		var fact domain.SessionFact
		if err := rows.Scan(&fact.UserID, &fact.Intensity, &fact.Calories, &fact.Exercises); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

// ReplaceForDate swaps out the date's leaderboard rows for the supplied
// entries and records the update outbox event, all in one transaction.
// Readers never observe a partially replaced leaderboard.
func (r *Repository) ReplaceForDate(ctx context.Context, date time.Time, entries []domain.LeaderboardEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM daily_leaderboard WHERE date=$1`, date); err != nil {
		return err
	}

	const insertEntry = `INSERT INTO daily_leaderboard (user_id, date, total_intensity, total_calories, total_exercises, workout_count, score, rank, medal)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	for _, entry := range entries {
		if _, err = tx.Exec(ctx, insertEntry,
			entry.UserID,
			entry.Date,
			entry.TotalIntensity,
			entry.TotalCalories,
			entry.TotalExercises,
			entry.WorkoutCount,
			entry.Score,
			entry.Rank,
			string(entry.Medal),
		); err != nil {
			return err
		}
	}

	day := date.Format("2006-01-02")
	eventEntries := make([]events.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		eventEntries = append(eventEntries, events.LeaderboardEntry{
			UserID:       entry.UserID,
			Rank:         entry.Rank,
			Score:        entry.Score,
			Medal:        string(entry.Medal),
			Calories:     entry.TotalCalories,
			WorkoutCount: entry.WorkoutCount,
		})
	}

	occurredAt := time.Now().UTC()
	// Every replacement emits a fresh event, so the dedupe key carries the
	// replacement time rather than just the date.
	dedupeKey := fmt.Sprintf("%s:leaderboard.updated:%d", day, occurredAt.UnixNano())
	if err = insertOutbox(ctx, tx, "leaderboard.updated", day, day, dedupeKey, events.LeaderboardUpdated{
		Date:       day,
		Entries:    eventEntries,
		OccurredAt: occurredAt,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const leaderboardColumns = `user_id, date, total_intensity, total_calories, total_exercises, workout_count, score, rank, medal`

// EntriesForDate returns the stored leaderboard for a date, best rank first.
func (r *Repository) EntriesForDate(ctx context.Context, date time.Time) ([]domain.LeaderboardEntry, error) {
	query := `SELECT ` + leaderboardColumns + ` FROM daily_leaderboard WHERE date=$1 ORDER BY rank ASC, user_id ASC`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// EntryForUser returns the user's leaderboard row for the date, nil when
// absent.
func (r *Repository) EntryForUser(ctx context.Context, userID string, date time.Time) (*domain.LeaderboardEntry, error) {
	query := `SELECT ` + leaderboardColumns + ` FROM daily_leaderboard WHERE user_id=$1 AND date=$2`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ActiveDays returns the days on which any of the users recorded at least
// one workout, newest day first.
func (r *Repository) ActiveDays(ctx context.Context, userIDs []string, from time.Time) ([]domain.DayActivity, error) {
	const query = `SELECT user_id, date, workout_count FROM daily_leaderboard
        WHERE user_id = ANY($1) AND date >= $2 AND workout_count > 0
        ORDER BY date DESC, user_id ASC`

	rows, err := r.pool.Query(ctx, query, userIDs, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.DayActivity
	for rows.Next() {
		var day domain.DayActivity
		if err := rows.Scan(&day.UserID, &day.Date, &day.WorkoutCount); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func scanEntry(row pgx.Row) (domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	var medal string
	err := row.Scan(&entry.UserID, &entry.Date, &entry.TotalIntensity, &entry.TotalCalories, &entry.TotalExercises, &entry.WorkoutCount, &entry.Score, &entry.Rank, &medal)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	entry.Medal = domain.Medal(medal)
	return entry, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID, partitionKey, dedupeKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		meta.AggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	AggregateType string
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"session.completed": {
		AggregateType: "session",
		Topic:         "session_events",
		SchemaSubject: "session_events-value",
	},
	"leaderboard.updated": {
		AggregateType: "leaderboard",
		Topic:         "leaderboard_events",
		SchemaSubject: "leaderboard_events-value",
	},
}
