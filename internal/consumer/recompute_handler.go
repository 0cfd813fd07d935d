package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/gymrank/internal/domain"
	"example.com/gymrank/internal/events"
)

type leaderboardRecomputer interface {
	RecomputeDailyLeaderboard(ctx context.Context, date time.Time) ([]domain.LeaderboardEntry, error)
}

// RecomputeHandler rebuilds a date's leaderboard whenever a session
// completes on that date. The rebuild is a full-date recompute, so
// redelivered or reordered messages converge on the same result.
type RecomputeHandler struct {
	service leaderboardRecomputer
}

// NewRecomputeHandler constructs a handler backed by the provided service.
func NewRecomputeHandler(service leaderboardRecomputer) Handler {
	return &RecomputeHandler{service: service}
}

// Handle projects session.completed events into the daily leaderboard.
func (h *RecomputeHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "session.completed" {
		return nil
	}

	var evt events.SessionCompleted
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("unmarshal session.completed: %w", err)
	}

	date, err := time.Parse("2006-01-02", evt.Date)
	if err != nil {
		return fmt.Errorf("parse session date %q: %w", evt.Date, err)
	}

	_, err = h.service.RecomputeDailyLeaderboard(ctx, date)
	return err
}
