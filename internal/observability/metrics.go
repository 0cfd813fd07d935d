package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymrank",
		Subsystem: "persistence",
		Name:      "last_session_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent session summary persisted to Postgres.",
	})
	recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gymrank",
		Subsystem: "leaderboard",
		Name:      "recompute_duration_seconds",
		Help:      "Time spent reading session facts, ranking, and replacing leaderboard rows.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})
	recomputeEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymrank",
		Subsystem: "leaderboard",
		Name:      "last_recompute_entries",
		Help:      "Number of leaderboard entries written by the most recent recompute.",
	})
	lastRecomputeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymrank",
		Subsystem: "leaderboard",
		Name:      "last_recompute_timestamp_seconds",
		Help:      "Unix timestamp of the most recent leaderboard recompute.",
	})
)

func init() {
	prometheus.MustRegister(sessionPersistGauge, recomputeDuration, recomputeEntriesGauge, lastRecomputeGauge)
}

// RecordSessionPersisted updates the persistence watermark gauge.
func RecordSessionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	sessionPersistGauge.Set(float64(ts.Unix()))
}

// RecordLeaderboardRecompute records one completed leaderboard recompute.
func RecordLeaderboardRecompute(duration time.Duration, entries int) {
	recomputeDuration.Observe(duration.Seconds())
	recomputeEntriesGauge.Set(float64(entries))
	lastRecomputeGauge.SetToCurrentTime()
}
