package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymrank",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Number of outbox events successfully published to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymrank",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Number of outbox events that failed to publish and will be retried.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gymrank",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent fetching, delivering, and marking outbox batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, batchDuration)
}
