// Package metrics holds the Prometheus collectors of the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzatrack_polls_total",
		Help: "Total number of telemetry polls by result",
	}, []string{"result"})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzatrack_messages_total",
		Help: "Total number of dispatched telemetry messages by kind",
	}, []string{"kind"})

	promotionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzatrack_promotions_total",
		Help: "Total number of granted free-pizza promotions by reason",
	}, []string{"reason"})

	sessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizzatrack_sessions_total",
		Help: "Total number of started order sessions",
	})

	trailPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pizzatrack_trail_points",
		Help: "Number of trail points currently drawn",
	})
)

// Poll results.
const (
	PollOK          = "ok"
	PollFailed      = "failed"
	PollRateLimited = "rate_limited"
	PollSkipped     = "skipped"
)

func RecordPoll(result string) {
	switch result {
	case PollOK, PollFailed, PollRateLimited, PollSkipped:
	default:
		result = "unknown"
	}
	pollsTotal.WithLabelValues(result).Inc()
}

func RecordMessage(kind string) {
	messagesTotal.WithLabelValues(kind).Inc()
}

func RecordPromotion(reason string) {
	promotionsTotal.WithLabelValues(reason).Inc()
}

func RecordSession() {
	sessionsTotal.Inc()
}

func SetTrailPoints(n int) {
	trailPoints.Set(float64(n))
}
