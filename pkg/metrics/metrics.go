// Package metrics 暴露 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	feedLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelfeed_feed_loads_total",
			Help: "Feed page loads by audience, kind (first/more) and outcome",
		},
		[]string{"audience", "kind", "outcome"},
	)

	feedLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelfeed_feed_load_duration_seconds",
			Help:    "Feed page load duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"audience"},
	)

	feedItemsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelfeed_feed_items_filtered_total",
			Help: "Feed items hidden because the actor is blocked",
		},
	)

	voteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelfeed_vote_toggles_total",
			Help: "Vote toggles by outcome (committed, rolled_back, rejected)",
		},
		[]string{"outcome"},
	)

	notifyDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelfeed_notify_decisions_total",
			Help: "Throttle decisions by kind and decision (allowed, suppressed)",
		},
		[]string{"kind", "decision"},
	)

	notifyDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelfeed_notify_delivered_total",
			Help: "Notifications handed to a sink, by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)

	notifyQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travelfeed_notify_queue_depth",
			Help: "Notifications waiting in the dispatcher queue",
		},
	)

	blockRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelfeed_block_cache_refreshes_total",
			Help: "Block cache refreshes by outcome",
		},
		[]string{"outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travelfeed_active_sessions",
			Help: "Viewer sessions currently held in memory",
		},
	)
)

// RecordFeedLoad records one feed page load
func RecordFeedLoad(audience, kind, outcome string, d time.Duration) {
	feedLoadsTotal.WithLabelValues(audience, kind, outcome).Inc()
	feedLoadDuration.WithLabelValues(audience).Observe(d.Seconds())
}

// RecordFeedFiltered records items removed by block filtering
func RecordFeedFiltered(n int) {
	if n > 0 {
		feedItemsFiltered.Add(float64(n))
	}
}

// RecordVoteToggle records a vote toggle outcome
func RecordVoteToggle(outcome string) {
	voteTogglesTotal.WithLabelValues(outcome).Inc()
}

// RecordNotifyDecision records a throttle decision
func RecordNotifyDecision(kind string, allowed bool) {
	decision := "suppressed"
	if allowed {
		decision = "allowed"
	}
	notifyDecisionsTotal.WithLabelValues(kind, decision).Inc()
}

// RecordNotifyDelivered records a sink delivery attempt
func RecordNotifyDelivered(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	notifyDeliveredTotal.WithLabelValues(sink, outcome).Inc()
}

// SetNotifyQueueDepth sets the dispatcher queue depth
func SetNotifyQueueDepth(n int) {
	notifyQueueDepth.Set(float64(n))
}

// RecordBlockRefresh records a block cache refresh
func RecordBlockRefresh(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	blockRefreshesTotal.WithLabelValues(outcome).Inc()
}

// SetActiveSessions sets the in-memory session count
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
