// Package metrics exposes Prometheus instrumentation for the match engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_swipes_total",
			Help: "Total number of recorded swipe actions",
		},
		[]string{"action"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_matches_total",
			Help: "Total number of mutual matches created",
		},
	)

	feedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_feed_requests_total",
			Help: "Total number of feed requests",
		},
		[]string{"fallback"},
	)

	likeLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_like_limit_rejections_total",
			Help: "Swipes rejected by the daily like limit",
		},
	)

	boostsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_boosts_total",
			Help: "Total number of profile boosts",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_compatibility_scores",
			Help:    "Distribution of computed compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

func RecordSwipe(action string) {
	swipesTotal.WithLabelValues(action).Inc()
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordFeedRequest(fallback bool) {
	feedRequestsTotal.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

func RecordLikeLimitRejection() {
	likeLimitRejections.Inc()
}

func RecordBoost() {
	boostsTotal.Inc()
}

func RecordCompatibilityScore(score int) {
	compatibilityScores.Observe(float64(score))
}
