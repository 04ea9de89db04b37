// Package metrics declares the Prometheus metrics exported by the daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Playback metrics
var (
	PlaybackAdvancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isaibox_playback_advances_total",
			Help: "Total number of advances to the next track",
		},
		[]string{"reason"}, // "ended", "stall", "next"
	)

	PlaybackFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isaibox_playback_failures_total",
			Help: "Total number of failed play requests",
		},
		[]string{"kind"}, // "blocked", "load", "unavailable", "other"
	)

	PlaybackStaleOutcomesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "isaibox_playback_stale_outcomes_total",
			Help: "Total number of superseded play outcomes that were ignored",
		},
	)

	PlaybackCurrentIndex = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "isaibox_playback_current_index",
			Help: "Index of the current track in the catalog",
		},
	)

	PlaybackPlaying = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "isaibox_playback_playing",
			Help: "Whether playback is expected to be running (1 = playing, 0 = paused)",
		},
	)
)

// RPC metrics
var (
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isaibox_rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"procedure", "code"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isaibox_rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)

	NotificationSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "isaibox_notification_subscribers",
			Help: "Number of active notification subscribers",
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
