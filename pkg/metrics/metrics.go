// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks ops API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ops_request_duration_seconds",
			Help:    "Ops API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total ops API requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_requests_total",
			Help: "Total ops API requests",
		},
		[]string{"method", "path", "status"},
	)

	// TransportConnected reports whether the messaging transport is up.
	TransportConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transport_connected",
			Help: "1 when the messaging transport is connected, 0 otherwise",
		},
	)

	// TransportReconnectsTotal counts transport reconnections.
	TransportReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transport_reconnects_total",
			Help: "Total messaging transport reconnections",
		},
	)

	// MessagesReceivedTotal counts inbound messages by sender type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_received_total",
			Help: "Total messages received from the messaging transport",
		},
		[]string{"sender"},
	)

	// RepliesTotal counts operator replies by outcome.
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replies_total",
			Help: "Total operator replies by outcome",
		},
		[]string{"status"},
	)

	// UnreadMessages reports the directory-wide unread message count.
	UnreadMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unread_messages",
			Help: "Sum of unread counts across all chat sessions",
		},
	)

	// ActiveSessions reports the number of sessions in the directory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of chat sessions known to the directory",
		},
	)

	// HistoryFetchDuration tracks REST history fetch latency.
	HistoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "history_fetch_duration_seconds",
			Help:    "Message history fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	// NotificationsTotal counts desktop notifications by outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total desktop notifications attempted",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an ops API request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// SetConnected records transport connectivity.
func SetConnected(connected bool) {
	if connected {
		TransportConnected.Set(1)
		return
	}
	TransportConnected.Set(0)
}

// RecordDirectory records directory-wide gauges after a reconciliation pass.
func RecordDirectory(sessions, unread int) {
	ActiveSessions.Set(float64(sessions))
	UnreadMessages.Set(float64(unread))
}
