// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
)

var (
	// Host Command Metrics
	HostCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pedalbridge_host_command_duration_seconds",
			Help:    "Duration of transient command round trips to the audio host",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"command"},
	)

	HostCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pedalbridge_host_commands_total",
			Help: "Total host commands by outcome",
		},
		[]string{"command", "result"}, // result: "ok", "rejected", "unavailable", "protocol_error"
	)

	HostCommandConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_host_command_connected",
			Help: "1 if the last command round trip reached the audio host",
		},
	)

	// Request Metrics (bus command endpoint)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pedalbridge_requests_total",
			Help: "Total command endpoint requests",
		},
		[]string{"action", "method", "kind"}, // kind: "" for success, bridgeerr kind otherwise
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pedalbridge_request_duration_seconds",
			Help:    "Time to handle one command endpoint request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// Feedback Metrics
	FeedbackEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pedalbridge_feedback_events_total",
			Help: "Total feedback events published by type",
		},
		[]string{"type"},
	)

	FeedbackPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pedalbridge_feedback_publish_errors_total",
			Help: "Feedback events that could not be published",
		},
	)

	FeedbackConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_feedback_connected",
			Help: "1 while the feedback stream is connected",
		},
	)

	FeedbackReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pedalbridge_feedback_reconnects_total",
			Help: "Feedback connection attempts after the first",
		},
	)

	// Plugin Metrics
	PluginInstances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_plugin_instances",
			Help: "Number of live plugin instances",
		},
	)

	CatalogPlugins = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_catalog_plugins",
			Help: "Number of plugins in the loaded catalog",
		},
	)

	// Audio Metrics (from host feedback)
	AudioCPULoad = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_audio_cpu_load_percent",
			Help: "Most recent DSP load reported by the host",
		},
	)

	AudioXruns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_audio_xruns",
			Help: "Xruns since the last reset",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ops HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pedalbridge_ops_requests_total",
			Help: "Total ops HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pedalbridge_ops_request_duration_seconds",
			Help:    "Ops HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_ops_active_requests",
			Help: "Ops HTTP requests in flight",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pedalbridge_ws_connections",
			Help: "Connected feedback tap clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pedalbridge_ws_messages_dropped_total",
			Help: "Feedback tap messages dropped for slow clients",
		},
	)
)

// RecordHostCommand records one host round trip. err is the error returned by
// the host link (nil on "resp 0").
func RecordHostCommand(command string, duration time.Duration, err error) {
	HostCommandDuration.WithLabelValues(command).Observe(duration.Seconds())

	result := "ok"
	switch bridgeerr.Kind(err) {
	case "":
	case bridgeerr.KindHostError:
		result = "rejected"
	case bridgeerr.KindUpstreamUnavailable:
		result = "unavailable"
	default:
		result = "protocol_error"
	}
	HostCommandsTotal.WithLabelValues(command, result).Inc()
}

// SetHostCommandConnected mirrors the command_connected health flag.
func SetHostCommandConnected(connected bool) {
	HostCommandConnected.Set(boolToFloat(connected))
}

// RecordRequest records one command endpoint request.
func RecordRequest(action, method string, duration time.Duration, err error) {
	RequestsTotal.WithLabelValues(action, method, bridgeerr.Kind(err)).Inc()
	RequestDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordFeedbackEvent counts a published feedback event.
func RecordFeedbackEvent(eventType string) {
	FeedbackEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordFeedbackPublishError counts a failed feedback publish.
func RecordFeedbackPublishError() {
	FeedbackPublishErrors.Inc()
}

// SetFeedbackConnected mirrors the feedback_connected health flag.
func SetFeedbackConnected(connected bool) {
	FeedbackConnected.Set(boolToFloat(connected))
}

// RecordFeedbackReconnect counts a reconnect attempt.
func RecordFeedbackReconnect() {
	FeedbackReconnects.Inc()
}

// SetPluginInstances sets the live instance gauge.
func SetPluginInstances(n int) {
	PluginInstances.Set(float64(n))
}

// SetCatalogPlugins sets the catalog size gauge.
func SetCatalogPlugins(n int) {
	CatalogPlugins.Set(float64(n))
}

// RecordAudioStats updates the host-reported audio gauges.
func RecordAudioStats(cpuLoad float64, xruns int) {
	AudioCPULoad.Set(cpuLoad)
	AudioXruns.Set(float64(xruns))
}

// RecordAPIRequest records an ops HTTP request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active ops HTTP requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
