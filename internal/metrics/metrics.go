package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts chat turns by how the intent was decided
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alfred_chat_requests_total",
			Help: "Total number of chat requests",
		},
		[]string{"mode"}, // mode: llm, fallback, unparsed
	)

	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alfred_actions_total",
			Help: "Total number of dispatched actions",
		},
		[]string{"type", "outcome"}, // outcome: success, failed, panic
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alfred_llm_latency_seconds",
			Help:    "Language model completion latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"provider", "status"},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alfred_external_call_duration_seconds",
			Help:    "Collaborator API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"service", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alfred_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method", "path", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordChatRequest counts one chat turn
func RecordChatRequest(mode string) {
	ChatRequests.WithLabelValues(mode).Inc()
}

// RecordAction counts one dispatched action
func RecordAction(actionType, outcome string) {
	ActionsTotal.WithLabelValues(actionType, outcome).Inc()
}

// RecordLLMLatency records one completion call
func RecordLLMLatency(provider string, err error, duration time.Duration) {
	LLMLatency.WithLabelValues(provider, status(err)).Observe(duration.Seconds())
}

// RecordExternalCall records one call to calendar, email or weather
func RecordExternalCall(service string, err error, duration time.Duration) {
	ExternalCallDuration.WithLabelValues(service, status(err)).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
}
