// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	permitsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "move_permits",
		Subsystem: "permits",
		Name:      "created_total",
		Help:      "Permit drafts created, by permit type.",
	}, []string{"permit_type"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "move_permits",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Lifecycle commands broken down by command and result.",
	}, []string{"command", "result"})

	uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "move_permits",
		Subsystem: "documents",
		Name:      "uploads_total",
		Help:      "Document uploads broken down by result.",
	}, []string{"result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "move_permits",
		Subsystem: "notifier",
		Name:      "deliveries_total",
		Help:      "Status change notifications by channel and result.",
	}, []string{"channel", "result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "move_permits",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP requests.",
		Buckets: []float64{
			0.005, 0.01, 0.025, 0.05,
			0.1, 0.25, 0.5, 1,
			2.5, 5,
		},
	}, []string{"method", "route", "status"})
)

func RecordPermitCreated(permitType string) {
	permitsCreated.WithLabelValues(permitType).Inc()
}

// RecordTransition counts a lifecycle command; result is "ok" or an error class.
func RecordTransition(command, result string) {
	transitions.With(prometheus.Labels{
		"command": command,
		"result":  result,
	}).Inc()
}

func RecordUpload(result string) {
	uploads.WithLabelValues(result).Inc()
}

func RecordNotification(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notifications.WithLabelValues(channel, result).Inc()
}

func ObserveHTTPRequest(method, route, status string, latency time.Duration) {
	httpLatency.WithLabelValues(method, route, status).Observe(latency.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
