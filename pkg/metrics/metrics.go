// Package metrics declares the Prometheus collectors exported by mailrelay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mailrelay"

// Attempt statuses.
const (
	AttemptSuccess = "success"
	AttemptFailure = "failure"
)

// Delivery outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
	OutcomeTest   = "test"
)

var (
	EmailAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_attempts_total",
			Help:      "Total number of transport send attempts",
		},
		[]string{"status"},
	)

	EmailDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_deliveries_total",
			Help:      "Total number of delivery lineages by terminal outcome",
		},
		[]string{"outcome", "template"},
	)

	EmailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_send_duration_seconds",
			Help:      "Transport send latency distribution",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	LogStoreFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_log_failures_total",
			Help:      "Delivery log writes that failed and were swallowed",
		},
	)

	AdminAlertsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_alerts_dropped_total",
			Help:      "Delivery failure alerts dropped because the notifier queue was full",
		},
	)
)

// RecordAttempt counts one transport attempt and its latency.
func RecordAttempt(err error, took time.Duration) {
	status := AttemptSuccess
	if err != nil {
		status = AttemptFailure
	}
	EmailAttemptsTotal.WithLabelValues(status).Inc()
	EmailSendDuration.Observe(took.Seconds())
}

// RecordDelivery counts one finished lineage.
func RecordDelivery(outcome, template string) {
	EmailDeliveriesTotal.WithLabelValues(outcome, template).Inc()
}
