package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ consume latency in milliseconds.
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Agent call latency in milliseconds.
	AgentCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_call_latency_ms",
			Help:    "Agent service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"endpoint", "status"},
	)

	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Delivery attempts by channel and outcome.
	DeliveryAttemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempt_count",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"channel", "outcome"}, // outcome: sent, failed, deferred, undeliverable
	)

	// Reminders scheduled per scan.
	ReminderScheduledCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_scheduled_count",
			Help: "Total number of reminders scheduled",
		},
		[]string{"outcome"}, // outcome: scheduled, duplicate, skipped
	)

	// Agent action error classifications by severity.
	AgentErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_error_count",
			Help: "Total number of classified agent action errors",
		},
		[]string{"code", "severity"},
	)

	// Slow database queries.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries exceeding the slow query threshold",
		},
	)
)

// RecordMQConsumeLatency records MQ consumption latency.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordAgentCallLatency records agent service call latency.
func RecordAgentCallLatency(endpoint, status string, duration time.Duration) {
	AgentCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementDeliveryAttempt counts a delivery attempt outcome.
func IncrementDeliveryAttempt(channel, outcome string) {
	DeliveryAttemptCount.WithLabelValues(channel, outcome).Inc()
}

// IncrementReminderScheduled counts a reminder scheduling outcome.
func IncrementReminderScheduled(outcome string) {
	ReminderScheduledCount.WithLabelValues(outcome).Inc()
}

// IncrementAgentError counts a classified agent action error.
func IncrementAgentError(code, severity string) {
	AgentErrorCount.WithLabelValues(code, severity).Inc()
}

// IncrementSlowQuery counts a slow database query.
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
