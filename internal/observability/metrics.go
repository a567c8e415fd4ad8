package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of users with a live WebSocket connection",
		},
	)

	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Live events pushed to connections, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Direct messages persisted",
		},
	)

	MessagesReadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_read_total",
			Help: "Messages moved from unread to read",
		},
		[]string{"mode"},
	)

	KafkaRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_notification_records_total",
			Help: "Records consumed from Kafka, by topic and result",
		},
		[]string{"topic", "result"},
	)
)
