package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipechat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipechat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipechat_ws_active_connections",
			Help: "Currently registered chat connections",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipechat_ws_connections_rejected_total",
			Help: "Chat connections refused before registration",
		},
		[]string{"reason"},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipechat_messages_persisted_total",
			Help: "Chat messages stored",
		},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipechat_messages_rejected_total",
			Help: "Inbound chat messages dropped",
		},
		[]string{"reason"},
	)

	MessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipechat_messages_delivered_total",
			Help: "Successful per-peer broadcast sends",
		},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipechat_delivery_failures_total",
			Help: "Peers evicted after a failed broadcast send",
		},
	)
)
