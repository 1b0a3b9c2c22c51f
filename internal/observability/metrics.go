package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "rides_created_total", Help: "Total ride offers created"})
	RidesDeleted    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "rides_deleted_total", Help: "Total ride offers deleted"})
	PositionUpdates = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "position_updates_total", Help: "Total accepted live-position updates"})
	FeedRequests    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "feed_requests_total", Help: "Total feed snapshots served"})

	PositionPublishFailures = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "position_publish_failures_total", Help: "Position reports that could not be published downstream"})

	ViewersConnected = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "carpool", Name: "ws_viewers", Help: "Currently connected WebSocket viewers"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
