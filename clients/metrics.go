package clients

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsync_client_requests_total",
			Help: "Backend requests issued by the client, by route template and status code.",
		},
		[]string{"method", "route", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedsync_client_request_duration_seconds",
			Help:    "Latency of backend requests issued by the client.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	registry.MustRegister(requestsTotal, requestDuration)
}

// Registry exposes the client's metrics, e.g. for promhttp.HandlerFor.
func Registry() *prometheus.Registry {
	return registry
}

// code is 0 when no response was received.
func observe(method string, route Route, code int, started time.Time) {
	label := "error"
	if code != 0 {
		label = strconv.Itoa(code)
	}
	requestsTotal.WithLabelValues(method, route.Template, label).Inc()
	requestDuration.WithLabelValues(method, route.Template).Observe(time.Since(started).Seconds())
}
