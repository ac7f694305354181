package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks API requests by endpoint and response status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightgate_requests_total",
		Help: "Total number of API requests processed",
	}, []string{"endpoint", "status"})

	// RequestDuration tracks handler processing time.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freightgate_request_duration_seconds",
		Help:    "Histogram of request processing duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// RateLimitedTotal tracks requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgate_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// CarrierRequestsTotal tracks calls to the carrier API by operation and outcome.
	CarrierRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightgate_carrier_requests_total",
		Help: "Total number of carrier API calls",
	}, []string{"operation", "result"})

	// CarrierTokenRefreshes tracks OAuth2 token acquisitions against the carrier identity server.
	CarrierTokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgate_carrier_token_refreshes_total",
		Help: "Total number of OAuth2 token refreshes",
	})

	// DBConnectionsActive tracks open database connections.
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freightgate_db_connections_active",
		Help: "Number of active database connections",
	})
)
