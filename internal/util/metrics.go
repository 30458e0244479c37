package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request durations
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SyncPassesTotal counts completed sync passes by result
	SyncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_passes_total",
			Help: "Total number of sync passes by result",
		},
		[]string{"result"},
	)

	// SyncOrdersFetchedTotal counts order records fetched from the marketplace
	SyncOrdersFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_orders_fetched_total",
			Help: "Total number of order records fetched during sync passes",
		},
	)

	// SyncOrdersCreatedTotal counts orders created by sync passes
	SyncOrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_orders_created_total",
			Help: "Total number of orders created during sync passes",
		},
	)

	// SyncOrdersUpdatedTotal counts orders overwritten by sync passes
	SyncOrdersUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_orders_updated_total",
			Help: "Total number of orders updated during sync passes",
		},
	)

	// NormalizeAnomaliesTotal counts monetary values that failed parsing
	NormalizeAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalize_anomalies_total",
			Help: "Total number of monetary values that could not be parsed",
		},
		[]string{"field"},
	)

	// SyncPassDuration tracks how long sync passes take
	SyncPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_pass_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)
