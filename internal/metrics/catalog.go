// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_catalog_queries_total",
		Help: "Catalog queries by operation and result",
	}, []string{"op", "result"}) // result=ok|empty|not_found|error

	catalogQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidfolio_catalog_query_duration_seconds",
		Help:    "Catalog store query latency by backend and operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})

	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_catalog_cache_total",
		Help: "Catalog read cache lookups by outcome",
	}, []string{"key", "outcome"}) // outcome=hit|miss|error

	viewIncrements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfolio_view_increments_total",
		Help: "View-count increments by counter mode and result",
	}, []string{"mode", "result"}) // result=ok|error|dropped|published

	viewQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidfolio_view_queue_depth",
		Help: "Pending in-process view increments",
	})
)

// Query results.
const (
	ResultOK       = "ok"
	ResultEmpty    = "empty"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// RecordCatalogQuery counts a catalog service operation by result.
func RecordCatalogQuery(op, result string) {
	catalogQueries.WithLabelValues(op, result).Inc()
}

// ObserveStoreQuery records store latency for one backend call.
func ObserveStoreQuery(backend, op string, d time.Duration) {
	catalogQueryDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// RecordCacheLookup counts a read-cache lookup.
func RecordCacheLookup(key, outcome string) {
	catalogCache.WithLabelValues(key, outcome).Inc()
}

// RecordViewIncrement counts a view increment attempt.
func RecordViewIncrement(mode, result string) {
	viewIncrements.WithLabelValues(mode, result).Inc()
}

// SetViewQueueDepth publishes the in-process increment backlog.
func SetViewQueueDepth(n int) {
	viewQueueDepth.Set(float64(n))
}
