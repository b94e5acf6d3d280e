package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_jobs_enqueued_total",
		Help: "Total number of float jobs enqueued",
	})

	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_jobs_completed_total",
		Help: "Total number of float jobs that displayed a float value",
	})

	JobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_jobs_failed_total",
		Help: "Total number of float jobs whose fetch failed",
	})

	JobsStaleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_jobs_stale_total",
		Help: "Total number of float jobs dropped because the listing left the page",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_cache_hits_total",
		Help: "Total number of resolves answered from the float cache",
	})

	CatalogRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatcheck_catalog_requests_total",
		Help: "Total number of listing catalog requests posted to the page",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floatcheck_fetch_duration_seconds",
		Help:    "Time taken by backend inspection calls in seconds",
		Buckets: prometheus.DefBuckets,
	})

	PendingJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "floatcheck_pending_jobs",
		Help: "Current number of queued float jobs",
	})
)
