package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clientsapi_request_duration_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	FilesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientsapi_files_ingested_total",
		Help: "Files extracted from uploaded archives and stored",
	})

	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientsapi_ingest_failures_total",
		Help: "Archive ingestions that were rejected or failed",
	}, []string{"reason"})

	LogPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientsapi_log_persist_failures_total",
		Help: "API log records that could not be written to the database",
	})
)
