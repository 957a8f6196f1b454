package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms exposed on /metrics. Registration happens via
// promauto at package load.
var (
	ModelUploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bim_model_uploads_total",
		Help: "Number of model files accepted for upload.",
	})

	ModelUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bim_model_upload_bytes",
		Help:    "Size distribution of uploaded model files.",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8), // 64KiB .. 1GiB
	})

	IssuesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bim_issues_created_total",
		Help: "Number of issues created.",
	})

	InspectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bim_object_inspections_total",
		Help: "Number of object inspection requests served.",
	})

	CompressionJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bim_compression_jobs_total",
		Help: "Compression jobs processed by the worker, by result.",
	}, []string{"result"})

	CompressionRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bim_compression_ratio",
		Help:    "Compressed size divided by original size.",
		Buckets: prometheus.LinearBuckets(0.05, 0.05, 19),
	})
)
