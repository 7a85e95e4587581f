// Package metrics exposes Prometheus instrumentation for media providers.
//
// Metrics are registered on the default registry through promauto and are
// prefixed with "gomedia_". Mount promhttp.Handler() to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider metrics
var (
	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_transforms_total",
			Help: "Total number of media transforms by provider and resulting status",
		},
		[]string{"provider", "status"},
	)

	MetadataFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_metadata_fetch_failures_total",
			Help: "Total number of remote metadata fetch failures by provider and kind",
		},
		[]string{"provider", "kind"}, // "retrieve", "decode"
	)
)

// CDN metrics
var (
	CDNFlushRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_cdn_flush_requests_total",
			Help: "Total number of CDN flush requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	CDNFlushPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_cdn_flush_polls_total",
			Help: "Total number of CDN flush status polls by outcome",
		},
		[]string{"provider", "outcome"}, // "ok", "error", "pending", "failed"
	)
)

// Thumbnail metrics
var (
	ThumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_thumbnails_generated_total",
			Help: "Total number of thumbnails generated by provider and status",
		},
		[]string{"provider", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gomedia_thumbnail_generation_duration_seconds",
			Help:    "Duration of a full thumbnail generation run in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	ThumbnailsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_thumbnails_deleted_total",
			Help: "Total number of thumbnails deleted by provider",
		},
		[]string{"provider"},
	)
)

// Sync metrics
var (
	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomedia_sync_records_total",
			Help: "Total number of media processed by batch syncers by job and status",
		},
		[]string{"job", "status"},
	)
)

// Status labels shared by the counters above.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
