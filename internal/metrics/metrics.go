// Package metrics exposes the jukebox's Prometheus instrumentation:
// queue depth, transcode outcomes, HTTP request counts, and index size,
// mirroring the teacher's package-level promauto.NewXVec convention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks the current preprocessed-artifact count.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopreel_queue_depth",
		Help: "Current number of preprocessed artifacts held in the queue",
	})

	// QueueTarget tracks the configured preprocessedQueueSize.
	QueueTarget = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopreel_queue_target",
		Help: "Configured target size of the preprocessed queue",
	})

	// IndexSize tracks the current number of indexed videos.
	IndexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loopreel_index_size",
		Help: "Current number of videos known to the index",
	})

	// TranscodeOutcomes counts transcode attempts by outcome.
	TranscodeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopreel_transcode_outcomes_total",
		Help: "Total transcode attempts by outcome",
	}, []string{"outcome"})

	// TranscodeDuration tracks wall-clock transcode time.
	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loopreel_transcode_duration_seconds",
		Help:    "Duration of transcode operations",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~256s
	})

	// HTTPRequestsTotal counts HTTP requests by route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopreel_http_requests_total",
		Help: "Total HTTP requests by route and status",
	}, []string{"route", "status"})

	// InitializationAttempts counts initialization attempts by outcome.
	InitializationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopreel_initialization_attempts_total",
		Help: "Total initialization attempts by outcome",
	}, []string{"outcome"})

	// IndexDeltaExceeded counts index-refresh deltas large enough to
	// trigger a queue/snapshot reset (spec §4.11).
	IndexDeltaExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loopreel_index_delta_exceeded_total",
		Help: "Total index-refresh deltas that exceeded the reset threshold",
	})
)
