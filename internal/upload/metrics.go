package upload

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upload outcomes used as the "outcome" label
const (
	OutcomeReady    = "ready"
	OutcomeRejected = "rejected" // refused before the file was stored
	OutcomeFailed   = "failed"   // stored but could not be read or validated
)

// Metrics holds the Prometheus collectors for upload processing
type Metrics struct {
	uploads  *prometheus.CounterVec
	size     prometheus.Histogram
	duration *prometheus.HistogramVec
}

// NewMetrics creates the upload collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chillerdash_uploads_total",
				Help: "Uploaded files by processing outcome.",
			},
			[]string{"outcome", "extension"},
		),
		size: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chillerdash_upload_size_bytes",
				Help:    "Size of stored upload files.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chillerdash_upload_processing_seconds",
				Help:    "Time spent storing, reading and profiling an upload.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.uploads, m.size, m.duration)
	}
	return m
}

func (m *Metrics) observe(outcome, extension string, size int64, seconds float64) {
	if m == nil {
		return
	}
	if extension == "" {
		extension = "none"
	}
	m.uploads.WithLabelValues(outcome, extension).Inc()
	m.duration.WithLabelValues(outcome).Observe(seconds)
	if outcome != OutcomeRejected {
		m.size.Observe(float64(size))
	}
}
