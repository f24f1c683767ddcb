package harvest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors for a harvest run. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      *prometheus.CounterVec
	ImagesTotal     *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	BytesTotal      prometheus.Counter
	RequestDuration prometheus.Histogram
}

// NewMetrics registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_pages_total",
			Help: "Listing pages requested, by result.",
		},
		[]string{"result"},
	)
	images := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_images_total",
			Help: "Portrait candidates handled, by outcome.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_errors_total",
			Help: "Fetch and write errors, by type.",
		},
		[]string{"error_type"},
	)
	bytesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_bytes_total",
			Help: "Image bytes written to disk.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvest_request_duration_seconds",
			Help:    "Time to first byte of harvest requests.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pages, images, errorsTotal, bytesTotal, duration)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		ImagesTotal:     images,
		ErrorsTotal:     errorsTotal,
		BytesTotal:      bytesTotal,
		RequestDuration: duration,
	}
}

func (m *Metrics) IncPage(result string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncOutcome(o Outcome) {
	if m == nil {
		return
	}
	m.ImagesTotal.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) AddBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesTotal.Add(float64(n))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}
