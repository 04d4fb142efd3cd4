package exifai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts processed images and provider attempts.
type Metrics struct {
	Images   *prometheus.CounterVec
	Attempts *prometheus.CounterVec
	Outcomes *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers exifai metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Images: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exifai_images_total",
			Help: "Images processed, by result.",
		}, []string{"result"}),
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exifai_provider_attempts_total",
			Help: "Provider calls, by task.",
		}, []string{"task"}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exifai_task_outcomes_total",
			Help: "Final attempt loop states, by task and state.",
		}, []string{"task", "state"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "exifai_image_duration_seconds",
			Help:    "Time spent processing one image.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
}

func (m *Metrics) image(result string) {
	if m != nil {
		m.Images.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observer(t Task) func(State, int) {
	if m == nil {
		return nil
	}
	return func(s State, attempts int) {
		m.Attempts.WithLabelValues(string(t)).Add(float64(attempts))
		m.Outcomes.WithLabelValues(string(t), s.String()).Inc()
	}
}
