// Package metrics exposes the pipeline's per-frame timing as Prometheus
// instrumentation — the structured counterpart to the reference
// implementation's "store per-frame runtime in a list" timing log.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects per-frame cipher timing for both schemes and total
// pipeline throughput, registered against a caller-owned registry so
// multiple pipeline runs in the same process don't collide on the
// default global registry.
type Recorder struct {
	frameDuration  *prometheus.HistogramVec
	framesTotal    *prometheus.CounterVec
	pipelineErrors *prometheus.CounterVec
}

// NewRecorder registers its metrics against reg and returns a Recorder.
// Pass prometheus.NewRegistry() for test isolation, or a shared registry
// in a long-lived process.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		frameDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "videocrypt",
			Subsystem: "pipeline",
			Name:      "frame_duration_seconds",
			Help:      "Per-frame cipher duration, labelled by scheme and direction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scheme", "direction"}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videocrypt",
			Subsystem: "pipeline",
			Name:      "frames_total",
			Help:      "Frames processed, labelled by scheme and direction.",
		}, []string{"scheme", "direction"}),
		pipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videocrypt",
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Pipeline runs that ended in a failure state, labelled by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(r.frameDuration, r.framesTotal, r.pipelineErrors)
	return r
}

// ObserveFrame records how long one frame's cipher operation took.
func (r *Recorder) ObserveFrame(scheme, direction string, d time.Duration) {
	r.frameDuration.WithLabelValues(scheme, direction).Observe(d.Seconds())
	r.framesTotal.WithLabelValues(scheme, direction).Inc()
}

// ObserveError records a pipeline failure at the given stage (e.g.
// "open-source", "cipher", "seal-key").
func (r *Recorder) ObserveError(stage string) {
	r.pipelineErrors.WithLabelValues(stage).Inc()
}

// Timer starts a stopwatch for one frame; call the returned function
// once the frame is done to record its duration.
func (r *Recorder) Timer(scheme, direction string) func() {
	start := time.Now()
	return func() {
		r.ObserveFrame(scheme, direction, time.Since(start))
	}
}
