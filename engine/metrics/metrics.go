package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "oxy_overlay"

// Metrics holds the Prometheus collectors for one-off overlay evaluation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	framesEvaluated   prometheus.Counter
	overlaysStarted   prometheus.Counter
	overlaysCompleted prometheus.Counter
	overlaysPreempted prometheus.Counter
	playsRejected     prometheus.Counter
	evaluateDuration  prometheus.Histogram
	overlayWeight     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
//
// Parameters:
//   - reg: the registerer receiving the collectors
//   - namespace: the metric namespace; DefaultNamespace when empty
//
// Returns:
//   - *Metrics: the registered collectors
//   - error: an error if any collector could not be registered
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		framesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_evaluated_total",
			Help:      "Number of evaluation frames run by the one-off animation graph.",
		}),
		overlaysStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlays_started_total",
			Help:      "Number of one-off clips started.",
		}),
		overlaysCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlays_completed_total",
			Help:      "Number of one-off clips that played to the end.",
		}),
		overlaysPreempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlays_preempted_total",
			Help:      "Number of one-off clips replaced by a new clip before finishing.",
		}),
		playsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_rejected_total",
			Help:      "Number of play requests rejected for an invalid clip.",
		}),
		evaluateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluate_duration_seconds",
			Help:      "Wall time spent evaluating one frame of the graph.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		overlayWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlay_weight",
			Help:      "Current mixer weight of the one-off overlay, 0 when idle.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.framesEvaluated,
		m.overlaysStarted,
		m.overlaysCompleted,
		m.overlaysPreempted,
		m.playsRejected,
		m.evaluateDuration,
		m.overlayWeight,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

// FrameEvaluated records one evaluated frame and how long it took.
func (m *Metrics) FrameEvaluated(d time.Duration) {
	if m == nil {
		return
	}
	m.framesEvaluated.Inc()
	m.evaluateDuration.Observe(d.Seconds())
}

// OverlayStarted records a clip entering the blend.
func (m *Metrics) OverlayStarted() {
	if m == nil {
		return
	}
	m.overlaysStarted.Inc()
}

// OverlayCompleted records a clip finishing and leaving the blend.
func (m *Metrics) OverlayCompleted() {
	if m == nil {
		return
	}
	m.overlaysCompleted.Inc()
}

// OverlayPreempted records a clip cut short by a newer one.
func (m *Metrics) OverlayPreempted() {
	if m == nil {
		return
	}
	m.overlaysPreempted.Inc()
}

// PlayRejected records a rejected play request.
func (m *Metrics) PlayRejected() {
	if m == nil {
		return
	}
	m.playsRejected.Inc()
}

// SetOverlayWeight publishes the current overlay weight.
func (m *Metrics) SetOverlayWeight(w float32) {
	if m == nil {
		return
	}
	m.overlayWeight.Set(float64(w))
}
