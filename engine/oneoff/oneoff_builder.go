package oneoff

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// OneOffBuilderOption is a functional option for configuring a OneOffAnimation during Initialize.
type OneOffBuilderOption func(*oneOffAnimation)

// WithFadeIn is an option builder that sets the fade-in window.
// Values outside (0, 1] make Initialize fail.
//
// Parameters:
//   - fraction: the fraction of the clip spent fading in
//
// Returns:
//   - OneOffBuilderOption: a function that applies the fade-in option
func WithFadeIn(fraction float32) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.fadeIn = fraction
	}
}

// WithFadeOut is an option builder that sets the fade-out window.
// Values outside (0, 1] make Initialize fail.
//
// Parameters:
//   - fraction: the fraction of the clip spent fading out
//
// Returns:
//   - OneOffBuilderOption: a function that applies the fade-out option
func WithFadeOut(fraction float32) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.fadeOut = fraction
	}
}

// WithName is an option builder that sets the component name. The graph is named "<name> - Graph".
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - OneOffBuilderOption: a function that applies the name option
func WithName(name string) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.name = name
	}
}

// WithSink is an option builder that sets the consumer of the final blended pose.
//
// Parameters:
//   - sink: the pose consumer
//
// Returns:
//   - OneOffBuilderOption: a function that applies the sink option
func WithSink(sink playable.PoseSink) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.sink = sink
	}
}

// WithWorkerPool is an option builder that lets the curve sampler split large property tables across a worker pool.
// The pool is borrowed and never stopped by the component.
//
// Parameters:
//   - pool: the worker pool
//   - batchSize: the number of properties sampled per task
//
// Returns:
//   - OneOffBuilderOption: a function that applies the worker pool option
func WithWorkerPool(pool worker.DynamicWorkerPool, batchSize int) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.pool = pool
		o.batchSize = batchSize
	}
}

// WithMetrics is an option builder that records evaluation metrics.
//
// Parameters:
//   - m: the metrics collectors
//
// Returns:
//   - OneOffBuilderOption: a function that applies the metrics option
func WithMetrics(m *metrics.Metrics) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.metrics = m
	}
}

// WithLogging is an option builder that logs overlay starts, preemptions and completions.
//
// Parameters:
//   - enabled: whether overlay events are logged
//
// Returns:
//   - OneOffBuilderOption: a function that applies the logging option
func WithLogging(enabled bool) OneOffBuilderOption {
	return func(o *oneOffAnimation) {
		o.logging = enabled
	}
}
