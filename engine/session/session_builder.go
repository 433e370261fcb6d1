package session

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// SessionBuilderOption is a functional option for configuring a Session.
type SessionBuilderOption func(*session)

// WithSink routes every evaluated pose to sink.
// A sink that also accepts a sample buffer is handed the one-off component's buffer after initialization.
//
// Parameters:
//   - sink: the pose consumer
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithSink(sink playable.PoseSink) SessionBuilderOption {
	return func(s *session) {
		s.sink = sink
	}
}

// WithWorkerPool samples curves on pool, in batches of the configured batch size.
// The pool is owned by the caller.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) SessionBuilderOption {
	return func(s *session) {
		s.pool = pool
	}
}

// WithMetrics reports overlay activity to m.
func WithMetrics(m *metrics.Metrics) SessionBuilderOption {
	return func(s *session) {
		s.metrics = m
	}
}

// WithEventHandler registers the function called on overlay lifecycle transitions.
// The handler runs on the goroutine that called Tick or the Play method.
//
// Parameters:
//   - handler: function receiving the event and the clip it concerns
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithEventHandler(handler func(e Event, clipName string)) SessionBuilderOption {
	return func(s *session) {
		s.onEvent = handler
	}
}
