package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.FrameEvaluated(time.Millisecond)
	m.FrameEvaluated(time.Millisecond)
	m.OverlayStarted()
	m.OverlayPreempted()
	m.OverlayCompleted()
	m.PlayRejected()
	m.SetOverlayWeight(0.5)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"frames", m.framesEvaluated, 2},
		{"started", m.overlaysStarted, 1},
		{"preempted", m.overlaysPreempted, 1},
		{"completed", m.overlaysCompleted, 1},
		{"rejected", m.playsRejected, 1},
		{"weight", m.overlayWeight, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(m.evaluateDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg, "dup"); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg, "dup"); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.FrameEvaluated(time.Second)
	m.OverlayStarted()
	m.OverlayCompleted()
	m.OverlayPreempted()
	m.PlayRejected()
	m.SetOverlayWeight(1)
}
