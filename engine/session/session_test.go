package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/config"
	"github.com/Carmen-Shannon/oxy-overlay/engine/curve"
	"github.com/Carmen-Shannon/oxy-overlay/engine/oneoff"
)

type recordingSink struct {
	poses   int
	samples *curve.SampleBuffer
}

func (r *recordingSink) WritePose(*animation.Pose) { r.poses++ }

func (r *recordingSink) SetSampleBuffer(b *curve.SampleBuffer) { r.samples = b }

type recordedEvent struct {
	event Event
	clip  string
}

func newTestSession(t *testing.T, options ...SessionBuilderOption) (Session, *[]recordedEvent) {
	t.Helper()
	lib, err := config.LoadLibrary("")
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	var events []recordedEvent
	options = append(options, WithEventHandler(func(e Event, clip string) {
		events = append(events, recordedEvent{e, clip})
	}))
	s, err := New(config.DefaultConfig(), lib, options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, &events
}

func TestNewRequiresLibrary(t *testing.T) {
	if _, err := New(config.DefaultConfig(), nil); !errors.Is(err, ErrNoLibrary) {
		t.Errorf("New(nil library) error = %v, want ErrNoLibrary", err)
	}
}

func TestNewRejectsUnknownCurve(t *testing.T) {
	lib, err := config.LoadLibrary("")
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Curves = []string{"Missing"}
	if _, err := New(cfg, lib); !errors.Is(err, oneoff.ErrInitialization) {
		t.Errorf("New error = %v, want ErrInitialization", err)
	}
}

func TestInitialSnapshot(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestSession(t, WithSink(sink))

	snap := s.Snapshot()
	if snap.Name != "OneOff" {
		t.Errorf("Name = %q, want OneOff", snap.Name)
	}
	if snap.State != oneoff.Idle || snap.HasOverlay {
		t.Errorf("State = %s, HasOverlay = %v, want Idle without overlay", snap.State, snap.HasOverlay)
	}
	if snap.Weights.Base != 1 || snap.Weights.Overlay != 0 {
		t.Errorf("Weights = %+v, want base 1", snap.Weights)
	}
	if snap.BaseState != "Idle" {
		t.Errorf("BaseState = %q, want Idle", snap.BaseState)
	}
	wantOverlays := []string{"Wave", "Jump", "Pickup"}
	if len(snap.Overlays) != len(wantOverlays) {
		t.Fatalf("Overlays = %v, want %v", snap.Overlays, wantOverlays)
	}
	for i, name := range wantOverlays {
		if snap.Overlays[i] != name {
			t.Errorf("Overlays[%d] = %q, want %q", i, snap.Overlays[i], name)
		}
	}
	if len(snap.Properties) != 2 || len(snap.Values) != 2 {
		t.Errorf("Properties = %v, Values = %v, want two entries each", snap.Properties, snap.Values)
	}
	if sink.samples != s.OneOff().SampleBuffer() {
		t.Error("sink should be handed the one-off sample buffer")
	}
}

func TestTickWritesPose(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestSession(t, WithSink(sink))

	for i := 0; i < 3; i++ {
		if err := s.Tick(1.0 / 60); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if sink.poses != 3 {
		t.Errorf("sink received %d poses, want 3", sink.poses)
	}
	if s.Snapshot().Frame != 3 {
		t.Errorf("Frame = %d, want 3", s.Snapshot().Frame)
	}
}

func TestOverlayLifecycleEvents(t *testing.T) {
	s, events := newTestSession(t)

	if handled, err := s.HandleKey(common.Key1); !handled || err != nil {
		t.Fatalf("HandleKey(1) = (%v, %v), want handled", handled, err)
	}
	if err := s.Tick(0.2); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	snap := s.Snapshot()
	if !snap.HasOverlay || snap.Overlay.ClipName != "Wave" {
		t.Fatalf("overlay = %+v, want Wave", snap.Overlay)
	}
	if !common.NearlyEqual(snap.Weights.Overlay, 1) {
		t.Errorf("overlay weight = %v, want 1", snap.Weights.Overlay)
	}

	if _, err := s.HandleKey(common.Key1 + 1); err != nil {
		t.Fatalf("HandleKey(2): %v", err)
	}
	if err := s.Tick(0.5); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Snapshot().State != oneoff.Blending {
		t.Fatal("Jump should still be blending after 0.5s")
	}
	if err := s.Tick(1.0); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Snapshot().State != oneoff.Idle {
		t.Errorf("State = %s, want Idle once Jump ends", s.Snapshot().State)
	}

	want := []recordedEvent{
		{EventOverlayStarted, "Wave"},
		{EventOverlayPreempted, "Wave"},
		{EventOverlayStarted, "Jump"},
		{EventOverlayCompleted, "Jump"},
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v, want %v", *events, want)
	}
	for i := range want {
		if (*events)[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, (*events)[i], want[i])
		}
	}
}

func TestHandleKey(t *testing.T) {
	s, _ := newTestSession(t)

	tests := []struct {
		name    string
		key     uint32
		handled bool
		wantErr error
	}{
		{"unbound", common.RuneKeyCode('x'), false, nil},
		{"overlay out of range", common.Key9, true, ErrUnknownOverlay},
		{"overlay in range", common.Key1 + 2, true, nil},
		{"toggle locomotion", common.KeyW, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled, err := s.HandleKey(tt.key)
			if handled != tt.handled {
				t.Errorf("handled = %v, want %v", handled, tt.handled)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if s.QuitRequested() {
		t.Fatal("quit requested before a quit key")
	}
	if handled, _ := s.HandleKey(common.RuneKeyCode('q')); !handled || !s.QuitRequested() {
		t.Error("Q should request quit")
	}
}

func TestToggleLocomotion(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.ToggleLocomotion(); err != nil {
		t.Fatalf("ToggleLocomotion: %v", err)
	}
	if err := s.Tick(0.1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !s.Snapshot().BaseBlending {
		t.Error("base layer should be blending mid crossfade")
	}
	if err := s.Tick(LocomotionFade); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	snap := s.Snapshot()
	if snap.BaseBlending || snap.BaseState != "Walk" {
		t.Errorf("BaseState = %q (blending %v), want Walk", snap.BaseState, snap.BaseBlending)
	}
}

func TestPlayOverlayNamed(t *testing.T) {
	s, events := newTestSession(t)

	if err := s.PlayOverlayNamed("Nope"); !errors.Is(err, ErrUnknownOverlay) {
		t.Errorf("PlayOverlayNamed(Nope) error = %v, want ErrUnknownOverlay", err)
	}
	if err := s.PlayOverlayNamed("Pickup"); err != nil {
		t.Fatalf("PlayOverlayNamed(Pickup): %v", err)
	}
	if len(*events) != 1 || (*events)[0].clip != "Pickup" {
		t.Errorf("events = %v, want one Pickup start", *events)
	}
	if _, ok := s.OneOff().Overlay(); !ok {
		t.Error("Pickup should be attached")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)
	s.Close()
	s.Close()

	if err := s.Tick(0.1); !errors.Is(err, oneoff.ErrUseAfterTeardown) {
		t.Errorf("Tick after Close error = %v, want ErrUseAfterTeardown", err)
	}
	if !s.OneOff().TornDown() {
		t.Error("one-off component should be torn down")
	}
}

func TestWorkerPoolSession(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	defer pool.Stop()

	lib, err := config.LoadLibrary("")
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Curves = []string{"FootHeight", "Grip", "Lean", "RightHand.translation.y"}
	cfg.BatchSize = 1

	s, err := New(cfg, lib, WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.PlayOverlayNamed("Wave"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := s.Tick(0.5); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	want := make([]float32, 4)
	s.OneOff().SampleBuffer().CopyTo(want)
	got := s.Snapshot().Values
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
