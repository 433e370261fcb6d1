package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/config"
	"github.com/Carmen-Shannon/oxy-overlay/engine/controller"
	"github.com/Carmen-Shannon/oxy-overlay/engine/curve"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"github.com/Carmen-Shannon/oxy-overlay/engine/oneoff"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

var (
	// ErrUnknownOverlay is returned when an overlay index or name does not match the library.
	ErrUnknownOverlay = errors.New("unknown overlay")

	// ErrNoLibrary is returned when a session is built without a clip library.
	ErrNoLibrary = errors.New("no clip library")
)

// LocomotionFade is the crossfade time in seconds used when switching base-layer states.
const LocomotionFade = 0.25

// Event identifies an overlay lifecycle transition.
type Event int

const (
	// EventOverlayStarted fires when Play attaches a new overlay.
	EventOverlayStarted Event = iota
	// EventOverlayPreempted fires when Play replaces an overlay that was still blending.
	EventOverlayPreempted
	// EventOverlayCompleted fires when an overlay reaches the end of its clip and is removed.
	EventOverlayCompleted
)

func (e Event) String() string {
	switch e {
	case EventOverlayStarted:
		return "started"
	case EventOverlayPreempted:
		return "preempted"
	case EventOverlayCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Snapshot is a copy of the session state published after every tick.
type Snapshot struct {
	Name         string
	Frame        uint64
	BaseState    string
	BaseBlending bool
	State        oneoff.State
	Weights      oneoff.BlendWeights
	Overlay      oneoff.OverlayInfo
	HasOverlay   bool
	Properties   []string
	Values       []float32
	Overlays     []string
}

// session implements Session.
type session struct {
	mu *sync.Mutex

	library  *config.Library
	base     controller.Controller
	oneOff   oneoff.OneOffAnimation
	overlays []*model.AnimationClip

	sink    playable.PoseSink
	pool    worker.DynamicWorkerPool
	metrics *metrics.Metrics
	onEvent func(Event, string)

	frame    uint64
	snapshot Snapshot
	quit     bool
	closed   bool
}

// Session binds a clip library, a base-layer controller and a one-off overlay component into one playable unit.
// Tick, the Play methods and HandleKey must be called from a single goroutine; Snapshot may be called from any.
type Session interface {
	// Tick evaluates one frame and publishes a new snapshot.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - error: the evaluation error, if any
	Tick(deltaTime float32) error

	// PlayOverlay plays the overlay at index in the library's overlay list.
	//
	// Parameters:
	//   - index: the zero-based overlay index
	//
	// Returns:
	//   - error: ErrUnknownOverlay for an out-of-range index, or the Play error
	PlayOverlay(index int) error

	// PlayOverlayNamed plays the library clip with the given name as an overlay.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - error: ErrUnknownOverlay for an unknown clip, or the Play error
	PlayOverlayNamed(name string) error

	// ToggleLocomotion crossfades the base layer to its next state.
	//
	// Returns:
	//   - error: error if the base layer has no state to switch to
	ToggleLocomotion() error

	// HandleKey maps a virtual key code to a session command.
	// Keys 1 through 9 play overlays, W toggles locomotion, Q and Escape request quit.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//
	// Returns:
	//   - bool: true if the key was bound to a command
	//   - error: the command's error, if any
	HandleKey(keyCode uint32) (bool, error)

	// QuitRequested reports whether a quit key was pressed.
	QuitRequested() bool

	// Snapshot returns the state published by the most recent Tick.
	Snapshot() Snapshot

	// OneOff returns the one-off overlay component.
	OneOff() oneoff.OneOffAnimation

	// Base returns the base-layer controller.
	Base() controller.Controller

	// Close tears down the one-off component. Safe to call more than once.
	Close()
}

var _ Session = &session{}

// New builds a session from a configuration and a clip library.
//
// Parameters:
//   - cfg: the resolved configuration
//   - lib: the clip library providing the avatar, base states and overlays
//   - options: functional options configuring the session
//
// Returns:
//   - Session: the session
//   - error: error if the base layer or the one-off component cannot be built
func New(cfg config.Config, lib *config.Library, options ...SessionBuilderOption) (Session, error) {
	if lib == nil {
		return nil, ErrNoLibrary
	}

	s := &session{
		mu:      &sync.Mutex{},
		library: lib,
	}
	for _, opt := range options {
		opt(s)
	}

	base, err := controller.NewController(lib.Avatar, lib.ControllerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("build base layer: %w", err)
	}
	s.base = base

	opts := cfg.OneOffOptions()
	if s.sink != nil {
		opts = append(opts, oneoff.WithSink(s.sink))
	}
	if s.pool != nil {
		opts = append(opts, oneoff.WithWorkerPool(s.pool, cfg.BatchSize))
	}
	if s.metrics != nil {
		opts = append(opts, oneoff.WithMetrics(s.metrics))
	}

	o, err := oneoff.Initialize(lib.Avatar, base, cfg.Curves, opts...)
	if err != nil {
		return nil, err
	}
	s.oneOff = o

	if binder, ok := s.sink.(interface{ SetSampleBuffer(*curve.SampleBuffer) }); ok {
		binder.SetSampleBuffer(o.SampleBuffer())
	}

	s.overlays = lib.Overlays()
	s.publish()
	return s, nil
}

func (s *session) Tick(deltaTime float32) error {
	before, blending := s.oneOff.Overlay()
	if err := s.oneOff.Evaluate(deltaTime); err != nil {
		return err
	}
	s.frame++

	if blending && s.oneOff.State() == oneoff.Idle {
		s.emit(EventOverlayCompleted, before.ClipName)
	}

	s.publish()
	return nil
}

func (s *session) PlayOverlay(index int) error {
	if index < 0 || index >= len(s.overlays) {
		return fmt.Errorf("%w: index %d", ErrUnknownOverlay, index)
	}
	return s.play(s.overlays[index])
}

func (s *session) PlayOverlayNamed(name string) error {
	clip, ok := s.library.Clip(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOverlay, name)
	}
	return s.play(clip)
}

// play starts clip on the one-off component and reports the resulting transitions.
func (s *session) play(clip *model.AnimationClip) error {
	previous, blending := s.oneOff.Overlay()
	if err := s.oneOff.Play(clip); err != nil {
		return err
	}
	if blending {
		s.emit(EventOverlayPreempted, previous.ClipName)
	}
	s.emit(EventOverlayStarted, clip.Name)
	s.publish()
	return nil
}

func (s *session) ToggleLocomotion() error {
	states := s.base.States()
	if len(states) < 2 {
		return fmt.Errorf("%w: base layer has %d state(s)", controller.ErrUnknownState, len(states))
	}

	next := states[0]
	for i, name := range states {
		if name == s.base.CurrentState() {
			next = states[(i+1)%len(states)]
			break
		}
	}
	return s.base.CrossFade(next, LocomotionFade)
}

func (s *session) HandleKey(keyCode uint32) (bool, error) {
	if i, ok := common.DigitIndex(keyCode); ok {
		return true, s.PlayOverlay(i)
	}

	switch keyCode {
	case common.KeyW:
		return true, s.ToggleLocomotion()
	case common.KeyQ, common.KeyEsc:
		s.mu.Lock()
		s.quit = true
		s.mu.Unlock()
		return true, nil
	}
	return false, nil
}

func (s *session) QuitRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

func (s *session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot
	snap.Properties = append([]string(nil), s.snapshot.Properties...)
	snap.Values = append([]float32(nil), s.snapshot.Values...)
	snap.Overlays = append([]string(nil), s.snapshot.Overlays...)
	return snap
}

func (s *session) OneOff() oneoff.OneOffAnimation {
	return s.oneOff
}

func (s *session) Base() controller.Controller {
	return s.base
}

func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.oneOff.Teardown()
}

// publish copies the current state into the snapshot readable from other goroutines.
func (s *session) publish() {
	overlay, has := s.oneOff.Overlay()

	snap := Snapshot{
		Name:         s.oneOff.Name(),
		Frame:        s.frame,
		BaseState:    s.base.CurrentState(),
		BaseBlending: s.base.IsBlending(),
		State:        s.oneOff.State(),
		Weights:      s.oneOff.Weights(),
		Overlay:      overlay,
		HasOverlay:   has,
		Properties:   s.oneOff.PropertyNames(),
	}
	if buf := s.oneOff.SampleBuffer(); buf != nil {
		snap.Values = make([]float32, buf.Len())
		buf.CopyTo(snap.Values)
	}
	snap.Overlays = make([]string, len(s.overlays))
	for i, c := range s.overlays {
		snap.Overlays[i] = c.Name
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

func (s *session) emit(e Event, clipName string) {
	if s.onEvent != nil {
		s.onEvent(e, clipName)
	}
}
