package controller

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// ErrUnknownState is returned when a state name was never registered.
var ErrUnknownState = errors.New("unknown controller state")

// clipState is one named state of the controller.
type clipState struct {
	name    string
	sampler *animation.ClipSampler
	loop    bool
}

// playbackState tracks the CPU-side playback time, speed, looping and blend progress of the controller.
type playbackState struct {
	current int

	speed    float32
	blending bool
	blendTo  int

	// Times accumulate in float64; samplers and callers see float32.
	time, blendToTime           float64
	blendDuration, blendElapsed float64
}

// controller is the implementation of the Controller interface.
type controller struct {
	mu *sync.Mutex

	avatar *model.Avatar
	states []clipState
	byName map[string]int

	playback     playbackState
	defaultState string

	from, to *animation.Pose
	blendBuf []animation.WeightedPose

	output   playable.PoseSink
	outPose  *animation.Pose
	detached bool
}

// Controller is a base-layer state machine of named clip states.
//
// Exactly one state plays at a time, optionally crossfading into a second state over a fixed duration.
// A Controller is a playable.PoseSource so it can drive the base layer of a blend graph. Until it is wrapped
// in a graph it can drive its own output through Tick; wrapping detaches that output.
type Controller interface {
	playable.PoseSource
	playable.OutputDetacher

	// Play switches immediately to the named state, restarting it at time 0 and cancelling any blend.
	//
	// Parameters:
	//   - state: the state to play
	//
	// Returns:
	//   - error: ErrUnknownState if the state was never registered
	Play(state string) error

	// CrossFade blends from the current state into the named state over duration seconds.
	// A non-positive duration behaves like Play.
	//
	// Parameters:
	//   - state: the target state
	//   - duration: the blend time in seconds
	//
	// Returns:
	//   - error: ErrUnknownState if the state was never registered
	CrossFade(state string, duration float32) error

	// IsBlending reports whether a crossfade is in progress.
	//
	// Returns:
	//   - bool: true while blending
	IsBlending() bool

	// BlendProgress returns the crossfade progress.
	//
	// Returns:
	//   - float32: progress from 0.0 to 1.0, or 0.0 if not blending
	BlendProgress() float32

	// CancelBlend stops an in-progress crossfade and keeps the current state.
	CancelBlend()

	// CurrentState returns the name of the playing state, or "" if none is playing.
	//
	// Returns:
	//   - string: the current state name
	CurrentState() string

	// Time returns the playback time of the current state in seconds.
	//
	// Returns:
	//   - float32: the playback time
	Time() float32

	// SetSpeed sets the playback speed multiplier.
	//
	// Parameters:
	//   - speed: the multiplier (1.0 = normal, 0.5 = half speed)
	SetSpeed(speed float32)

	// Tick advances the controller and writes its pose to its own output.
	// Does nothing once the output has been detached.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - bool: true if a pose was written
	Tick(deltaTime float32) bool

	// Detached reports whether the controller's own output was detached.
	//
	// Returns:
	//   - bool: true once detached
	Detached() bool

	// States returns the registered state names in registration order.
	//
	// Returns:
	//   - []string: the state names
	States() []string
}

var _ Controller = &controller{}

// NewController creates a controller for the given avatar.
// If a default state is configured, or any state is registered, the controller starts playing it.
//
// Parameters:
//   - avatar: the avatar the controller's clips animate
//   - options: variadic list of ControllerBuilderOption functions
//
// Returns:
//   - Controller: the new controller
//   - error: ErrUnknownState if the default state was never registered, or model.ErrNoSkeleton
func NewController(avatar *model.Avatar, options ...ControllerBuilderOption) (Controller, error) {
	if !avatar.HasSkeletonRoot() {
		return nil, model.ErrNoSkeleton
	}

	c := &controller{
		mu:       &sync.Mutex{},
		avatar:   avatar,
		byName:   make(map[string]int),
		playback: playbackState{current: -1, speed: 1},
		from:     animation.NewPose(avatar),
		to:       animation.NewPose(avatar),
		outPose:  animation.NewPose(avatar),
		blendBuf: make([]animation.WeightedPose, 2),
	}
	for _, opt := range options {
		opt(c)
	}

	start := c.defaultState
	if start == "" && len(c.states) > 0 {
		start = c.states[0].name
	}
	if start != "" {
		if err := c.Play(start); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *controller) addState(name string, clip *model.AnimationClip, loop bool) {
	s := clipState{name: name, sampler: animation.NewClipSampler(clip, c.avatar), loop: loop}
	if idx, ok := c.byName[name]; ok {
		c.states[idx] = s
		return
	}
	c.byName[name] = len(c.states)
	c.states = append(c.states, s)
}

func (c *controller) Play(state string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.byName[state]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	c.playback.current = idx
	c.playback.time = 0
	c.playback.blending = false
	c.playback.blendElapsed = 0
	return nil
}

func (c *controller) CrossFade(state string, duration float32) error {
	if duration <= 0 {
		return c.Play(state)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.byName[state]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	if c.playback.current < 0 {
		c.playback.current = idx
		c.playback.time = 0
		return nil
	}
	c.playback.blending = true
	c.playback.blendTo = idx
	c.playback.blendToTime = 0
	c.playback.blendDuration = float64(duration)
	c.playback.blendElapsed = 0
	return nil
}

func (c *controller) IsBlending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback.blending
}

func (c *controller) BlendProgress() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playback.blending {
		return 0
	}
	return float32(c.playback.blendElapsed / c.playback.blendDuration)
}

func (c *controller) CancelBlend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playback.blending = false
	c.playback.blendElapsed = 0
}

func (c *controller) CurrentState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback.current < 0 {
		return ""
	}
	return c.states[c.playback.current].name
}

func (c *controller) Time() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float32(c.playback.time)
}

func (c *controller) SetSpeed(speed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playback.speed = speed
}

func (c *controller) States() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.states))
	for i, s := range c.states {
		names[i] = s.name
	}
	return names
}

func (c *controller) Advance(deltaTime float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &c.playback
	if p.current < 0 {
		return
	}

	step := float64(deltaTime) * float64(p.speed)
	p.time = c.wrap(p.current, p.time+step)

	if p.blending {
		p.blendElapsed += float64(deltaTime)
		p.blendToTime = c.wrap(p.blendTo, p.blendToTime+step)

		if p.blendElapsed/p.blendDuration >= 1.0 {
			p.current = p.blendTo
			p.time = p.blendToTime
			p.blending = false
			p.blendElapsed = 0
		}
	}
}

// wrap loops t into the clip duration of a looping state.
func (c *controller) wrap(state int, t float64) float64 {
	s := c.states[state]
	duration := float64(s.sampler.Clip().Duration)
	if s.loop && duration > 0 && t > duration {
		return math.Mod(t, duration)
	}
	return t
}

func (c *controller) Sample(pose *animation.Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &c.playback
	if p.current < 0 {
		pose.ResetTo(c.avatar)
		return
	}
	if !p.blending {
		c.states[p.current].sampler.Sample(float32(p.time), pose)
		return
	}

	progress := float32(p.blendElapsed / p.blendDuration)
	c.states[p.current].sampler.Sample(float32(p.time), c.from)
	c.states[p.blendTo].sampler.Sample(float32(p.blendToTime), c.to)
	c.blendBuf[0] = animation.WeightedPose{Pose: c.from, Weight: 1 - progress}
	c.blendBuf[1] = animation.WeightedPose{Pose: c.to, Weight: progress}
	animation.Blend(pose, c.avatar, c.blendBuf)
}

func (c *controller) DetachOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	c.output = nil
}

func (c *controller) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

func (c *controller) Tick(deltaTime float32) bool {
	c.mu.Lock()
	out := c.output
	c.mu.Unlock()
	if out == nil {
		return false
	}
	c.Advance(deltaTime)
	c.Sample(c.outPose)
	out.WritePose(c.outPose)
	return true
}
