package controller

import (
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// ControllerBuilderOption is a functional option for configuring a Controller during construction.
type ControllerBuilderOption func(*controller)

// WithState is an option builder that registers a named clip state. Registering a name twice replaces the clip.
// Nil clips are ignored.
//
// Parameters:
//   - name: the state name
//   - clip: the clip the state plays
//   - loop: whether playback wraps at the end of the clip
//
// Returns:
//   - ControllerBuilderOption: a function that applies the state option to a controller
func WithState(name string, clip *model.AnimationClip, loop bool) ControllerBuilderOption {
	return func(c *controller) {
		if clip == nil {
			return
		}
		c.addState(name, clip, loop)
	}
}

// WithDefaultState is an option builder that selects the state played on construction.
// Without it the first registered state plays.
//
// Parameters:
//   - name: the state name
//
// Returns:
//   - ControllerBuilderOption: a function that applies the default state option to a controller
func WithDefaultState(name string) ControllerBuilderOption {
	return func(c *controller) {
		c.defaultState = name
	}
}

// WithOutput is an option builder that sets the sink Tick writes to while the controller runs standalone.
//
// Parameters:
//   - sink: the pose consumer
//
// Returns:
//   - ControllerBuilderOption: a function that applies the output option to a controller
func WithOutput(sink playable.PoseSink) ControllerBuilderOption {
	return func(c *controller) {
		c.output = sink
	}
}
