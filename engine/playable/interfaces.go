package playable

import (
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
)

// PoseSource is an externally driven layer wrapped by a source node, such as a state machine controller.
type PoseSource interface {
	// Advance moves the source forward by deltaTime seconds. Called once per frame during the prepare phase.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	Advance(deltaTime float32)

	// Sample writes the source's current pose. Called once per frame during the process phase.
	//
	// Parameters:
	//   - pose: the pose to write, sized for the graph's avatar
	Sample(pose *animation.Pose)
}

// OutputDetacher is implemented by sources that drive an output of their own when they are not wrapped in a graph.
// Wrapping such a source in a graph detaches that output so the source only feeds the graph.
type OutputDetacher interface {
	// DetachOutput stops the source writing to its own output.
	DetachOutput()
}

// AnimationJob is custom per-frame work run by a script node on the pose flowing through it.
type AnimationJob interface {
	// ProcessAnimation reads or modifies the pose after the script node's input has been evaluated.
	//
	// Parameters:
	//   - pose: the pose produced by the script node's input
	ProcessAnimation(pose *animation.Pose)
}

// PoseSink receives the final pose of a graph each time the graph is processed.
type PoseSink interface {
	// WritePose consumes the evaluated pose. The pose is owned by the graph and is only valid during the call.
	//
	// Parameters:
	//   - pose: the evaluated output pose
	WritePose(pose *animation.Pose)
}

// PoseSinkFunc adapts a function to the PoseSink interface.
type PoseSinkFunc func(pose *animation.Pose)

// WritePose calls f(pose).
func (f PoseSinkFunc) WritePose(pose *animation.Pose) {
	f(pose)
}
