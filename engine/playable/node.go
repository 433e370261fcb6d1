package playable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
)

// NodeKind identifies the behaviour of a graph node.
type NodeKind int

const (
	// KindClip samples an AnimationClip at the node's local time.
	KindClip NodeKind = iota

	// KindMixer blends its connected inputs by weight.
	KindMixer

	// KindScript passes its single input through an AnimationJob.
	KindScript

	// KindSource wraps an external PoseSource.
	KindSource
)

func (k NodeKind) String() string {
	switch k {
	case KindClip:
		return "Clip"
	case KindMixer:
		return "Mixer"
	case KindScript:
		return "Script"
	case KindSource:
		return "Source"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// MaxMixerInputs is the largest input count a mixer node accepts.
const MaxMixerInputs = 2

// NodeHandle references a node in a Graph.
// Handles carry the generation of the slot they were issued for, so a handle to a destroyed node stays invalid
// even after its slot is reused. The zero NodeHandle is never valid.
type NodeHandle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h NodeHandle) IsZero() bool {
	return h.generation == 0
}

func (h NodeHandle) String() string {
	if h.IsZero() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%d#%d)", h.index, h.generation)
}

type nodeInput struct {
	source    NodeHandle
	weight    float32
	connected bool
}

// node is one slot of the graph's arena.
type node struct {
	generation uint32
	alive      bool

	kind NodeKind
	name string

	inputs []nodeInput

	// Seconds, accumulated in float64 across frames.
	time, duration float64

	clip   *animation.ClipSampler
	source PoseSource
	job    AnimationJob

	pose    *animation.Pose
	scratch []animation.WeightedPose

	preparedFrame, processedFrame uint64
}

// done reports whether a clip node has played through its duration.
func (n *node) done() bool {
	return n.kind == KindClip && n.duration > 0 && n.time >= n.duration
}
