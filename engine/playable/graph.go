package playable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// OutputName is the name given to a graph's pose output.
const OutputName = "Animation Output"

// graph is the implementation of the Graph interface.
type graph struct {
	name   string
	avatar *model.Avatar

	nodes    []node
	freeList []uint32
	live     int

	output NodeHandle
	sink   PoseSink

	prepareFrame, processFrame uint64
	released                   bool
}

// Graph defines the public interface for an animation blend graph.
//
// A Graph owns every node created through it in an arena and hands out generation-checked NodeHandles.
// Nodes are wired by connecting a source node to an input slot of a destination node; the node selected with
// SetOutput is pulled once per frame and its pose written to the output sink.
//
// Evaluation is split in two phases. PrepareFrame advances the local time of every clip and source node
// reachable from the output. ProcessFrame pulls poses through the reachable nodes, inputs first, and hands the
// result to the sink. Evaluate runs both back to back. Callers that need to react to the advanced times
// before poses are pulled call the phases separately.
//
// A Graph is not safe for concurrent use.
type Graph interface {
	// Name returns the graph name.
	//
	// Returns:
	//   - string: the name given at construction
	Name() string

	// Avatar returns the avatar every pose in the graph is sized for.
	//
	// Returns:
	//   - *model.Avatar: the graph's avatar
	Avatar() *model.Avatar

	// CreateClipNode adds a node sampling the given clip. The node's duration starts at the clip's authored
	// duration and its time at zero.
	//
	// Parameters:
	//   - clip: the clip to sample
	//
	// Returns:
	//   - NodeHandle: the handle of the new node
	//   - error: ErrNilArgument if clip is nil, or ErrReleased
	CreateClipNode(clip *model.AnimationClip) (NodeHandle, error)

	// CreateMixerNode adds a mixer node with inputCount weighted input slots, all disconnected with weight 0.
	//
	// Parameters:
	//   - inputCount: the number of input slots, 1 or 2
	//
	// Returns:
	//   - NodeHandle: the handle of the new node
	//   - error: ErrInputCount if inputCount is out of range, or ErrReleased
	CreateMixerNode(inputCount int) (NodeHandle, error)

	// CreateScriptNode adds a node with a single input slot that runs job on the pose flowing through it.
	//
	// Parameters:
	//   - job: the per-frame job
	//
	// Returns:
	//   - NodeHandle: the handle of the new node
	//   - error: ErrNilArgument if job is nil, or ErrReleased
	CreateScriptNode(job AnimationJob) (NodeHandle, error)

	// CreateSourceNode adds a node wrapping an external pose source.
	// If the source implements OutputDetacher its own output is detached.
	//
	// Parameters:
	//   - source: the external source
	//
	// Returns:
	//   - NodeHandle: the handle of the new node
	//   - error: ErrNilArgument if source is nil, or ErrReleased
	CreateSourceNode(source PoseSource) (NodeHandle, error)

	// SetNodeName labels a node for diagnostics.
	//
	// Parameters:
	//   - h: the node to label
	//   - name: the label
	//
	// Returns:
	//   - error: ErrInvalidHandle or ErrReleased
	SetNodeName(h NodeHandle, name string) error

	// NodeName returns a node's label, or "" for an invalid handle.
	//
	// Parameters:
	//   - h: the node to query
	//
	// Returns:
	//   - string: the node label
	NodeName(h NodeHandle) string

	// Kind returns the kind of a node.
	//
	// Parameters:
	//   - h: the node to query
	//
	// Returns:
	//   - NodeKind: the node kind
	//   - error: ErrInvalidHandle or ErrReleased
	Kind(h NodeHandle) (NodeKind, error)

	// Connect feeds src into input slot of dst with the given weight.
	//
	// Parameters:
	//   - dst: the node receiving the input
	//   - slot: the input slot on dst
	//   - src: the node providing the input
	//   - weight: the initial input weight
	//
	// Returns:
	//   - error: ErrInvalidHandle, ErrInvalidSlot if the slot is out of range or occupied, ErrCycle, or ErrReleased
	Connect(dst NodeHandle, slot int, src NodeHandle, weight float32) error

	// Disconnect clears an input slot of dst and resets its weight to 0. Disconnecting an empty slot is a no-op.
	//
	// Parameters:
	//   - dst: the node whose input is cleared
	//   - slot: the input slot
	//
	// Returns:
	//   - error: ErrInvalidHandle, ErrInvalidSlot, or ErrReleased
	Disconnect(dst NodeHandle, slot int) error

	// Input returns the node connected to an input slot.
	//
	// Parameters:
	//   - dst: the node to query
	//   - slot: the input slot
	//
	// Returns:
	//   - NodeHandle: the connected node, or the zero handle
	//   - bool: true if the slot is connected
	//   - error: ErrInvalidHandle, ErrInvalidSlot, or ErrReleased
	Input(dst NodeHandle, slot int) (NodeHandle, bool, error)

	// SetInputCount resizes a mixer's input slots. Slots dropped by shrinking are disconnected first.
	//
	// Parameters:
	//   - h: the mixer node
	//   - n: the new input count, 1 or 2
	//
	// Returns:
	//   - error: ErrInputCount if h is not a mixer or n is out of range, ErrInvalidHandle, or ErrReleased
	SetInputCount(h NodeHandle, n int) error

	// InputCount returns the number of input slots of a node.
	//
	// Parameters:
	//   - h: the node to query
	//
	// Returns:
	//   - int: the input count, or 0 for an invalid handle
	InputCount(h NodeHandle) int

	// SetInputWeight sets the weight of an input slot.
	//
	// Parameters:
	//   - h: the node
	//   - slot: the input slot
	//   - weight: the new weight
	//
	// Returns:
	//   - error: ErrInvalidHandle, ErrInvalidSlot, or ErrReleased
	SetInputWeight(h NodeHandle, slot int, weight float32) error

	// InputWeight returns the weight of an input slot, or 0 when the handle or slot is invalid.
	//
	// Parameters:
	//   - h: the node
	//   - slot: the input slot
	//
	// Returns:
	//   - float32: the slot weight
	InputWeight(h NodeHandle, slot int) float32

	// SetTime sets the local time of a node in seconds.
	//
	// Parameters:
	//   - h: the node
	//   - t: the new time
	//
	// Returns:
	//   - error: ErrInvalidHandle or ErrReleased
	SetTime(h NodeHandle, t float64) error

	// Time returns the local time of a node, or 0 for an invalid handle.
	//
	// Parameters:
	//   - h: the node
	//
	// Returns:
	//   - float64: the local time in seconds
	Time(h NodeHandle) float64

	// SetDuration sets the duration of a node. A clip node whose time reaches a positive duration is done.
	//
	// Parameters:
	//   - h: the node
	//   - d: the duration in seconds
	//
	// Returns:
	//   - error: ErrInvalidHandle or ErrReleased
	SetDuration(h NodeHandle, d float64) error

	// Duration returns the duration of a node, or 0 for an invalid handle.
	//
	// Parameters:
	//   - h: the node
	//
	// Returns:
	//   - float64: the duration in seconds
	Duration(h NodeHandle) float64

	// IsDone reports whether a clip node has played through its duration. Always false for other kinds
	// and for invalid handles.
	//
	// Parameters:
	//   - h: the node
	//
	// Returns:
	//   - bool: true if the node is done
	IsDone(h NodeHandle) bool

	// Destroy removes a node from the graph. Inputs on other nodes fed by it are disconnected and, if it was
	// the output node, the output is cleared. The handle and every copy of it become invalid.
	//
	// Parameters:
	//   - h: the node to destroy
	//
	// Returns:
	//   - error: ErrInvalidHandle or ErrReleased
	Destroy(h NodeHandle) error

	// IsValid reports whether h refers to a live node.
	//
	// Parameters:
	//   - h: the handle to check
	//
	// Returns:
	//   - bool: true if the node is live
	IsValid(h NodeHandle) bool

	// NodeCount returns the number of live nodes.
	//
	// Returns:
	//   - int: the live node count
	NodeCount() int

	// SetOutput selects the node whose pose is written to sink on each processed frame.
	// sink may be nil, in which case the output node is still pulled every frame.
	//
	// Parameters:
	//   - src: the output node
	//   - sink: the consumer of the output pose
	//
	// Returns:
	//   - error: ErrInvalidHandle or ErrReleased
	SetOutput(src NodeHandle, sink PoseSink) error

	// Output returns the current output node, or the zero handle if none is set.
	//
	// Returns:
	//   - NodeHandle: the output node
	Output() NodeHandle

	// PrepareFrame advances the time of every clip and source node reachable from the output by deltaTime.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - error: ErrReleased
	PrepareFrame(deltaTime float32) error

	// ProcessFrame pulls the output pose through the graph and writes it to the sink.
	//
	// Returns:
	//   - error: ErrReleased
	ProcessFrame() error

	// Evaluate runs PrepareFrame followed by ProcessFrame.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - error: ErrReleased
	Evaluate(deltaTime float32) error

	// OutputPose returns the pose produced by the output node during the last processed frame,
	// or nil if no output is set.
	//
	// Returns:
	//   - *animation.Pose: the last output pose, owned by the graph
	OutputPose() *animation.Pose

	// Release destroys every node and frees the graph. Calling Release more than once is a no-op.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true after Release
	Released() bool
}

var _ Graph = &graph{}

// NewGraph creates an empty graph for the given avatar.
//
// Parameters:
//   - avatar: the avatar every node's pose is sized for
//   - options: variadic list of GraphBuilderOption functions
//
// Returns:
//   - Graph: the new graph
func NewGraph(avatar *model.Avatar, options ...GraphBuilderOption) Graph {
	g := &graph{
		name:   "Graph",
		avatar: avatar,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *graph) Name() string {
	return g.name
}

func (g *graph) Avatar() *model.Avatar {
	return g.avatar
}

func (g *graph) CreateClipNode(clip *model.AnimationClip) (NodeHandle, error) {
	if clip == nil {
		return NodeHandle{}, fmt.Errorf("%w: clip", ErrNilArgument)
	}
	h, n, err := g.allocate(KindClip, clip.Name)
	if err != nil {
		return NodeHandle{}, err
	}
	n.clip = animation.NewClipSampler(clip, g.avatar)
	n.duration = float64(clip.Duration)
	return h, nil
}

func (g *graph) CreateMixerNode(inputCount int) (NodeHandle, error) {
	if inputCount < 1 || inputCount > MaxMixerInputs {
		return NodeHandle{}, fmt.Errorf("%w: mixer with %d inputs", ErrInputCount, inputCount)
	}
	h, n, err := g.allocate(KindMixer, "Mixer")
	if err != nil {
		return NodeHandle{}, err
	}
	n.inputs = make([]nodeInput, inputCount, MaxMixerInputs)
	n.scratch = make([]animation.WeightedPose, 0, MaxMixerInputs)
	return h, nil
}

func (g *graph) CreateScriptNode(job AnimationJob) (NodeHandle, error) {
	if job == nil {
		return NodeHandle{}, fmt.Errorf("%w: job", ErrNilArgument)
	}
	h, n, err := g.allocate(KindScript, "Script")
	if err != nil {
		return NodeHandle{}, err
	}
	n.inputs = make([]nodeInput, 1)
	n.job = job
	return h, nil
}

func (g *graph) CreateSourceNode(source PoseSource) (NodeHandle, error) {
	if source == nil {
		return NodeHandle{}, fmt.Errorf("%w: source", ErrNilArgument)
	}
	h, n, err := g.allocate(KindSource, "Source")
	if err != nil {
		return NodeHandle{}, err
	}
	n.source = source
	if d, ok := source.(OutputDetacher); ok {
		d.DetachOutput()
	}
	return h, nil
}

func (g *graph) SetNodeName(h NodeHandle, name string) error {
	n, err := g.lookup(h)
	if err != nil {
		return err
	}
	n.name = name
	return nil
}

func (g *graph) NodeName(h NodeHandle) string {
	n, err := g.lookup(h)
	if err != nil {
		return ""
	}
	return n.name
}

func (g *graph) Kind(h NodeHandle) (NodeKind, error) {
	n, err := g.lookup(h)
	if err != nil {
		return 0, err
	}
	return n.kind, nil
}

func (g *graph) Connect(dst NodeHandle, slot int, src NodeHandle, weight float32) error {
	d, err := g.lookup(dst)
	if err != nil {
		return err
	}
	if _, err := g.lookup(src); err != nil {
		return err
	}
	if slot < 0 || slot >= len(d.inputs) {
		return fmt.Errorf("%w: slot %d of %s with %d inputs", ErrInvalidSlot, slot, dst, len(d.inputs))
	}
	if d.inputs[slot].connected {
		return fmt.Errorf("%w: slot %d of %s is already connected", ErrInvalidSlot, slot, dst)
	}
	if src == dst || g.reaches(src, dst) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, src, dst)
	}

	d.inputs[slot] = nodeInput{source: src, weight: weight, connected: true}
	return nil
}

func (g *graph) Disconnect(dst NodeHandle, slot int) error {
	d, err := g.lookup(dst)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= len(d.inputs) {
		return fmt.Errorf("%w: slot %d of %s with %d inputs", ErrInvalidSlot, slot, dst, len(d.inputs))
	}
	d.inputs[slot] = nodeInput{}
	return nil
}

func (g *graph) Input(dst NodeHandle, slot int) (NodeHandle, bool, error) {
	d, err := g.lookup(dst)
	if err != nil {
		return NodeHandle{}, false, err
	}
	if slot < 0 || slot >= len(d.inputs) {
		return NodeHandle{}, false, fmt.Errorf("%w: slot %d of %s with %d inputs", ErrInvalidSlot, slot, dst, len(d.inputs))
	}
	in := d.inputs[slot]
	return in.source, in.connected, nil
}

func (g *graph) SetInputCount(h NodeHandle, n int) error {
	nd, err := g.lookup(h)
	if err != nil {
		return err
	}
	if nd.kind != KindMixer {
		return fmt.Errorf("%w: %s node %s has a fixed input count", ErrInputCount, nd.kind, h)
	}
	if n < 1 || n > MaxMixerInputs {
		return fmt.Errorf("%w: mixer with %d inputs", ErrInputCount, n)
	}
	for i := n; i < len(nd.inputs); i++ {
		nd.inputs[i] = nodeInput{}
	}
	nd.inputs = nd.inputs[:n]
	return nil
}

func (g *graph) InputCount(h NodeHandle) int {
	n, err := g.lookup(h)
	if err != nil {
		return 0
	}
	return len(n.inputs)
}

func (g *graph) SetInputWeight(h NodeHandle, slot int, weight float32) error {
	n, err := g.lookup(h)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= len(n.inputs) {
		return fmt.Errorf("%w: slot %d of %s with %d inputs", ErrInvalidSlot, slot, h, len(n.inputs))
	}
	n.inputs[slot].weight = weight
	return nil
}

func (g *graph) InputWeight(h NodeHandle, slot int) float32 {
	n, err := g.lookup(h)
	if err != nil || slot < 0 || slot >= len(n.inputs) {
		return 0
	}
	return n.inputs[slot].weight
}

func (g *graph) SetTime(h NodeHandle, t float64) error {
	n, err := g.lookup(h)
	if err != nil {
		return err
	}
	n.time = t
	return nil
}

func (g *graph) Time(h NodeHandle) float64 {
	n, err := g.lookup(h)
	if err != nil {
		return 0
	}
	return n.time
}

func (g *graph) SetDuration(h NodeHandle, d float64) error {
	n, err := g.lookup(h)
	if err != nil {
		return err
	}
	n.duration = d
	return nil
}

func (g *graph) Duration(h NodeHandle) float64 {
	n, err := g.lookup(h)
	if err != nil {
		return 0
	}
	return n.duration
}

func (g *graph) IsDone(h NodeHandle) bool {
	n, err := g.lookup(h)
	if err != nil {
		return false
	}
	return n.done()
}

func (g *graph) Destroy(h NodeHandle) error {
	n, err := g.lookup(h)
	if err != nil {
		return err
	}

	for i := range g.nodes {
		other := &g.nodes[i]
		if !other.alive {
			continue
		}
		for slot := range other.inputs {
			if other.inputs[slot].connected && other.inputs[slot].source == h {
				other.inputs[slot] = nodeInput{}
			}
		}
	}
	if g.output == h {
		g.output = NodeHandle{}
	}

	*n = node{generation: n.generation + 1}
	g.freeList = append(g.freeList, h.index)
	g.live--
	return nil
}

func (g *graph) IsValid(h NodeHandle) bool {
	_, err := g.lookup(h)
	return err == nil
}

func (g *graph) NodeCount() int {
	return g.live
}

func (g *graph) SetOutput(src NodeHandle, sink PoseSink) error {
	if _, err := g.lookup(src); err != nil {
		return err
	}
	g.output = src
	g.sink = sink
	return nil
}

func (g *graph) Output() NodeHandle {
	if !g.IsValid(g.output) {
		return NodeHandle{}
	}
	return g.output
}

func (g *graph) PrepareFrame(deltaTime float32) error {
	if g.released {
		return ErrReleased
	}
	g.prepareFrame++
	if n, err := g.lookup(g.output); err == nil {
		g.prepare(n, deltaTime)
	}
	return nil
}

func (g *graph) ProcessFrame() error {
	if g.released {
		return ErrReleased
	}
	n, err := g.lookup(g.output)
	if err != nil {
		return nil
	}
	g.processFrame++
	pose := g.process(n)
	if g.sink != nil {
		g.sink.WritePose(pose)
	}
	return nil
}

func (g *graph) Evaluate(deltaTime float32) error {
	if err := g.PrepareFrame(deltaTime); err != nil {
		return err
	}
	return g.ProcessFrame()
}

func (g *graph) OutputPose() *animation.Pose {
	n, err := g.lookup(g.output)
	if err != nil {
		return nil
	}
	return n.pose
}

func (g *graph) Release() {
	if g.released {
		return
	}
	for i := range g.nodes {
		if g.nodes[i].alive {
			g.nodes[i] = node{generation: g.nodes[i].generation + 1}
		}
	}
	g.nodes = nil
	g.freeList = nil
	g.live = 0
	g.output = NodeHandle{}
	g.sink = nil
	g.released = true
}

func (g *graph) Released() bool {
	return g.released
}

// allocate takes a slot from the free list, or grows the arena, and initializes a live node in it.
func (g *graph) allocate(kind NodeKind, name string) (NodeHandle, *node, error) {
	if g.released {
		return NodeHandle{}, nil, ErrReleased
	}

	var idx uint32
	if n := len(g.freeList); n > 0 {
		idx = g.freeList[n-1]
		g.freeList = g.freeList[:n-1]
	} else {
		g.nodes = append(g.nodes, node{})
		idx = uint32(len(g.nodes) - 1)
	}

	n := &g.nodes[idx]
	gen := n.generation
	if gen == 0 {
		gen = 1
	}
	*n = node{
		generation: gen,
		alive:      true,
		kind:       kind,
		name:       name,
		pose:       animation.NewPose(g.avatar),
	}
	g.live++
	return NodeHandle{index: idx, generation: gen}, n, nil
}

// lookup resolves a handle to its live node.
func (g *graph) lookup(h NodeHandle) (*node, error) {
	if g.released {
		return nil, ErrReleased
	}
	if h.IsZero() || int(h.index) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	n := &g.nodes[h.index]
	if !n.alive || n.generation != h.generation {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return n, nil
}

// reaches reports whether target is reachable from start by following input edges.
func (g *graph) reaches(start, target NodeHandle) bool {
	n, err := g.lookup(start)
	if err != nil {
		return false
	}
	for _, in := range n.inputs {
		if !in.connected {
			continue
		}
		if in.source == target || g.reaches(in.source, target) {
			return true
		}
	}
	return false
}

func (g *graph) prepare(n *node, deltaTime float32) {
	if n.preparedFrame == g.prepareFrame {
		return
	}
	n.preparedFrame = g.prepareFrame

	switch n.kind {
	case KindClip:
		n.time += float64(deltaTime)
	case KindSource:
		n.time += float64(deltaTime)
		n.source.Advance(deltaTime)
	}

	for _, in := range n.inputs {
		if !in.connected {
			continue
		}
		if src, err := g.lookup(in.source); err == nil {
			g.prepare(src, deltaTime)
		}
	}
}

func (g *graph) process(n *node) *animation.Pose {
	if n.processedFrame == g.processFrame {
		return n.pose
	}
	n.processedFrame = g.processFrame

	switch n.kind {
	case KindClip:
		n.clip.Sample(float32(n.time), n.pose)

	case KindSource:
		n.source.Sample(n.pose)

	case KindMixer:
		n.scratch = n.scratch[:0]
		for _, in := range n.inputs {
			if !in.connected {
				continue
			}
			src, err := g.lookup(in.source)
			if err != nil {
				continue
			}
			n.scratch = append(n.scratch, animation.WeightedPose{Pose: g.process(src), Weight: in.weight})
		}
		animation.Blend(n.pose, g.avatar, n.scratch)

	case KindScript:
		in := n.inputs[0]
		src, err := g.lookup(in.source)
		if in.connected && err == nil {
			n.pose.CopyFrom(g.process(src))
		} else {
			n.pose.ResetTo(g.avatar)
		}
		n.job.ProcessAnimation(n.pose)
	}

	return n.pose
}
