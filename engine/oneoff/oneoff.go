package oneoff

import (
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine/curve"
	"github.com/Carmen-Shannon/oxy-overlay/engine/metrics"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// overlayClip is the one-off clip currently mixed over the base layer.
type overlayClip struct {
	clip     *model.AnimationClip
	duration float64
	node     playable.NodeHandle
}

// OverlayInfo describes the active overlay.
type OverlayInfo struct {
	ClipName       string
	Time           float32
	Duration       float32
	NormalizedTime float32
	Node           playable.NodeHandle
}

// oneOffAnimation is the implementation of the OneOffAnimation interface.
type oneOffAnimation struct {
	name   string
	avatar *model.Avatar

	graph                playable.Graph
	base, mixer, sampler playable.NodeHandle
	sink                 playable.PoseSink

	table  *curve.BindingTable
	buffer *curve.SampleBuffer

	overlay         *overlayClip
	fadeIn, fadeOut float32
	state           State
	weights         BlendWeights

	pool      worker.DynamicWorkerPool
	batchSize int

	metrics  *metrics.Metrics
	logging  bool
	tornDown bool
}

// OneOffAnimation plays transient clips over a continuously running base layer and exposes a fixed set of
// sampled property values every frame.
//
// The component owns a blend graph of four stages: the base layer source, a mixer with the base in slot 0 and
// the overlay clip (if any) in slot 1, a curve sampler stage fed by the mixer, and the output. At most one
// overlay exists; playing a new clip replaces the current one immediately.
//
// All methods must be called from a single goroutine, normally the host's tick goroutine.
type OneOffAnimation interface {
	// Evaluate advances the graph by deltaTime and produces one output frame. Call exactly once per host frame.
	// Clip times advance first, then crossfade weights are computed from the advanced time (an overlay that
	// has reached its end is removed here), then poses are pulled through the mixer and sampler.
	// A negative deltaTime is treated as zero.
	//
	// Parameters:
	//   - deltaTime: the elapsed time in seconds
	//
	// Returns:
	//   - error: ErrUseAfterTeardown after Teardown
	Evaluate(deltaTime float32) error

	// Play starts clip as the overlay at normalized time 0. An overlay already playing is destroyed without
	// fading out. The new overlay contributes no weight until the next Evaluate.
	//
	// Parameters:
	//   - clip: the clip to play
	//
	// Returns:
	//   - error: ErrInvalidClip for a nil clip or a non-positive duration, leaving all state untouched,
	//     or ErrUseAfterTeardown after Teardown
	Play(clip *model.AnimationClip) error

	// Teardown releases the mixer, the sampler stage, the sample buffer, the binding table, the active overlay
	// and finally the rest of the graph. Calling Teardown more than once is a no-op.
	Teardown()

	// TornDown reports whether Teardown has been called.
	//
	// Returns:
	//   - bool: true after Teardown
	TornDown() bool

	// SampleBuffer returns the read-only buffer of sampled property values, index-aligned with PropertyNames.
	// Returns nil after Teardown.
	//
	// Returns:
	//   - *curve.SampleBuffer: the sample buffer
	SampleBuffer() *curve.SampleBuffer

	// PropertyNames returns the exposed property names in buffer order, or nil after Teardown.
	//
	// Returns:
	//   - []string: the property names
	PropertyNames() []string

	// Weights returns the mixer weights applied on the last Evaluate.
	//
	// Returns:
	//   - BlendWeights: the current weights, zero after Teardown
	Weights() BlendWeights

	// State returns the crossfade controller state.
	//
	// Returns:
	//   - State: Idle or Blending
	State() State

	// Overlay describes the active overlay.
	//
	// Returns:
	//   - OverlayInfo: the overlay description
	//   - bool: false when no overlay is active
	Overlay() (OverlayInfo, bool)

	// Graph returns the underlying blend graph, or nil after Teardown.
	//
	// Returns:
	//   - playable.Graph: the graph
	Graph() playable.Graph

	// Mixer returns the handle of the blend mixer node.
	//
	// Returns:
	//   - playable.NodeHandle: the mixer node
	Mixer() playable.NodeHandle

	// Name returns the component name.
	//
	// Returns:
	//   - string: the name
	Name() string
}

var _ OneOffAnimation = &oneOffAnimation{}

// Initialize builds the blend graph for avatar over the base layer and binds the requested property names.
// If base implements playable.OutputDetacher its own output is detached so it only feeds the mixer.
//
// Parameters:
//   - avatar: the avatar the graph is evaluated for; must have a skeleton root
//   - base: the continuously running base layer
//   - propertyNames: the properties sampled every frame, in buffer order
//   - options: variadic list of OneOffBuilderOption functions
//
// Returns:
//   - OneOffAnimation: the initialized component
//   - error: ErrInitialization wrapping the cause
func Initialize(avatar *model.Avatar, base playable.PoseSource, propertyNames []string, options ...OneOffBuilderOption) (OneOffAnimation, error) {
	o := &oneOffAnimation{
		name:    "OneOff",
		avatar:  avatar,
		fadeIn:  DefaultFade,
		fadeOut: DefaultFade,
		weights: BlendWeights{Base: 1},
	}
	for _, opt := range options {
		opt(o)
	}

	switch {
	case !avatar.HasSkeletonRoot():
		return nil, fmt.Errorf("%w: avatar has no skeleton root", ErrInitialization)
	case base == nil:
		return nil, fmt.Errorf("%w: no base layer", ErrInitialization)
	case len(propertyNames) == 0:
		return nil, fmt.Errorf("%w: no property names", ErrInitialization)
	case !validFade(o.fadeIn):
		return nil, fmt.Errorf("%w: fade-in %v outside (0, 1]", ErrInitialization, o.fadeIn)
	case !validFade(o.fadeOut):
		return nil, fmt.Errorf("%w: fade-out %v outside (0, 1]", ErrInitialization, o.fadeOut)
	}

	table, err := curve.Bind(avatar, propertyNames)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	o.table = table
	o.buffer = curve.NewSampleBuffer(table.Len())

	if err := o.buildGraph(base); err != nil {
		o.release()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	if o.logging {
		log.Printf("[OneOff] %s initialized: %d properties, fade in %.2f, fade out %.2f", o.graph.Name(), table.Len(), o.fadeIn, o.fadeOut)
	}
	return o, nil
}

// buildGraph wires base -> mixer slot 0 -> sampler -> output.
func (o *oneOffAnimation) buildGraph(base playable.PoseSource) error {
	o.graph = playable.NewGraph(o.avatar, playable.WithGraphName(o.name+" - Graph"))

	var err error
	if o.base, err = o.graph.CreateSourceNode(base); err != nil {
		return err
	}
	if o.mixer, err = o.graph.CreateMixerNode(1); err != nil {
		return err
	}
	if err = o.graph.Connect(o.mixer, 0, o.base, 1); err != nil {
		return err
	}

	var jobOpts []curve.ReadCurveJobBuilderOption
	if o.pool != nil {
		jobOpts = append(jobOpts, curve.WithWorkerPool(o.pool, o.batchSize))
	}
	job := curve.NewReadCurveJob(o.table, o.buffer, jobOpts...)
	if o.sampler, err = o.graph.CreateScriptNode(job); err != nil {
		return err
	}
	if err = o.graph.Connect(o.sampler, 0, o.mixer, 1); err != nil {
		return err
	}

	_ = o.graph.SetNodeName(o.base, "Base Layer")
	_ = o.graph.SetNodeName(o.mixer, "Mixer")
	_ = o.graph.SetNodeName(o.sampler, "Read Curves")

	return o.graph.SetOutput(o.sampler, o.sink)
}

func (o *oneOffAnimation) Evaluate(deltaTime float32) error {
	if o.tornDown {
		return ErrUseAfterTeardown
	}
	if deltaTime < 0 {
		deltaTime = 0
	}
	start := time.Now()

	if err := o.graph.PrepareFrame(deltaTime); err != nil {
		return err
	}
	if err := o.updateCrossfade(); err != nil {
		return err
	}
	if err := o.graph.ProcessFrame(); err != nil {
		return err
	}

	o.metrics.FrameEvaluated(time.Since(start))
	o.metrics.SetOverlayWeight(o.weights.Overlay)
	return nil
}

// updateCrossfade derives the mixer weights from the overlay's advanced time, removing the overlay once it ends.
func (o *oneOffAnimation) updateCrossfade() error {
	if o.overlay == nil {
		o.weights = BlendWeights{Base: 1}
		return o.graph.SetInputWeight(o.mixer, 0, 1)
	}

	normalized := o.graph.Time(o.overlay.node) / o.overlay.duration
	if normalized >= 1 || o.graph.IsDone(o.overlay.node) {
		return o.completeOverlay()
	}

	w := FadeWeight(float32(normalized), o.fadeIn, o.fadeOut)
	o.weights = BlendWeights{Base: 1 - w, Overlay: w, HasOverlay: true}
	if err := o.graph.SetInputWeight(o.mixer, 0, o.weights.Base); err != nil {
		return err
	}
	return o.graph.SetInputWeight(o.mixer, 1, o.weights.Overlay)
}

// completeOverlay removes a finished overlay and returns the mixer to a single base input.
func (o *oneOffAnimation) completeOverlay() error {
	clipName := o.overlay.clip.Name
	if err := o.graph.Disconnect(o.mixer, 1); err != nil {
		return err
	}
	if err := o.graph.SetInputCount(o.mixer, 1); err != nil {
		return err
	}
	if err := o.graph.Destroy(o.overlay.node); err != nil {
		return err
	}
	o.overlay = nil
	o.state = Idle
	o.weights = BlendWeights{Base: 1}

	o.metrics.OverlayCompleted()
	if o.logging {
		log.Printf("[OneOff] %s: overlay %q completed", o.name, clipName)
	}
	return o.graph.SetInputWeight(o.mixer, 0, 1)
}

func (o *oneOffAnimation) Play(clip *model.AnimationClip) error {
	if o.tornDown {
		return ErrUseAfterTeardown
	}
	if clip == nil {
		o.metrics.PlayRejected()
		return fmt.Errorf("%w: nil clip", ErrInvalidClip)
	}
	if clip.Duration <= 0 {
		o.metrics.PlayRejected()
		return fmt.Errorf("%w: clip %q has duration %v", ErrInvalidClip, clip.Name, clip.Duration)
	}

	if o.overlay != nil {
		prev := o.overlay.clip.Name
		if err := o.graph.Disconnect(o.mixer, 1); err != nil {
			return err
		}
		if err := o.graph.Destroy(o.overlay.node); err != nil {
			return err
		}
		o.overlay = nil
		o.metrics.OverlayPreempted()
		if o.logging {
			log.Printf("[OneOff] %s: overlay %q preempted by %q", o.name, prev, clip.Name)
		}
	}

	node, err := o.graph.CreateClipNode(clip)
	if err != nil {
		return err
	}
	if err := o.graph.SetDuration(node, float64(clip.Duration)); err != nil {
		return err
	}
	if err := o.graph.SetInputCount(o.mixer, 2); err != nil {
		return err
	}
	if err := o.graph.Connect(o.mixer, 1, node, 0); err != nil {
		return err
	}
	_ = o.graph.SetNodeName(node, clip.Name)

	o.overlay = &overlayClip{clip: clip, duration: float64(clip.Duration), node: node}
	o.state = Blending
	o.weights = BlendWeights{Base: 1, HasOverlay: true}

	o.metrics.OverlayStarted()
	if o.logging {
		log.Printf("[OneOff] %s: overlay %q started (%.2fs)", o.name, clip.Name, clip.Duration)
	}
	return nil
}

func (o *oneOffAnimation) Teardown() {
	if o.tornDown {
		return
	}
	o.release()
	o.tornDown = true
	o.metrics.SetOverlayWeight(0)

	if o.logging {
		log.Printf("[OneOff] %s torn down", o.name)
	}
}

// release frees the component's resources in ownership order. Safe on a partially built component.
func (o *oneOffAnimation) release() {
	if o.graph != nil {
		_ = o.graph.Destroy(o.mixer)
		_ = o.graph.Destroy(o.sampler)
	}
	o.buffer.Release()
	o.table.Release()
	if o.overlay != nil {
		_ = o.graph.Destroy(o.overlay.node)
		o.overlay = nil
	}
	if o.graph != nil {
		o.graph.Release()
	}

	o.state = Idle
	o.weights = BlendWeights{}
}

func (o *oneOffAnimation) TornDown() bool {
	return o.tornDown
}

func (o *oneOffAnimation) SampleBuffer() *curve.SampleBuffer {
	if o.tornDown {
		return nil
	}
	return o.buffer
}

func (o *oneOffAnimation) PropertyNames() []string {
	if o.tornDown {
		return nil
	}
	return o.table.Names()
}

func (o *oneOffAnimation) Weights() BlendWeights {
	return o.weights
}

func (o *oneOffAnimation) State() State {
	return o.state
}

func (o *oneOffAnimation) Overlay() (OverlayInfo, bool) {
	if o.overlay == nil {
		return OverlayInfo{}, false
	}
	t := o.graph.Time(o.overlay.node)
	return OverlayInfo{
		ClipName:       o.overlay.clip.Name,
		Time:           float32(t),
		Duration:       float32(o.overlay.duration),
		NormalizedTime: float32(t / o.overlay.duration),
		Node:           o.overlay.node,
	}, true
}

func (o *oneOffAnimation) Graph() playable.Graph {
	if o.tornDown {
		return nil
	}
	return o.graph
}

func (o *oneOffAnimation) Mixer() playable.NodeHandle {
	if o.tornDown {
		return playable.NodeHandle{}
	}
	return o.mixer
}

func (o *oneOffAnimation) Name() string {
	return o.name
}
