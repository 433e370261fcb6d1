package output

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/curve"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// Default bindings of the pose and curve buffers.
const (
	DefaultPoseBinding  = 0
	DefaultCurveBinding = 1
)

// gpuPoseSink is the implementation of the GPUPoseSink interface.
type gpuPoseSink struct {
	mu *sync.Mutex

	provider                  BufferProvider
	poseBinding, curveBinding int

	samples *curve.SampleBuffer

	stagingPose   []byte
	stagingCurves []float32

	stagedWriteData []BufferWrite
	frames          uint64
}

// GPUPoseSink is a playable.PoseSink that stages GPU buffer writes for the evaluated pose and,
// optionally, the sampled curve values of a one-off animation.
//
// Each WritePose stages one write of every bone as a GPUPoseBone into the pose binding, and one write of the
// sample buffer as a float32 array into the curve binding. Staging buffers are allocated on the first frame
// and reused afterwards, so at most one write per binding is pending: a frame staged before the previous one
// was drained replaces it. The host drains the staged writes with StagedWriteData and uploads them with Flush.
type GPUPoseSink interface {
	playable.PoseSink

	// SetSampleBuffer sets the sample buffer whose values are staged with every pose.
	//
	// Parameters:
	//   - samples: the sample buffer, or nil to stage poses only
	SetSampleBuffer(samples *curve.SampleBuffer)

	// StagedWriteData returns the writes staged since the last call and clears the list.
	// The returned data aliases the staging buffers and is valid until the next WritePose.
	//
	// Returns:
	//   - []BufferWrite: the staged writes
	StagedWriteData() []BufferWrite

	// Provider returns the buffer provider the writes target.
	//
	// Returns:
	//   - BufferProvider: the target provider
	Provider() BufferProvider

	// Frames returns the number of poses staged so far.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ GPUPoseSink = &gpuPoseSink{}

// NewGPUPoseSink creates a sink staging writes against provider.
//
// Parameters:
//   - provider: the provider owning the destination buffers
//   - options: variadic list of GPUPoseSinkBuilderOption functions
//
// Returns:
//   - GPUPoseSink: the new sink
func NewGPUPoseSink(provider BufferProvider, options ...GPUPoseSinkBuilderOption) GPUPoseSink {
	s := &gpuPoseSink{
		mu:           &sync.Mutex{},
		provider:     provider,
		poseBinding:  DefaultPoseBinding,
		curveBinding: DefaultCurveBinding,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *gpuPoseSink) SetSampleBuffer(samples *curve.SampleBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = samples
}

func (s *gpuPoseSink) WritePose(pose *animation.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need := len(pose.Bones) * GPUPoseBoneSize
	if cap(s.stagingPose) < need {
		s.stagingPose = make([]byte, need)
	}
	s.stagingPose = s.stagingPose[:need]
	for i, t := range pose.Bones {
		b := NewGPUPoseBone(t)
		b.MarshalTo(s.stagingPose[i*GPUPoseBoneSize:])
	}
	s.stage(s.poseBinding, s.stagingPose)

	if n := s.samples.Len(); n > 0 {
		if cap(s.stagingCurves) < n {
			s.stagingCurves = make([]float32, n)
		}
		s.stagingCurves = s.stagingCurves[:n]
		s.samples.CopyTo(s.stagingCurves)
		s.stage(s.curveBinding, common.SliceToBytes(s.stagingCurves))
	}

	s.frames++
}

// stage queues a whole-buffer write to binding, replacing one still pending for the same binding.
func (s *gpuPoseSink) stage(binding int, data []byte) {
	w := BufferWrite{Provider: s.provider, Binding: binding, Data: data}
	for i := range s.stagedWriteData {
		if s.stagedWriteData[i].Binding == binding {
			s.stagedWriteData[i] = w
			return
		}
	}
	s.stagedWriteData = append(s.stagedWriteData, w)
}

func (s *gpuPoseSink) StagedWriteData() []BufferWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	writes := s.stagedWriteData
	s.stagedWriteData = nil
	return writes
}

func (s *gpuPoseSink) Provider() BufferProvider {
	return s.provider
}

func (s *gpuPoseSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// GPUPoseSinkBuilderOption is a functional option for configuring a GPUPoseSink during construction.
type GPUPoseSinkBuilderOption func(*gpuPoseSink)

// WithBindings is an option builder that sets the bindings of the pose and curve buffers.
//
// Parameters:
//   - poseBinding: the binding receiving bone transforms
//   - curveBinding: the binding receiving sampled curve values
//
// Returns:
//   - GPUPoseSinkBuilderOption: a function that applies the bindings option to a sink
func WithBindings(poseBinding, curveBinding int) GPUPoseSinkBuilderOption {
	return func(s *gpuPoseSink) {
		s.poseBinding = poseBinding
		s.curveBinding = curveBinding
	}
}

// WithSampleBuffer is an option builder that stages the values of samples with every pose.
//
// Parameters:
//   - samples: the sample buffer
//
// Returns:
//   - GPUPoseSinkBuilderOption: a function that applies the sample buffer option to a sink
func WithSampleBuffer(samples *curve.SampleBuffer) GPUPoseSinkBuilderOption {
	return func(s *gpuPoseSink) {
		s.samples = samples
	}
}
