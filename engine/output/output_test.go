package output

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/curve"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

type recordedWrite struct {
	buf    *wgpu.Buffer
	offset uint64
	data   []byte
}

type fakeQueue struct {
	writes []recordedWrite
}

func (q *fakeQueue) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	q.writes = append(q.writes, recordedWrite{buf: buf, offset: offset, data: append([]byte(nil), data...)})
}

func f32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func testAvatar(t *testing.T) *model.Avatar {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "Root", ParentIndex: -1, LocalTransform: model.IdentityTransform()},
		{Name: "Arm", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	av, err := model.NewAvatar(skel, model.WithCurve("Grip", 0))
	if err != nil {
		t.Fatalf("NewAvatar: %v", err)
	}
	return av
}

func TestGPUPoseBoneMarshal(t *testing.T) {
	b := NewGPUPoseBone(model.Transform{
		Translation: [3]float32{1, 2, 3},
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{4, 5, 6},
	})
	if b.Size() != GPUPoseBoneSize {
		t.Fatalf("Size = %d, want %d", b.Size(), GPUPoseBoneSize)
	}

	raw := b.Marshal()
	want := []float32{1, 2, 3, 0, 0, 0, 0, 1, 4, 5, 6, 0}
	for i, w := range want {
		if got := f32At(raw, i); got != w {
			t.Errorf("word %d = %v, want %v", i, got, w)
		}
	}
}

func TestGPUPoseSinkStaging(t *testing.T) {
	av := testAvatar(t)
	provider := NewBufferProvider("pose")
	table, err := curve.Bind(av, []string{"Grip", "Arm.translation.x"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	samples := curve.NewSampleBuffer(table.Len())

	sink := NewGPUPoseSink(provider, WithBindings(2, 3), WithSampleBuffer(samples))
	pose := animation.NewPose(av)
	pose.Curves[0] = 0.75
	pose.Bones[1].Translation = [3]float32{9, 0, 0}
	curve.NewReadCurveJob(table, samples).ProcessAnimation(pose)

	sink.WritePose(pose)
	writes := sink.StagedWriteData()

	if len(writes) != 2 {
		t.Fatalf("staged %d writes, want 2", len(writes))
	}
	if writes[0].Binding != 2 || len(writes[0].Data) != 2*GPUPoseBoneSize {
		t.Errorf("pose write binding %d, %d bytes", writes[0].Binding, len(writes[0].Data))
	}
	if got := f32At(writes[0].Data[GPUPoseBoneSize:], 0); got != 9 {
		t.Errorf("Arm translation x = %v, want 9", got)
	}
	if writes[1].Binding != 3 || len(writes[1].Data) != 8 {
		t.Errorf("curve write binding %d, %d bytes", writes[1].Binding, len(writes[1].Data))
	}
	if got := math.Float32frombits(binary.NativeEndian.Uint32(writes[1].Data[0:4])); got != 0.75 {
		t.Errorf("Grip = %v, want 0.75", got)
	}
	if writes[0].Provider != provider {
		t.Error("write does not target the sink's provider")
	}

	if len(sink.StagedWriteData()) != 0 {
		t.Error("StagedWriteData did not clear the staged list")
	}
	if sink.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", sink.Frames())
	}
}

func TestGPUPoseSinkUndrainedFrames(t *testing.T) {
	av := testAvatar(t)
	table, err := curve.Bind(av, []string{"Grip"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	samples := curve.NewSampleBuffer(table.Len())
	job := curve.NewReadCurveJob(table, samples)
	sink := NewGPUPoseSink(NewBufferProvider("pose"), WithSampleBuffer(samples))

	pose := animation.NewPose(av)
	for _, x := range []float32{1, 2} {
		pose.Bones[1].Translation = [3]float32{x, 0, 0}
		pose.Curves[0] = x / 4
		job.ProcessAnimation(pose)
		sink.WritePose(pose)
	}

	writes := sink.StagedWriteData()
	if len(writes) != 2 {
		t.Fatalf("staged %d writes after two undrained frames, want 2", len(writes))
	}
	if writes[0].Binding != DefaultPoseBinding || writes[1].Binding != DefaultCurveBinding {
		t.Errorf("bindings = %d, %d", writes[0].Binding, writes[1].Binding)
	}
	if got := f32At(writes[0].Data[GPUPoseBoneSize:], 0); got != 2 {
		t.Errorf("Arm translation x = %v, want latest frame 2", got)
	}
	if got := math.Float32frombits(binary.NativeEndian.Uint32(writes[1].Data)); got != 0.5 {
		t.Errorf("Grip = %v, want latest frame 0.5", got)
	}
	if sink.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", sink.Frames())
	}
}

func TestGPUPoseSinkWithoutSamples(t *testing.T) {
	av := testAvatar(t)
	sink := NewGPUPoseSink(NewBufferProvider("pose"))
	sink.WritePose(animation.NewPose(av))

	writes := sink.StagedWriteData()
	if len(writes) != 1 || writes[0].Binding != DefaultPoseBinding {
		t.Errorf("writes = %+v, want a single pose write", writes)
	}
}

func TestFlush(t *testing.T) {
	poseBuf := new(wgpu.Buffer)
	provider := NewBufferProvider("pose", WithBuffer(0, poseBuf))
	q := &fakeQueue{}

	writes := []BufferWrite{
		{Provider: provider, Binding: 0, Offset: 16, Data: []byte{1, 2}},
		{Provider: provider, Binding: 1, Data: []byte{3}},
		{Provider: nil, Binding: 0, Data: []byte{4}},
	}

	if n := Flush(q, writes); n != 1 {
		t.Fatalf("Flush uploaded %d, want 1", n)
	}
	if len(q.writes) != 1 || q.writes[0].buf != poseBuf || q.writes[0].offset != 16 {
		t.Errorf("queue writes = %+v", q.writes)
	}
	if provider.Label() != "pose" || len(provider.Buffers()) != 1 {
		t.Errorf("provider label %q with %d buffers", provider.Label(), len(provider.Buffers()))
	}
}
