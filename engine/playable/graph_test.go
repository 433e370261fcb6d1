package playable

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

func testAvatar(t *testing.T) *model.Avatar {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "Root", ParentIndex: -1, LocalTransform: model.IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	av, err := model.NewAvatar(skel, model.WithCurve("Value", 0))
	if err != nil {
		t.Fatalf("NewAvatar: %v", err)
	}
	return av
}

// constClip holds the "Value" curve at v for duration seconds.
func constClip(name string, v, duration float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Curves: []model.CurveChannel{{
			Name: "Value",
			Keys: []model.ScalarKeyframe{{Time: 0, Value: v}},
		}},
	}
}

type fakeSource struct {
	value    float32
	advanced float32
	detached bool
}

func (s *fakeSource) Advance(dt float32) { s.advanced += dt }

func (s *fakeSource) Sample(p *animation.Pose) { p.Curves[0] = s.value }

func (s *fakeSource) DetachOutput() { s.detached = true }

type recordJob struct {
	seen []float32
}

func (j *recordJob) ProcessAnimation(p *animation.Pose) {
	j.seen = append(j.seen, p.Curves[0])
}

func TestHandleGeneration(t *testing.T) {
	g := NewGraph(testAvatar(t))

	h1, err := g.CreateClipNode(constClip("a", 1, 1))
	if err != nil {
		t.Fatalf("CreateClipNode: %v", err)
	}
	if err := g.Destroy(h1); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	h2, err := g.CreateClipNode(constClip("b", 1, 1))
	if err != nil {
		t.Fatalf("CreateClipNode: %v", err)
	}

	if h1.index != h2.index {
		t.Fatalf("slot not reused: %v then %v", h1, h2)
	}
	if g.IsValid(h1) {
		t.Error("stale handle reported valid after slot reuse")
	}
	if err := g.SetTime(h1, 1); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("SetTime(stale) error = %v, want ErrInvalidHandle", err)
	}
	if err := g.Destroy(h1); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Destroy(stale) error = %v, want ErrInvalidHandle", err)
	}
	if !g.IsValid(h2) || g.NodeCount() != 1 {
		t.Errorf("IsValid(h2) = %v, NodeCount = %d; want true, 1", g.IsValid(h2), g.NodeCount())
	}
	if g.IsValid(NodeHandle{}) {
		t.Error("zero handle reported valid")
	}
}

func TestCreateRejects(t *testing.T) {
	g := NewGraph(testAvatar(t))

	if _, err := g.CreateClipNode(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("CreateClipNode(nil) error = %v", err)
	}
	if _, err := g.CreateScriptNode(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("CreateScriptNode(nil) error = %v", err)
	}
	if _, err := g.CreateSourceNode(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("CreateSourceNode(nil) error = %v", err)
	}
	for _, n := range []int{0, 3} {
		if _, err := g.CreateMixerNode(n); !errors.Is(err, ErrInputCount) {
			t.Errorf("CreateMixerNode(%d) error = %v, want ErrInputCount", n, err)
		}
	}
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount = %d after rejected creates, want 0", g.NodeCount())
	}
}

func TestConnectAndSlots(t *testing.T) {
	g := NewGraph(testAvatar(t))
	mixer, _ := g.CreateMixerNode(1)
	a, _ := g.CreateClipNode(constClip("a", 1, 1))
	b, _ := g.CreateClipNode(constClip("b", 2, 1))

	if err := g.Connect(mixer, 0, a, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect(mixer, 0, b, 1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Connect occupied slot error = %v, want ErrInvalidSlot", err)
	}
	if err := g.Connect(mixer, 1, b, 0); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Connect past input count error = %v, want ErrInvalidSlot", err)
	}

	if err := g.SetInputCount(mixer, 2); err != nil {
		t.Fatalf("SetInputCount: %v", err)
	}
	if err := g.Connect(mixer, 1, b, 0.25); err != nil {
		t.Fatalf("Connect slot 1: %v", err)
	}
	if w := g.InputWeight(mixer, 1); w != 0.25 {
		t.Errorf("InputWeight(1) = %v, want 0.25", w)
	}
	if src, ok, err := g.Input(mixer, 1); err != nil || !ok || src != b {
		t.Errorf("Input(1) = %v, %v, %v; want %v, true, nil", src, ok, err, b)
	}

	if err := g.SetInputCount(mixer, 1); err != nil {
		t.Fatalf("SetInputCount shrink: %v", err)
	}
	if err := g.SetInputCount(mixer, 2); err != nil {
		t.Fatalf("SetInputCount grow: %v", err)
	}
	if _, ok, _ := g.Input(mixer, 1); ok {
		t.Error("slot dropped by shrinking is still connected")
	}
	if err := g.SetInputCount(a, 2); !errors.Is(err, ErrInputCount) {
		t.Errorf("SetInputCount on clip error = %v, want ErrInputCount", err)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	g := NewGraph(testAvatar(t))
	m1, _ := g.CreateMixerNode(1)
	m2, _ := g.CreateMixerNode(1)

	if err := g.Connect(m1, 0, m1, 1); !errors.Is(err, ErrCycle) {
		t.Errorf("self connect error = %v, want ErrCycle", err)
	}
	if err := g.Connect(m1, 0, m2, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect(m2, 0, m1, 1); !errors.Is(err, ErrCycle) {
		t.Errorf("back edge error = %v, want ErrCycle", err)
	}
}

func TestDestroyDisconnects(t *testing.T) {
	g := NewGraph(testAvatar(t))
	mixer, _ := g.CreateMixerNode(2)
	a, _ := g.CreateClipNode(constClip("a", 1, 1))
	_ = g.Connect(mixer, 1, a, 1)
	_ = g.SetOutput(a, nil)

	if err := g.Destroy(a); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, ok, _ := g.Input(mixer, 1); ok {
		t.Error("mixer slot still connected to destroyed node")
	}
	if !g.Output().IsZero() {
		t.Error("output still set to destroyed node")
	}
}

func TestEvaluateMixesInputs(t *testing.T) {
	g := NewGraph(testAvatar(t), WithGraphName("Test - Graph"))
	src := &fakeSource{value: 10}
	base, err := g.CreateSourceNode(src)
	if err != nil {
		t.Fatalf("CreateSourceNode: %v", err)
	}
	if !src.detached {
		t.Error("source output was not detached")
	}
	overlay, _ := g.CreateClipNode(constClip("overlay", 20, 2))
	mixer, _ := g.CreateMixerNode(2)
	job := &recordJob{}
	script, _ := g.CreateScriptNode(job)

	_ = g.Connect(mixer, 0, base, 0.75)
	_ = g.Connect(mixer, 1, overlay, 0.25)
	_ = g.Connect(script, 0, mixer, 1)

	var out []float32
	if err := g.SetOutput(script, PoseSinkFunc(func(p *animation.Pose) {
		out = append(out, p.Curves[0])
	})); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	if err := g.Evaluate(0.5); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if g.Name() != "Test - Graph" {
		t.Errorf("Name = %q", g.Name())
	}
	if len(out) != 1 || !common.NearlyEqual(out[0], 12.5) {
		t.Errorf("sink saw %v, want [12.5]", out)
	}
	if len(job.seen) != 1 || !common.NearlyEqual(job.seen[0], 12.5) {
		t.Errorf("job saw %v, want [12.5]", job.seen)
	}
	if src.advanced != 0.5 {
		t.Errorf("source advanced %v, want 0.5", src.advanced)
	}
	if g.Time(overlay) != 0.5 {
		t.Errorf("overlay time = %v, want 0.5", g.Time(overlay))
	}
	if p := g.OutputPose(); p == nil || !common.NearlyEqual(p.Curves[0], 12.5) {
		t.Errorf("OutputPose = %v", p)
	}
}

func TestSingleInputIgnoresWeight(t *testing.T) {
	g := NewGraph(testAvatar(t))
	a, _ := g.CreateClipNode(constClip("a", 4, 1))
	mixer, _ := g.CreateMixerNode(1)
	_ = g.Connect(mixer, 0, a, 0.1)
	_ = g.SetOutput(mixer, nil)

	_ = g.Evaluate(0)
	if v := g.OutputPose().Curves[0]; v != 4 {
		t.Errorf("single input output = %v, want 4", v)
	}
}

func TestUnreachableNodesDoNotAdvance(t *testing.T) {
	g := NewGraph(testAvatar(t))
	a, _ := g.CreateClipNode(constClip("a", 1, 1))
	b, _ := g.CreateClipNode(constClip("b", 1, 1))
	_ = g.SetOutput(a, nil)

	_ = g.Evaluate(0.25)
	if g.Time(a) != 0.25 || g.Time(b) != 0 {
		t.Errorf("times = %v, %v; want 0.25, 0", g.Time(a), g.Time(b))
	}
}

func TestIsDone(t *testing.T) {
	g := NewGraph(testAvatar(t))
	a, _ := g.CreateClipNode(constClip("a", 1, 1))
	_ = g.SetOutput(a, nil)

	if g.Duration(a) != 1 {
		t.Errorf("Duration = %v, want clip duration 1", g.Duration(a))
	}
	_ = g.Evaluate(0.5)
	if g.IsDone(a) {
		t.Error("done at half duration")
	}
	_ = g.Evaluate(0.5)
	if !g.IsDone(a) {
		t.Error("not done at full duration")
	}

	_ = g.SetDuration(a, 3)
	if g.IsDone(a) {
		t.Error("done after duration was extended")
	}
}

func TestRelease(t *testing.T) {
	g := NewGraph(testAvatar(t))
	a, _ := g.CreateClipNode(constClip("a", 1, 1))

	g.Release()
	g.Release()

	if !g.Released() {
		t.Fatal("Released = false")
	}
	if g.IsValid(a) {
		t.Error("handle valid after release")
	}
	if err := g.Evaluate(0.1); !errors.Is(err, ErrReleased) {
		t.Errorf("Evaluate after release error = %v, want ErrReleased", err)
	}
	if _, err := g.CreateMixerNode(1); !errors.Is(err, ErrReleased) {
		t.Errorf("CreateMixerNode after release error = %v, want ErrReleased", err)
	}
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount after release = %d", g.NodeCount())
	}
}
