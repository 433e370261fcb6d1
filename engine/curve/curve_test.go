package curve

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

func testAvatar(t *testing.T) *model.Avatar {
	t.Helper()
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "Hips", ParentIndex: -1, LocalTransform: model.IdentityTransform()},
		{Name: "Hand.L", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	av, err := model.NewAvatar(skel, model.WithCurve("FootHeight", 0), model.WithCurve("Grip", 0))
	if err != nil {
		t.Fatalf("NewAvatar: %v", err)
	}
	return av
}

func TestBindResolves(t *testing.T) {
	av := testAvatar(t)
	names := []string{"Grip", "Hand.L.translation.y", "Hips.rotation.w", "Hips.scale.x", "FootHeight", "Grip"}

	table, err := Bind(av, names)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if table.Len() != len(names) {
		t.Fatalf("Len = %d, want %d", table.Len(), len(names))
	}

	wantKinds := []PropertyKind{PropertyCurve, PropertyTranslation, PropertyRotation, PropertyScale, PropertyCurve, PropertyCurve}
	for i, name := range names {
		h, ok := table.Handle(i)
		if !ok {
			t.Fatalf("Handle(%d) missing", i)
		}
		if h.Name() != name || h.Kind() != wantKinds[i] {
			t.Errorf("Handle(%d) = %q kind %d, want %q kind %d", i, h.Name(), h.Kind(), name, wantKinds[i])
		}
	}
	if got := table.Names(); fmt.Sprint(got) != fmt.Sprint(names) {
		t.Errorf("Names = %v, want %v", got, names)
	}
}

func TestBindRejects(t *testing.T) {
	av := testAvatar(t)

	if _, err := Bind(av, nil); !errors.Is(err, ErrNoProperties) {
		t.Errorf("Bind(nil) error = %v, want ErrNoProperties", err)
	}

	tests := []string{
		"Missing",
		"Tail.translation.x",
		"Hips.position.x",
		"Hips.translation.w",
		"Hips.scale.q",
		".rotation.x",
		"Hips.x",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Bind(av, []string{"Grip", name})
			if !errors.Is(err, ErrUnknownProperty) {
				t.Errorf("Bind(%q) error = %v, want ErrUnknownProperty", name, err)
			}
		})
	}
}

func TestSampleAlignment(t *testing.T) {
	av := testAvatar(t)
	table, err := Bind(av, []string{"Grip", "Hand.L.translation.z", "FootHeight"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	pose := animation.NewPose(av)
	pose.Curves[0] = 0.3
	pose.Curves[1] = 0.9
	pose.Bones[1].Translation[2] = -2

	dst := make([]float32, 3)
	Sample(table, pose, dst)

	want := []float32{0.9, -2, 0.3}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestReadCurveJob(t *testing.T) {
	av := testAvatar(t)
	table, _ := Bind(av, []string{"FootHeight", "Grip"})
	buf := NewSampleBuffer(table.Len())
	job := NewReadCurveJob(table, buf)

	pose := animation.NewPose(av)
	pose.Curves[0], pose.Curves[1] = 1, 2
	job.ProcessAnimation(pose)

	if pose.Curves[0] != 1 || pose.Curves[1] != 2 {
		t.Error("job modified the pose")
	}
	out := make([]float32, 2)
	if n := buf.CopyTo(out); n != 2 || out[0] != 1 || out[1] != 2 {
		t.Errorf("CopyTo = %d %v, want 2 [1 2]", n, out)
	}
	if buf.At(5) != 0 || buf.At(-1) != 0 {
		t.Error("out of range At should return 0")
	}
}

func TestReadCurveJobParallel(t *testing.T) {
	av := testAvatar(t)
	names := make([]string, 0, 40)
	for i := 0; i < 20; i++ {
		names = append(names, "FootHeight", "Grip")
	}
	table, err := Bind(av, names)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	buf := NewSampleBuffer(table.Len())

	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	defer pool.Stop()
	job := NewReadCurveJob(table, buf, WithWorkerPool(pool, 3))

	pose := animation.NewPose(av)
	for frame := 1; frame <= 5; frame++ {
		pose.Curves[0], pose.Curves[1] = float32(frame), float32(-frame)
		job.ProcessAnimation(pose)

		for i := 0; i < buf.Len(); i++ {
			want := float32(frame)
			if i%2 == 1 {
				want = -want
			}
			if buf.At(i) != want {
				t.Fatalf("frame %d: entry %d = %v, want %v", frame, i, buf.At(i), want)
			}
		}
	}
}

func TestRelease(t *testing.T) {
	av := testAvatar(t)
	table, _ := Bind(av, []string{"Grip"})
	buf := NewSampleBuffer(1)
	job := NewReadCurveJob(table, buf)

	table.Release()
	table.Release()
	buf.Release()
	buf.Release()

	if !table.Released() || !buf.Released() {
		t.Fatal("Released = false after Release")
	}
	if table.Len() != 0 || buf.Len() != 0 {
		t.Errorf("Len after release = %d, %d; want 0, 0", table.Len(), buf.Len())
	}
	if _, ok := table.Handle(0); ok {
		t.Error("Handle resolved after release")
	}

	job.ProcessAnimation(animation.NewPose(av))
}
