package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

func testAvatar(t *testing.T) *model.Avatar {
	t.Helper()
	rest := model.IdentityTransform()
	rest.Translation = [3]float32{0, 1, 0}
	skel, err := model.NewSkeleton([]model.Bone{
		{Name: "Hips", ParentIndex: -1, LocalTransform: rest},
		{Name: "Hand", ParentIndex: 0, LocalTransform: model.IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	av, err := model.NewAvatar(skel, model.WithCurve("FootHeight", 0), model.WithCurve("Grip", 0.25))
	if err != nil {
		t.Fatalf("NewAvatar: %v", err)
	}
	return av
}

func near3(a, b [3]float32) bool {
	return common.NearlyEqual(a[0], b[0]) && common.NearlyEqual(a[1], b[1]) && common.NearlyEqual(a[2], b[2])
}

func TestNewPoseRestValues(t *testing.T) {
	av := testAvatar(t)
	p := NewPose(av)

	if len(p.Bones) != 2 || len(p.Curves) != 2 {
		t.Fatalf("pose sized %d bones, %d curves; want 2, 2", len(p.Bones), len(p.Curves))
	}
	if p.Bones[0].Translation != [3]float32{0, 1, 0} {
		t.Errorf("Hips translation = %v, want bind value", p.Bones[0].Translation)
	}
	if p.Curves[1] != 0.25 {
		t.Errorf("Grip = %v, want default 0.25", p.Curves[1])
	}

	p.Curves[1] = 9
	p.Bones[0].Translation = [3]float32{}
	p.ResetTo(av)
	if p.Curves[1] != 0.25 || p.Bones[0].Translation[1] != 1 {
		t.Error("ResetTo did not restore rest values")
	}
}

func TestBlendSingleInputPassesThrough(t *testing.T) {
	av := testAvatar(t)
	src := NewPose(av)
	src.Curves[0] = 3
	dst := NewPose(av)

	Blend(dst, av, []WeightedPose{{Pose: src, Weight: 0.2}})

	if dst.Curves[0] != 3 {
		t.Errorf("single input blend = %v, want 3 regardless of weight", dst.Curves[0])
	}
}

func TestBlendZeroWeightRestPose(t *testing.T) {
	av := testAvatar(t)
	a, b := NewPose(av), NewPose(av)
	a.Curves[1], b.Curves[1] = 5, 7
	dst := NewPose(av)
	dst.Curves[1] = 100

	Blend(dst, av, []WeightedPose{{Pose: a, Weight: 0}, {Pose: b, Weight: -1}})

	if dst.Curves[1] != 0.25 {
		t.Errorf("zero weight blend Grip = %v, want rest 0.25", dst.Curves[1])
	}
}

func TestBlendWeighted(t *testing.T) {
	av := testAvatar(t)
	a, b := NewPose(av), NewPose(av)
	a.Curves[0], b.Curves[0] = 0, 1
	a.Bones[1].Translation = [3]float32{0, 0, 0}
	b.Bones[1].Translation = [3]float32{2, 4, 6}
	b.Bones[1].Scale = [3]float32{3, 3, 3}
	dst := NewPose(av)

	tests := []struct {
		name   string
		wa, wb float32
		want   float32
	}{
		{"even", 0.5, 0.5, 0.5},
		{"quarter", 0.75, 0.25, 0.25},
		{"unnormalized", 2, 2, 0.5},
		{"overlay only", 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Blend(dst, av, []WeightedPose{{Pose: a, Weight: tt.wa}, {Pose: b, Weight: tt.wb}})
			if !common.NearlyEqual(dst.Curves[0], tt.want) {
				t.Errorf("FootHeight = %v, want %v", dst.Curves[0], tt.want)
			}
			wantT := [3]float32{2 * tt.want, 4 * tt.want, 6 * tt.want}
			if !near3(dst.Bones[1].Translation, wantT) {
				t.Errorf("Hand translation = %v, want %v", dst.Bones[1].Translation, wantT)
			}
			s := 1 + 2*tt.want
			if !near3(dst.Bones[1].Scale, [3]float32{s, s, s}) {
				t.Errorf("Hand scale = %v, want %v", dst.Bones[1].Scale, s)
			}
		})
	}
}

func TestBlendRotationHemisphere(t *testing.T) {
	av := testAvatar(t)
	a, b := NewPose(av), NewPose(av)
	a.Bones[0].Rotation = [4]float32{0, 0, 0, 1}
	b.Bones[0].Rotation = [4]float32{0, 0, 0, -1}
	dst := NewPose(av)

	Blend(dst, av, []WeightedPose{{Pose: a, Weight: 0.5}, {Pose: b, Weight: 0.5}})

	r := dst.Bones[0].Rotation
	if !common.NearlyEqual(common.QuatDot(r, r), 1) || !common.NearlyEqual(r[3], 1) {
		t.Errorf("opposite-sign identity blend = %v, want identity", r)
	}
}

func TestClipSampler(t *testing.T) {
	av := testAvatar(t)
	clip := &model.AnimationClip{
		Name:     "Wave",
		Duration: 2,
		Channels: []model.AnimationChannel{{
			BoneIndex: 1,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{2, 0, 0}},
				{Time: 2, Value: [3]float32{2, 2, 0}},
			},
		}, {
			BoneIndex:    7,
			PositionKeys: []model.VectorKeyframe{{Time: 0, Value: [3]float32{9, 9, 9}}},
		}},
		Curves: []model.CurveChannel{
			{Name: "FootHeight", Keys: []model.ScalarKeyframe{{Time: 0.5, Value: 0}, {Time: 1.5, Value: 1}}},
			{Name: "NotOnAvatar", Keys: []model.ScalarKeyframe{{Time: 0, Value: 4}}},
		},
	}
	s := NewClipSampler(clip, av)
	pose := NewPose(av)

	tests := []struct {
		name  string
		t     float32
		wantT [3]float32
		wantF float32
	}{
		{"before first key", -1, [3]float32{0, 0, 0}, 0},
		{"mid first segment", 0.5, [3]float32{1, 0, 0}, 0},
		{"exact key", 1, [3]float32{2, 0, 0}, 0.5},
		{"mid second segment", 1.5, [3]float32{2, 1, 0}, 1},
		{"after last key", 5, [3]float32{2, 2, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Sample(tt.t, pose)
			if !near3(pose.Bones[1].Translation, tt.wantT) {
				t.Errorf("Hand translation = %v, want %v", pose.Bones[1].Translation, tt.wantT)
			}
			if !common.NearlyEqual(pose.Curves[0], tt.wantF) {
				t.Errorf("FootHeight = %v, want %v", pose.Curves[0], tt.wantF)
			}
			if pose.Curves[1] != 0.25 {
				t.Errorf("Grip = %v, want undriven default 0.25", pose.Curves[1])
			}
			if pose.Bones[0].Translation != [3]float32{0, 1, 0} {
				t.Errorf("Hips = %v, want undriven bind value", pose.Bones[0].Translation)
			}
		})
	}
}

func TestClipSamplerRotation(t *testing.T) {
	av := testAvatar(t)
	clip := &model.AnimationClip{
		Duration: 1,
		Channels: []model.AnimationChannel{{
			BoneIndex: 0,
			RotationKeys: []model.QuaternionKeyframe{
				{Time: 0, Value: [4]float32{0, 0, 0, 1}},
				{Time: 1, Value: [4]float32{0, 1, 0, 0}},
			},
		}},
	}
	pose := NewPose(av)
	NewClipSampler(clip, av).Sample(0.5, pose)

	r := pose.Bones[0].Rotation
	if !common.NearlyEqual(r[1], r[3]) || !common.NearlyEqual(common.QuatDot(r, r), 1) {
		t.Errorf("halfway rotation = %v, want normalized with y == w", r)
	}
}
