package model

import (
	"errors"
	"testing"
)

func testSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	s, err := NewSkeleton([]Bone{
		{Name: "Hips", ParentIndex: -1, LocalTransform: IdentityTransform()},
		{Name: "Spine", ParentIndex: 0, LocalTransform: IdentityTransform()},
		{Name: "LeftFoot", ParentIndex: 0, LocalTransform: IdentityTransform()},
	})
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	return s
}

func TestNewSkeleton(t *testing.T) {
	s := testSkeleton(t)

	if len(s.RootBoneIndices) != 1 || s.RootBoneIndices[0] != 0 {
		t.Errorf("RootBoneIndices = %v, want [0]", s.RootBoneIndices)
	}
	if idx, ok := s.BoneIndex("LeftFoot"); !ok || idx != 2 {
		t.Errorf("BoneIndex(LeftFoot) = %d, %v; want 2, true", idx, ok)
	}
	if idx, ok := s.BoneIndex("Tail"); ok || idx != -1 {
		t.Errorf("BoneIndex(Tail) = %d, %v; want -1, false", idx, ok)
	}
}

func TestNewSkeletonRejects(t *testing.T) {
	tests := []struct {
		name  string
		bones []Bone
	}{
		{"duplicate", []Bone{{Name: "A", ParentIndex: -1}, {Name: "A", ParentIndex: 0}}},
		{"unnamed", []Bone{{Name: "", ParentIndex: -1}}},
		{"parent after child", []Bone{{Name: "A", ParentIndex: 1}, {Name: "B", ParentIndex: -1}}},
		{"self parent", []Bone{{Name: "A", ParentIndex: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSkeleton(tt.bones); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewAvatar(t *testing.T) {
	av, err := NewAvatar(testSkeleton(t),
		WithAvatarName("Hero"),
		WithCurve("FootHeight", 0),
		WithCurve("Grip", 0.5),
		WithCurve("FootHeight", 0.1),
	)
	if err != nil {
		t.Fatalf("NewAvatar: %v", err)
	}

	if av.Name != "Hero" {
		t.Errorf("Name = %q, want Hero", av.Name)
	}
	if av.CurveCount() != 2 {
		t.Fatalf("CurveCount = %d, want 2", av.CurveCount())
	}
	if av.CurveDefaults[0] != 0.1 {
		t.Errorf("FootHeight default = %v, want 0.1 after redeclare", av.CurveDefaults[0])
	}
	if idx, ok := av.CurveIndex("Grip"); !ok || idx != 1 {
		t.Errorf("CurveIndex(Grip) = %d, %v; want 1, true", idx, ok)
	}
	if _, ok := av.CurveIndex("Missing"); ok {
		t.Error("CurveIndex(Missing) should not resolve")
	}
	if idx, ok := av.BoneIndex("Spine"); !ok || idx != 1 {
		t.Errorf("BoneIndex(Spine) = %d, %v; want 1, true", idx, ok)
	}
	if av.BoneCount() != 3 {
		t.Errorf("BoneCount = %d, want 3", av.BoneCount())
	}
}

func TestNewAvatarWithoutSkeleton(t *testing.T) {
	if _, err := NewAvatar(nil); !errors.Is(err, ErrNoSkeleton) {
		t.Errorf("NewAvatar(nil) error = %v, want ErrNoSkeleton", err)
	}
	if _, err := NewAvatar(&Skeleton{}); !errors.Is(err, ErrNoSkeleton) {
		t.Errorf("NewAvatar(empty) error = %v, want ErrNoSkeleton", err)
	}

	var nilAvatar *Avatar
	if nilAvatar.HasSkeletonRoot() {
		t.Error("nil avatar reports a skeleton root")
	}
}

func TestAvatarCurveIndexLiteral(t *testing.T) {
	av := &Avatar{Skeleton: testSkeleton(t), CurveNames: []string{"A", "B"}, CurveDefaults: []float32{0, 0}}
	if idx, ok := av.CurveIndex("B"); !ok || idx != 1 {
		t.Errorf("CurveIndex(B) on literal avatar = %d, %v; want 1, true", idx, ok)
	}
}
