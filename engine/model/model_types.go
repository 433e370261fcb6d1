package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-overlay/common"
)

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, identity rotation, and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: common.IdentityQuat,
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier, used for animation targeting and property binding.
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	ParentIndex int32

	// LocalTransform is the bone's bind-pose transform relative to its parent.
	// Poses are reset to this value before a clip is sampled.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy for skeletal animation.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton. Parents always precede their children.
	Bones []Bone

	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32
}

// NewSkeleton builds a Skeleton from an ordered bone list, deriving the root indices and name lookup.
// Bones must be ordered so that every parent appears before its children, and names must be unique.
//
// Parameters:
//   - bones: the ordered bones of the skeleton
//
// Returns:
//   - *Skeleton: the assembled skeleton
//   - error: an error if a name is duplicated or a parent index is out of order
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		Bones:           make([]Bone, len(bones)),
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	copy(s.Bones, bones)

	for i, b := range s.Bones {
		if b.Name == "" {
			return nil, fmt.Errorf("bone %d has no name", i)
		}
		if _, dup := s.BoneNameToIndex[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bone name %q", b.Name)
		}
		if b.ParentIndex >= int32(i) {
			return nil, fmt.Errorf("bone %q has parent index %d which does not precede it", b.Name, b.ParentIndex)
		}
		if b.ParentIndex < 0 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
		s.BoneNameToIndex[b.Name] = int32(i)
	}

	return s, nil
}

// BoneIndex looks up a bone by name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int32: the bone index, or -1 if not found
//   - bool: true if the bone exists
func (s *Skeleton) BoneIndex(name string) (int32, bool) {
	if s == nil {
		return -1, false
	}
	idx, ok := s.BoneNameToIndex[name]
	if !ok {
		return -1, false
	}
	return idx, true
}

// --- Animation Types ---

// AnimationClip represents a single animation (walk, run, wave, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel

	// Curves contains scalar animation curves keyed by avatar curve name.
	Curves []CurveChannel
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// BoneIndex is the index of the bone this channel animates.
	BoneIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// CurveChannel contains keyframes for a single named float curve, such as a foot height or grip strength.
type CurveChannel struct {
	// Name is the avatar curve this channel drives.
	Name string

	// Keys are the curve keyframes, sorted by time.
	Keys []ScalarKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// ScalarKeyframe stores a single float value at a specific time.
type ScalarKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the curve value at this keyframe.
	Value float32
}
