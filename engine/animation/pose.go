package animation

import (
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// Pose is one evaluated animation stream: a local transform per skeleton bone plus a value per avatar float curve.
// Bones is index-aligned with the avatar's skeleton and Curves with its declared curve names.
type Pose struct {
	// Bones holds the local transform of each bone.
	Bones []model.Transform

	// Curves holds the value of each avatar float curve.
	Curves []float32
}

// NewPose allocates a pose sized for the avatar and fills it with the avatar's rest values.
//
// Parameters:
//   - avatar: the avatar the pose is evaluated for
//
// Returns:
//   - *Pose: a pose holding the avatar's bind transforms and curve defaults
func NewPose(avatar *model.Avatar) *Pose {
	p := &Pose{
		Bones:  make([]model.Transform, avatar.BoneCount()),
		Curves: make([]float32, avatar.CurveCount()),
	}
	p.ResetTo(avatar)
	return p
}

// ResetTo overwrites the pose with the avatar's bind transforms and curve defaults.
// The pose must have been sized for the same avatar.
//
// Parameters:
//   - avatar: the avatar whose rest values are written
func (p *Pose) ResetTo(avatar *model.Avatar) {
	if avatar == nil {
		return
	}
	if avatar.Skeleton != nil {
		for i := range p.Bones {
			if i < len(avatar.Skeleton.Bones) {
				p.Bones[i] = avatar.Skeleton.Bones[i].LocalTransform
			} else {
				p.Bones[i] = model.IdentityTransform()
			}
		}
	}
	for i := range p.Curves {
		if i < len(avatar.CurveDefaults) {
			p.Curves[i] = avatar.CurveDefaults[i]
		} else {
			p.Curves[i] = 0
		}
	}
}

// CopyFrom overwrites the pose with the contents of src without reallocating.
// Both poses must have been sized for the same avatar.
//
// Parameters:
//   - src: the pose to copy
func (p *Pose) CopyFrom(src *Pose) {
	copy(p.Bones, src.Bones)
	copy(p.Curves, src.Curves)
}
