package animation

import (
	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// WeightedPose pairs an input pose with its blend weight.
type WeightedPose struct {
	Pose   *Pose
	Weight float32
}

// Blend writes the normalized weighted combination of inputs into dst.
// Translations, scales and curves are combined as a weighted sum. Rotations are summed after aligning each
// to the hemisphere of the first weighted rotation, then normalized.
// A single input is copied through regardless of its weight, and inputs whose weights sum to zero
// leave dst holding the avatar's rest pose. Negative weights count as zero.
// dst must not alias any input.
//
// Parameters:
//   - dst: the pose receiving the blend
//   - avatar: the avatar supplying the rest pose
//   - inputs: the poses to combine
func Blend(dst *Pose, avatar *model.Avatar, inputs []WeightedPose) {
	if len(inputs) == 1 && inputs[0].Pose != nil {
		dst.CopyFrom(inputs[0].Pose)
		return
	}

	var total float32
	for _, in := range inputs {
		if in.Pose != nil && in.Weight > 0 {
			total += in.Weight
		}
	}
	if total <= 0 {
		dst.ResetTo(avatar)
		return
	}

	for b := range dst.Bones {
		var t, s [3]float32
		var r, ref [4]float32
		hasRef := false

		for _, in := range inputs {
			if in.Pose == nil || in.Weight <= 0 || b >= len(in.Pose.Bones) {
				continue
			}
			w := in.Weight / total
			src := in.Pose.Bones[b]
			for k := 0; k < 3; k++ {
				t[k] += src.Translation[k] * w
				s[k] += src.Scale[k] * w
			}
			q := src.Rotation
			if !hasRef {
				ref = q
				hasRef = true
			} else if common.QuatDot(ref, q) < 0 {
				w = -w
			}
			for k := 0; k < 4; k++ {
				r[k] += q[k] * w
			}
		}

		dst.Bones[b] = model.Transform{
			Translation: t,
			Rotation:    common.QuatNormalize(r),
			Scale:       s,
		}
	}

	for c := range dst.Curves {
		var v float32
		for _, in := range inputs {
			if in.Pose == nil || in.Weight <= 0 || c >= len(in.Pose.Curves) {
				continue
			}
			v += in.Pose.Curves[c] * (in.Weight / total)
		}
		dst.Curves[c] = v
	}
}
