package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// ClipSampler evaluates an AnimationClip for a specific avatar.
// Curve channels are resolved to avatar curve slots once at construction; channels naming curves the
// avatar does not declare, or bones outside its skeleton, are ignored.
type ClipSampler struct {
	clip       *model.AnimationClip
	avatar     *model.Avatar
	curveSlots []int
}

// NewClipSampler binds a clip to an avatar.
//
// Parameters:
//   - clip: the clip to evaluate
//   - avatar: the avatar the clip animates
//
// Returns:
//   - *ClipSampler: the bound sampler
func NewClipSampler(clip *model.AnimationClip, avatar *model.Avatar) *ClipSampler {
	s := &ClipSampler{
		clip:       clip,
		avatar:     avatar,
		curveSlots: make([]int, len(clip.Curves)),
	}
	for i, ch := range clip.Curves {
		idx, ok := avatar.CurveIndex(ch.Name)
		if !ok {
			idx = -1
		}
		s.curveSlots[i] = idx
	}
	return s
}

// Clip returns the clip this sampler evaluates.
func (s *ClipSampler) Clip() *model.AnimationClip {
	return s.clip
}

// Sample resets pose to the avatar's rest values and writes the clip's state at time t into it.
// Keys are held at both ends, so times before the first key or after the last return the boundary value.
//
// Parameters:
//   - t: the clip-local time in seconds
//   - pose: the pose to write; must be sized for the bound avatar
func (s *ClipSampler) Sample(t float32, pose *Pose) {
	pose.ResetTo(s.avatar)

	for _, ch := range s.clip.Channels {
		if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(pose.Bones) {
			continue
		}
		bone := &pose.Bones[ch.BoneIndex]
		if len(ch.PositionKeys) > 0 {
			bone.Translation = sampleVector(ch.PositionKeys, t)
		}
		if len(ch.RotationKeys) > 0 {
			bone.Rotation = sampleQuaternion(ch.RotationKeys, t)
		}
		if len(ch.ScaleKeys) > 0 {
			bone.Scale = sampleVector(ch.ScaleKeys, t)
		}
	}

	for i, ch := range s.clip.Curves {
		slot := s.curveSlots[i]
		if slot < 0 || slot >= len(pose.Curves) || len(ch.Keys) == 0 {
			continue
		}
		pose.Curves[slot] = sampleScalar(ch.Keys, t)
	}
}

// findSegment returns the pair of keys bracketing t and the interpolation factor between them.
// i0 == i1 when t lies outside the key range.
func findSegment(n int, timeAt func(int) float32, t float32) (i0, i1 int, f float32) {
	if t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, n - 1, 0
	}
	i1 = sort.Search(n, func(i int) bool { return timeAt(i) > t })
	i0 = i1 - 1
	return i0, i1, (t - timeAt(i0)) / (timeAt(i1) - timeAt(i0))
}

func sampleVector(keys []model.VectorKeyframe, t float32) [3]float32 {
	i0, i1, f := findSegment(len(keys), func(i int) float32 { return keys[i].Time }, t)
	return common.Lerp3(keys[i0].Value, keys[i1].Value, f)
}

func sampleQuaternion(keys []model.QuaternionKeyframe, t float32) [4]float32 {
	i0, i1, f := findSegment(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if i0 == i1 {
		return common.QuatNormalize(keys[i0].Value)
	}
	return common.Nlerp(keys[i0].Value, keys[i1].Value, f)
}

func sampleScalar(keys []model.ScalarKeyframe, t float32) float32 {
	i0, i1, f := findSegment(len(keys), func(i int) float32 { return keys[i].Time }, t)
	return common.Lerp(keys[i0].Value, keys[i1].Value, f)
}
