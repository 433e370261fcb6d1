package model

import (
	"errors"
	"fmt"
)

// ErrNoSkeleton is returned when an Avatar is built without a skeleton root.
var ErrNoSkeleton = errors.New("avatar has no skeleton root")

// Avatar describes the animated subject a pose is evaluated for.
// It pairs a skeleton with the named float curves the subject exposes, such as "FootHeight" or "Grip",
// along with the value each curve holds when no clip drives it.
type Avatar struct {
	// Name is the avatar identifier, used when naming graphs built for it.
	Name string

	// Skeleton is the bone hierarchy. A nil skeleton or one without bones is not a valid avatar.
	Skeleton *Skeleton

	// CurveNames lists the float curves declared by the avatar, in slot order.
	CurveNames []string

	// CurveDefaults holds the rest value of each curve, index-aligned with CurveNames.
	CurveDefaults []float32

	curveIndex map[string]int
}

// AvatarBuilderOption is a functional option for configuring an Avatar.
type AvatarBuilderOption func(*Avatar)

// WithAvatarName sets the avatar name.
//
// Parameters:
//   - name: the avatar identifier
//
// Returns:
//   - AvatarBuilderOption: a function that applies the name option to an Avatar
func WithAvatarName(name string) AvatarBuilderOption {
	return func(a *Avatar) {
		a.Name = name
	}
}

// WithCurve declares a float curve on the avatar with its rest value.
// Declaring the same name twice overwrites the earlier default.
//
// Parameters:
//   - name: the curve name
//   - defaultValue: the value the curve holds when nothing drives it
//
// Returns:
//   - AvatarBuilderOption: a function that applies the curve option to an Avatar
func WithCurve(name string, defaultValue float32) AvatarBuilderOption {
	return func(a *Avatar) {
		if idx, ok := a.curveIndex[name]; ok {
			a.CurveDefaults[idx] = defaultValue
			return
		}
		a.curveIndex[name] = len(a.CurveNames)
		a.CurveNames = append(a.CurveNames, name)
		a.CurveDefaults = append(a.CurveDefaults, defaultValue)
	}
}

// NewAvatar creates a new Avatar over the given skeleton.
//
// Parameters:
//   - skeleton: the bone hierarchy; must contain at least one root bone
//   - options: variadic list of AvatarBuilderOption functions
//
// Returns:
//   - *Avatar: the new avatar
//   - error: ErrNoSkeleton if the skeleton is nil or has no root bone
func NewAvatar(skeleton *Skeleton, options ...AvatarBuilderOption) (*Avatar, error) {
	if skeleton == nil || len(skeleton.RootBoneIndices) == 0 {
		return nil, ErrNoSkeleton
	}

	a := &Avatar{
		Name:       "Avatar",
		Skeleton:   skeleton,
		curveIndex: make(map[string]int),
	}
	for _, opt := range options {
		opt(a)
	}
	for i, name := range a.CurveNames {
		if name == "" {
			return nil, fmt.Errorf("avatar %q: curve %d has no name", a.Name, i)
		}
	}

	return a, nil
}

// HasSkeletonRoot reports whether the avatar has a usable skeleton.
func (a *Avatar) HasSkeletonRoot() bool {
	return a != nil && a.Skeleton != nil && len(a.Skeleton.RootBoneIndices) > 0
}

// BoneCount returns the number of bones in the avatar's skeleton.
func (a *Avatar) BoneCount() int {
	if a == nil || a.Skeleton == nil {
		return 0
	}
	return len(a.Skeleton.Bones)
}

// CurveCount returns the number of float curves declared by the avatar.
func (a *Avatar) CurveCount() int {
	if a == nil {
		return 0
	}
	return len(a.CurveNames)
}

// CurveIndex looks up a declared float curve by name.
//
// Parameters:
//   - name: the curve name
//
// Returns:
//   - int: the curve slot, or -1 if not declared
//   - bool: true if the curve exists
func (a *Avatar) CurveIndex(name string) (int, bool) {
	if a == nil {
		return -1, false
	}
	if a.curveIndex == nil {
		a.curveIndex = make(map[string]int, len(a.CurveNames))
		for i, n := range a.CurveNames {
			a.curveIndex[n] = i
		}
	}
	idx, ok := a.curveIndex[name]
	if !ok {
		return -1, false
	}
	return idx, true
}

// BoneIndex looks up a skeleton bone by name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int32: the bone index, or -1 if not found
//   - bool: true if the bone exists
func (a *Avatar) BoneIndex(name string) (int32, bool) {
	if a == nil {
		return -1, false
	}
	return a.Skeleton.BoneIndex(name)
}
