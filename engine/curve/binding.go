package curve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

var (
	// ErrUnknownProperty is returned by Bind when a name resolves to neither an avatar curve nor a bone component.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrNoProperties is returned by Bind when no names are requested.
	ErrNoProperties = errors.New("no properties requested")

	// ErrReleased is returned when a released BindingTable or SampleBuffer is used.
	ErrReleased = errors.New("curve resource released")
)

// PropertyKind identifies what a PropertyHandle reads from a pose.
type PropertyKind int

const (
	// PropertyCurve reads an avatar float curve.
	PropertyCurve PropertyKind = iota

	// PropertyTranslation reads one axis of a bone's local translation.
	PropertyTranslation

	// PropertyRotation reads one component of a bone's local rotation quaternion.
	PropertyRotation

	// PropertyScale reads one axis of a bone's local scale.
	PropertyScale
)

var componentIndex = map[string]int{"x": 0, "y": 1, "z": 2, "w": 3}

var propertyKinds = map[string]PropertyKind{
	"translation": PropertyTranslation,
	"rotation":    PropertyRotation,
	"scale":       PropertyScale,
}

// PropertyHandle is a resolved reference to one float value in a pose.
// Handles are created by Bind and never change afterwards.
type PropertyHandle struct {
	name      string
	kind      PropertyKind
	index     int
	component int
}

// Name returns the property name the handle was bound from.
func (h PropertyHandle) Name() string {
	return h.name
}

// Kind returns what the handle reads.
func (h PropertyHandle) Kind() PropertyKind {
	return h.kind
}

// read extracts the handle's value from pose.
func (h PropertyHandle) read(pose *animation.Pose) float32 {
	switch h.kind {
	case PropertyCurve:
		return pose.Curves[h.index]
	case PropertyTranslation:
		return pose.Bones[h.index].Translation[h.component]
	case PropertyRotation:
		return pose.Bones[h.index].Rotation[h.component]
	case PropertyScale:
		return pose.Bones[h.index].Scale[h.component]
	}
	return 0
}

// BindingTable is the ordered list of PropertyHandles resolved for a set of property names.
// Entry i corresponds to the i-th requested name.
type BindingTable struct {
	handles  []PropertyHandle
	released bool
}

// Bind resolves each name against the avatar, preserving order.
// A name matching a declared avatar curve binds to that curve. Otherwise it must have the form
// "<Bone>.translation.<x|y|z>", "<Bone>.rotation.<x|y|z|w>" or "<Bone>.scale.<x|y|z>".
// Duplicate names are allowed and bind to the same value.
//
// Parameters:
//   - avatar: the avatar the names are resolved against
//   - names: the property names to bind
//
// Returns:
//   - *BindingTable: the resolved table
//   - error: ErrNoProperties or ErrUnknownProperty
func Bind(avatar *model.Avatar, names []string) (*BindingTable, error) {
	if len(names) == 0 {
		return nil, ErrNoProperties
	}

	t := &BindingTable{handles: make([]PropertyHandle, len(names))}
	for i, name := range names {
		h, err := resolve(avatar, name)
		if err != nil {
			return nil, err
		}
		t.handles[i] = h
	}
	return t, nil
}

func resolve(avatar *model.Avatar, name string) (PropertyHandle, error) {
	if idx, ok := avatar.CurveIndex(name); ok {
		return PropertyHandle{name: name, kind: PropertyCurve, index: idx}, nil
	}

	compDot := strings.LastIndexByte(name, '.')
	if compDot <= 0 {
		return PropertyHandle{}, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	kindDot := strings.LastIndexByte(name[:compDot], '.')
	if kindDot <= 0 {
		return PropertyHandle{}, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}

	bone, kindName, compName := name[:kindDot], name[kindDot+1:compDot], name[compDot+1:]
	kind, ok := propertyKinds[kindName]
	if !ok {
		return PropertyHandle{}, fmt.Errorf("%w: %q has no transform component %q", ErrUnknownProperty, name, kindName)
	}
	comp, ok := componentIndex[compName]
	if !ok || (comp == 3 && kind != PropertyRotation) {
		return PropertyHandle{}, fmt.Errorf("%w: %q has no axis %q", ErrUnknownProperty, name, compName)
	}
	boneIdx, ok := avatar.BoneIndex(bone)
	if !ok {
		return PropertyHandle{}, fmt.Errorf("%w: %q names unknown bone %q", ErrUnknownProperty, name, bone)
	}

	return PropertyHandle{name: name, kind: kind, index: int(boneIdx), component: comp}, nil
}

// Len returns the number of bound properties, or 0 once released.
func (t *BindingTable) Len() int {
	if t == nil || t.released {
		return 0
	}
	return len(t.handles)
}

// Handle returns the i-th handle.
//
// Parameters:
//   - i: the entry index
//
// Returns:
//   - PropertyHandle: the handle
//   - bool: false if i is out of range or the table was released
func (t *BindingTable) Handle(i int) (PropertyHandle, bool) {
	if i < 0 || i >= t.Len() {
		return PropertyHandle{}, false
	}
	return t.handles[i], true
}

// Names returns the bound property names in table order.
func (t *BindingTable) Names() []string {
	names := make([]string, t.Len())
	for i := range names {
		names[i] = t.handles[i].name
	}
	return names
}

// Release drops the handles. Calling Release more than once is a no-op.
func (t *BindingTable) Release() {
	if t == nil || t.released {
		return
	}
	t.handles = nil
	t.released = true
}

// Released reports whether Release has been called.
func (t *BindingTable) Released() bool {
	return t == nil || t.released
}
