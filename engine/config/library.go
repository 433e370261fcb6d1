package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-overlay/engine/controller"
	"github.com/Carmen-Shannon/oxy-overlay/engine/loader"
	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
	"gopkg.in/yaml.v3"
)

// DefaultLibrarySource is the built-in clip library used when no library path is configured.
//
//go:embed assets/default_library.yaml
var DefaultLibrarySource []byte

// rawLibrary is the YAML document layout of a clip library.
type rawLibrary struct {
	Source       string     `yaml:"source"`
	Avatar       rawAvatar  `yaml:"avatar"`
	Clips        []rawClip  `yaml:"clips"`
	States       []rawState `yaml:"states"`
	DefaultState string     `yaml:"default_state"`
	Overlays     []string   `yaml:"overlays"`
}

type rawAvatar struct {
	Name   string     `yaml:"name"`
	Bones  []rawBone  `yaml:"bones"`
	Curves []rawCurve `yaml:"curves"`
}

type rawBone struct {
	Name        string      `yaml:"name"`
	Parent      string      `yaml:"parent"`
	Translation *[3]float32 `yaml:"translation"`
	Rotation    *[4]float32 `yaml:"rotation"`
	Scale       *[3]float32 `yaml:"scale"`
}

type rawCurve struct {
	Name    string  `yaml:"name"`
	Default float32 `yaml:"default"`
}

type rawClip struct {
	Name     string          `yaml:"name"`
	Duration float32         `yaml:"duration"`
	Bones    []rawBoneTrack  `yaml:"bones"`
	Curves   []rawCurveTrack `yaml:"curves"`
}

type rawBoneTrack struct {
	Bone        string       `yaml:"bone"`
	Translation []rawVec3Key `yaml:"translation"`
	Rotation    []rawQuatKey `yaml:"rotation"`
	Scale       []rawVec3Key `yaml:"scale"`
}

type rawCurveTrack struct {
	Name string         `yaml:"name"`
	Keys []rawScalarKey `yaml:"keys"`
}

type rawVec3Key struct {
	T float32    `yaml:"t"`
	V [3]float32 `yaml:"v"`
}

type rawQuatKey struct {
	T float32    `yaml:"t"`
	V [4]float32 `yaml:"v"`
}

type rawScalarKey struct {
	T float32 `yaml:"t"`
	V float32 `yaml:"v"`
}

type rawState struct {
	Name string `yaml:"name"`
	Clip string `yaml:"clip"`
	Loop bool   `yaml:"loop"`
}

// StateSpec describes one base-layer controller state.
type StateSpec struct {
	Name string
	Clip *model.AnimationClip
	Loop bool
}

// Library is a decoded clip library: an avatar, its clips, the base-layer states and the clips offered as overlays.
type Library struct {
	Avatar       *model.Avatar
	States       []StateSpec
	DefaultState string

	clips     map[string]*model.AnimationClip
	clipOrder []string
	overlays  []string
}

// LoadLibrary reads and decodes a clip library file. An empty path decodes DefaultLibrarySource.
//
// Parameters:
//   - path: the library file path, may be empty
//
// Returns:
//   - *Library: the decoded library
//   - error: an error if the file cannot be read or decoded
func LoadLibrary(path string) (*Library, error) {
	if path == "" {
		return ParseLibrary(DefaultLibrarySource)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	lib, err := parseLibrary(b, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", path, err)
	}
	return lib, nil
}

// ParseLibrary decodes a clip library document.
// Bones must list their parent before themselves; every clip, state and overlay reference must resolve.
// A source glTF/GLB path is resolved against the working directory.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Library: the decoded library
//   - error: an error describing the first invalid entry
func ParseLibrary(data []byte) (*Library, error) {
	return parseLibrary(data, "")
}

// parseLibrary decodes a library document, resolving a relative source path against baseDir.
// With a source the avatar's skeleton, morph curves and clips are imported first;
// the document's own curves and clips are declared on top of them.
func parseLibrary(data []byte, baseDir string) (*Library, error) {
	var raw rawLibrary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}

	var (
		avatar   *model.Avatar
		imported []*model.AnimationClip
		err      error
	)
	if raw.Source != "" {
		avatar, imported, err = importAvatar(raw, baseDir)
	} else {
		avatar, err = buildAvatar(raw.Avatar)
	}
	if err != nil {
		return nil, err
	}

	lib := &Library{
		Avatar:       avatar,
		DefaultState: raw.DefaultState,
		clips:        make(map[string]*model.AnimationClip, len(imported)+len(raw.Clips)),
	}

	for _, clip := range imported {
		if err := lib.addClip(clip); err != nil {
			return nil, err
		}
	}
	for _, rc := range raw.Clips {
		clip, err := buildClip(avatar, rc)
		if err != nil {
			return nil, err
		}
		if err := lib.addClip(clip); err != nil {
			return nil, err
		}
	}

	for _, rs := range raw.States {
		clip, ok := lib.clips[rs.Clip]
		if !ok {
			return nil, fmt.Errorf("state %q: unknown clip %q", rs.Name, rs.Clip)
		}
		lib.States = append(lib.States, StateSpec{Name: rs.Name, Clip: clip, Loop: rs.Loop})
	}

	for _, name := range raw.Overlays {
		if _, ok := lib.clips[name]; !ok {
			return nil, fmt.Errorf("overlay: unknown clip %q", name)
		}
		lib.overlays = append(lib.overlays, name)
	}

	return lib, nil
}

func (l *Library) addClip(clip *model.AnimationClip) error {
	if _, dup := l.clips[clip.Name]; dup {
		return fmt.Errorf("duplicate clip %q", clip.Name)
	}
	l.clips[clip.Name] = clip
	l.clipOrder = append(l.clipOrder, clip.Name)
	return nil
}

// importAvatar loads the library's glTF/GLB source and builds the avatar over its skeleton.
func importAvatar(raw rawLibrary, baseDir string) (*model.Avatar, []*model.AnimationClip, error) {
	if len(raw.Avatar.Bones) > 0 {
		return nil, nil, fmt.Errorf("avatar bones cannot be declared alongside source %q", raw.Source)
	}

	path := raw.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	asset, err := loader.NewLoader(loader.BackendTypeGLTF).Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}

	var opts []model.AvatarBuilderOption
	if raw.Avatar.Name != "" {
		opts = append(opts, model.WithAvatarName(raw.Avatar.Name))
	}
	for _, c := range raw.Avatar.Curves {
		opts = append(opts, model.WithCurve(c.Name, c.Default))
	}
	avatar, err := asset.Avatar(opts...)
	if err != nil {
		return nil, nil, err
	}
	return avatar, asset.Clips, nil
}

func buildAvatar(ra rawAvatar) (*model.Avatar, error) {
	index := make(map[string]int32, len(ra.Bones))
	bones := make([]model.Bone, len(ra.Bones))

	for i, rb := range ra.Bones {
		parent := int32(-1)
		if rb.Parent != "" {
			p, ok := index[rb.Parent]
			if !ok {
				return nil, fmt.Errorf("bone %q: parent %q not declared before it", rb.Name, rb.Parent)
			}
			parent = p
		}

		rest := model.IdentityTransform()
		if rb.Translation != nil {
			rest.Translation = *rb.Translation
		}
		if rb.Rotation != nil {
			rest.Rotation = *rb.Rotation
		}
		if rb.Scale != nil {
			rest.Scale = *rb.Scale
		}

		bones[i] = model.Bone{Name: rb.Name, ParentIndex: parent, LocalTransform: rest}
		index[rb.Name] = int32(i)
	}

	skel, err := model.NewSkeleton(bones)
	if err != nil {
		return nil, fmt.Errorf("skeleton: %w", err)
	}

	opts := []model.AvatarBuilderOption{}
	if ra.Name != "" {
		opts = append(opts, model.WithAvatarName(ra.Name))
	}
	for _, c := range ra.Curves {
		opts = append(opts, model.WithCurve(c.Name, c.Default))
	}
	return model.NewAvatar(skel, opts...)
}

func buildClip(avatar *model.Avatar, rc rawClip) (*model.AnimationClip, error) {
	if rc.Name == "" {
		return nil, fmt.Errorf("clip without a name")
	}
	clip := &model.AnimationClip{Name: rc.Name, Duration: rc.Duration}

	for _, track := range rc.Bones {
		idx, ok := avatar.BoneIndex(track.Bone)
		if !ok {
			return nil, fmt.Errorf("clip %q: unknown bone %q", rc.Name, track.Bone)
		}
		ch := model.AnimationChannel{BoneIndex: idx}
		for _, k := range track.Translation {
			ch.PositionKeys = append(ch.PositionKeys, model.VectorKeyframe{Time: k.T, Value: k.V})
		}
		for _, k := range track.Rotation {
			ch.RotationKeys = append(ch.RotationKeys, model.QuaternionKeyframe{Time: k.T, Value: k.V})
		}
		for _, k := range track.Scale {
			ch.ScaleKeys = append(ch.ScaleKeys, model.VectorKeyframe{Time: k.T, Value: k.V})
		}
		clip.Channels = append(clip.Channels, ch)
	}

	for _, track := range rc.Curves {
		if _, ok := avatar.CurveIndex(track.Name); !ok {
			return nil, fmt.Errorf("clip %q: unknown curve %q", rc.Name, track.Name)
		}
		ch := model.CurveChannel{Name: track.Name}
		for _, k := range track.Keys {
			ch.Keys = append(ch.Keys, model.ScalarKeyframe{Time: k.T, Value: k.V})
		}
		clip.Curves = append(clip.Curves, ch)
	}

	return clip, nil
}

// Clip looks up a clip by name.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *model.AnimationClip: the clip, or nil
//   - bool: true if the clip exists
func (l *Library) Clip(name string) (*model.AnimationClip, bool) {
	c, ok := l.clips[name]
	return c, ok
}

// ClipNames returns every clip name in document order.
func (l *Library) ClipNames() []string {
	return append([]string(nil), l.clipOrder...)
}

// Overlays returns the clips offered as one-off overlays, in document order.
// Without an explicit overlays list, every clip not used by a base-layer state is offered.
func (l *Library) Overlays() []*model.AnimationClip {
	names := l.overlays
	if len(names) == 0 {
		used := make(map[string]bool, len(l.States))
		for _, s := range l.States {
			used[s.Clip.Name] = true
		}
		for _, n := range l.clipOrder {
			if !used[n] {
				names = append(names, n)
			}
		}
	}

	clips := make([]*model.AnimationClip, 0, len(names))
	for _, n := range names {
		clips = append(clips, l.clips[n])
	}
	return clips
}

// ControllerOptions returns the builder options that register the library's base-layer states.
//
// Returns:
//   - []controller.ControllerBuilderOption: the options for controller.NewController
func (l *Library) ControllerOptions() []controller.ControllerBuilderOption {
	opts := make([]controller.ControllerBuilderOption, 0, len(l.States)+1)
	for _, s := range l.States {
		opts = append(opts, controller.WithState(s.Name, s.Clip, s.Loop))
	}
	if l.DefaultState != "" {
		opts = append(opts, controller.WithDefaultState(l.DefaultState))
	}
	return opts
}
