package loader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into model.AnimationClip values.
//
// Translation, rotation and scale channels become bone channels, retargeted through the node-to-bone
// mapping produced by the skeleton extractor. Morph target "weights" channels become float curves,
// one per target, named by gltfWeightCurveName.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - *model.AnimationClip: the extracted animation clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation from the document.
	//
	// Parameters:
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - []*model.AnimationClip: all extracted animation clips
	//   - error: error if extraction fails
	ExtractAllAnimations(boneMapping map[int]int32) ([]*model.AnimationClip, error)

	// ExtractCurves lists the float curves the document's morph weights expose,
	// with each curve's rest value taken from the node's default weights.
	//
	// Returns:
	//   - []CurveSpec: the curves in node then target order
	//   - error: error if a weights channel cannot be read
	ExtractCurves() ([]CurveSpec, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

// gltfWeightCurveName names the float curve driven by morph target index target of a node.
func gltfWeightCurveName(nodeName string, target int) string {
	return fmt.Sprintf("%s.weights.%d", nodeName, target)
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	// Translation, rotation and scale of one bone merge into a single channel.
	channelMap := make(map[int32]*model.AnimationChannel)
	boneChannel := func(boneIndex int32) *model.AnimationChannel {
		animCh := channelMap[boneIndex]
		if animCh == nil {
			animCh = &model.AnimationChannel{BoneIndex: boneIndex}
			channelMap[boneIndex] = animCh
		}
		return animCh
	}
	var curves []model.CurveChannel
	var maxTime float32

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		target := ch.Target
		if target.Node == nil || *target.Node < 0 || *target.Node >= len(doc.Nodes) {
			continue
		}
		boneIndex, isBone := boneMapping[*target.Node]
		outputType, known := gltfPathOutputType[target.Path]
		if !known || (!isBone && target.Path != gltfPathWeights) {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}

		keys, err := e.parser.ReadSampler(&anim.Samplers[ch.Sampler], outputType)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d (%s): %w", name, i, target.Path, err)
		}
		if n := len(keys.Times); n > 0 {
			maxTime = max(maxTime, keys.Times[n-1])
		}

		switch target.Path {
		case gltfPathTranslation:
			boneChannel(boneIndex).PositionKeys = gltfVectorKeys(keys)
		case gltfPathScale:
			boneChannel(boneIndex).ScaleKeys = gltfVectorKeys(keys)
		case gltfPathRotation:
			rotations := make([]model.QuaternionKeyframe, len(keys.Times))
			for j, t := range keys.Times {
				rotations[j] = model.QuaternionKeyframe{Time: t, Value: [4]float32(keys.at(j))}
			}
			boneChannel(boneIndex).RotationKeys = rotations
		case gltfPathWeights:
			curves = append(curves, gltfWeightCurves(gltfNodeName(doc, *target.Node), keys)...)
		}
	}

	channels := make([]model.AnimationChannel, 0, len(channelMap))
	for _, ch := range channelMap {
		channels = append(channels, *ch)
	}
	sort.Slice(channels, func(a, b int) bool { return channels[a].BoneIndex < channels[b].BoneIndex })

	return &model.AnimationClip{
		Name:     name,
		Duration: maxTime,
		Channels: channels,
		Curves:   curves,
	}, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(boneMapping map[int]int32) ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	clips := make([]*model.AnimationClip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}
	return clips, nil
}

func (e *gltfAnimationExtractorImpl) ExtractCurves() ([]CurveSpec, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	// Target count per node: the node's default weights, widened by any animated weights channel.
	targets := make(map[int]int)
	for nodeIdx, node := range doc.Nodes {
		if len(node.Weights) > 0 {
			targets[nodeIdx] = len(node.Weights)
		}
	}
	for a := range doc.Animations {
		anim := &doc.Animations[a]
		for _, ch := range anim.Channels {
			node := ch.Target.Node
			if ch.Target.Path != gltfPathWeights || node == nil || *node < 0 || *node >= len(doc.Nodes) ||
				ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
				continue
			}
			keys, err := e.parser.ReadSampler(&anim.Samplers[ch.Sampler], "SCALAR")
			if err != nil {
				return nil, fmt.Errorf("animation %d: %w", a, err)
			}
			if len(keys.Times) > 0 {
				targets[*node] = max(targets[*node], keys.Width)
			}
		}
	}

	nodes := make([]int, 0, len(targets))
	for nodeIdx := range targets {
		nodes = append(nodes, nodeIdx)
	}
	sort.Ints(nodes)

	var specs []CurveSpec
	for _, nodeIdx := range nodes {
		rest := doc.Nodes[nodeIdx].Weights
		nodeName := gltfNodeName(doc, nodeIdx)
		for t := 0; t < targets[nodeIdx]; t++ {
			spec := CurveSpec{Name: gltfWeightCurveName(nodeName, t)}
			if t < len(rest) {
				spec.Default = rest[t]
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// gltfPathOutputType is the sampler output accessor type of each animated path.
var gltfPathOutputType = map[string]string{
	gltfPathTranslation: "VEC3",
	gltfPathRotation:    "VEC4",
	gltfPathScale:       "VEC3",
	gltfPathWeights:     "SCALAR",
}

func gltfVectorKeys(keys gltfKeys) []model.VectorKeyframe {
	out := make([]model.VectorKeyframe, len(keys.Times))
	for j, t := range keys.Times {
		out[j] = model.VectorKeyframe{Time: t, Value: [3]float32(keys.at(j))}
	}
	return out
}

// gltfWeightCurves splits a weights sampler into one float curve per morph target.
func gltfWeightCurves(nodeName string, keys gltfKeys) []model.CurveChannel {
	if len(keys.Times) == 0 {
		return nil
	}
	curves := make([]model.CurveChannel, keys.Width)
	for target := range curves {
		curves[target].Name = gltfWeightCurveName(nodeName, target)
		curves[target].Keys = make([]model.ScalarKeyframe, len(keys.Times))
		for j, t := range keys.Times {
			curves[target].Keys[j] = model.ScalarKeyframe{Time: t, Value: keys.at(j)[target]}
		}
	}
	return curves
}
