package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
}

// gltfSkeletonExtractor converts a glTF skin, or the whole node hierarchy of an unskinned document,
// into a model.Skeleton whose bones are ordered parents first.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton extracts the skeleton of a skin.
	// A negative skinIndex treats every node of the document as a bone.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract, or -1
	//
	// Returns:
	//   - *model.Skeleton: the skeleton with topologically sorted bones
	//   - map[int]int32: mapping from glTF node index to bone index, used to retarget animation channels
	//   - error: error if extraction fails
	ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{parser: parser}
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*model.Skeleton, map[int]int32, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, fmt.Errorf("no document loaded")
	}
	if skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	var joints []int
	if skinIndex >= 0 {
		joints = doc.Skins[skinIndex].Joints
	} else {
		joints = make([]int, len(doc.Nodes))
		for i := range joints {
			joints[i] = i
		}
	}
	if len(joints) == 0 {
		return nil, nil, fmt.Errorf("skeleton has no joints")
	}

	parentOf := make(map[int]int, len(doc.Nodes))
	for nodeIdx, node := range doc.Nodes {
		for _, child := range node.Children {
			parentOf[child] = nodeIdx
		}
	}

	nodeToJoint := make(map[int]int32, len(joints))
	for i, nodeIdx := range joints {
		if nodeIdx < 0 || nodeIdx >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, nodeIdx)
		}
		nodeToJoint[nodeIdx] = int32(i)
	}

	bones := make([]model.Bone, len(joints))
	for i, nodeIdx := range joints {
		node := &doc.Nodes[nodeIdx]
		bones[i] = model.Bone{
			Name:           gltfNodeName(doc, nodeIdx),
			ParentIndex:    -1,
			LocalTransform: gltfExtractNodeTransform(node),
		}
		if parentNode, ok := parentOf[nodeIdx]; ok {
			if parentJoint, ok := nodeToJoint[parentNode]; ok {
				bones[i].ParentIndex = parentJoint
			}
		}
	}

	sorted, oldToNew := gltfTopologicalSortBones(bones)
	skeleton, err := model.NewSkeleton(sorted)
	if err != nil {
		return nil, nil, err
	}

	mapping := make(map[int]int32, len(joints))
	for i, nodeIdx := range joints {
		mapping[nodeIdx] = oldToNew[int32(i)]
	}
	return skeleton, mapping, nil
}

// gltfNodeName returns the node's name, or a generated one for unnamed nodes.
func gltfNodeName(doc *gltfDocument, nodeIdx int) string {
	if name := doc.Nodes[nodeIdx].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node_%d", nodeIdx)
}

// gltfExtractNodeTransform extracts TRS transform from a glTF node.
func gltfExtractNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(*node.Matrix)
	}

	transform := model.IdentityTransform()
	if node.Translation != nil {
		transform.Translation = *node.Translation
	}
	if node.Rotation != nil {
		transform.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		transform.Scale = *node.Scale
	}
	return transform
}

// gltfDecomposeMatrix decomposes a 4x4 column-major matrix into translation, rotation (quaternion), and scale.
// Shear is not represented.
func gltfDecomposeMatrix(m [16]float32) model.Transform {
	var t model.Transform

	t.Translation = [3]float32{m[12], m[13], m[14]}

	sx := gltfVectorLength(m[0], m[1], m[2])
	sy := gltfVectorLength(m[4], m[5], m[6])
	sz := gltfVectorLength(m[8], m[9], m[10])
	t.Scale = [3]float32{sx, sy, sz}

	if sx < 0.0001 {
		sx = 1
	}
	if sy < 0.0001 {
		sy = 1
	}
	if sz < 0.0001 {
		sz = 1
	}

	// Row-major rotation: element (row, col) comes from column col of m.
	r := [9]float32{
		m[0] / sx, m[4] / sy, m[8] / sz,
		m[1] / sx, m[5] / sy, m[9] / sz,
		m[2] / sx, m[6] / sy, m[10] / sz,
	}
	t.Rotation = gltfMatrixToQuaternion(r)

	return t
}

func gltfVectorLength(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// gltfMatrixToQuaternion converts a row-major 3x3 rotation matrix to a normalized [x, y, z, w] quaternion.
func gltfMatrixToQuaternion(m [9]float32) [4]float32 {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[3], m[4], m[5]
	r20, r21, r22 := m[6], m[7], m[8]

	trace := r00 + r11 + r22

	var x, y, z, w float32

	switch {
	case trace > 0:
		s := float32(math.Sqrt(float64(trace+1.0))) * 2
		w = 0.25 * s
		x = (r21 - r12) / s
		y = (r02 - r20) / s
		z = (r10 - r01) / s
	case r00 > r11 && r00 > r22:
		s := float32(math.Sqrt(float64(1.0+r00-r11-r22))) * 2
		w = (r21 - r12) / s
		x = 0.25 * s
		y = (r01 + r10) / s
		z = (r02 + r20) / s
	case r11 > r22:
		s := float32(math.Sqrt(float64(1.0+r11-r00-r22))) * 2
		w = (r02 - r20) / s
		x = (r01 + r10) / s
		y = 0.25 * s
		z = (r12 + r21) / s
	default:
		s := float32(math.Sqrt(float64(1.0+r22-r00-r11))) * 2
		w = (r10 - r01) / s
		x = (r02 + r20) / s
		y = (r12 + r21) / s
		z = 0.25 * s
	}

	length := float32(math.Sqrt(float64(x*x + y*y + z*z + w*w)))
	if length > 0.0001 {
		x /= length
		y /= length
		z /= length
		w /= length
	}

	return [4]float32{x, y, z, w}
}

// gltfTopologicalSortBones reorders bones breadth first from the roots so every parent precedes its children.
// Bones unreachable from a root keep their relative order at the end; model.NewSkeleton rejects them
// if their parent still follows them.
//
// Parameters:
//   - bones: bones in joint order with parent indices into the same slice
//
// Returns:
//   - []model.Bone: sorted bones with remapped parent indices
//   - map[int32]int32: old bone index to new bone index mapping
func gltfTopologicalSortBones(bones []model.Bone) ([]model.Bone, map[int32]int32) {
	children := make(map[int32][]int32)
	var queue []int32
	for i, bone := range bones {
		if bone.ParentIndex >= 0 {
			children[bone.ParentIndex] = append(children[bone.ParentIndex], int32(i))
		} else {
			queue = append(queue, int32(i))
		}
	}

	sorted := make([]int32, 0, len(bones))
	visited := make(map[int32]bool, len(bones))
	for len(queue) > 0 {
		oldIdx := queue[0]
		queue = queue[1:]
		if visited[oldIdx] {
			continue
		}
		visited[oldIdx] = true
		sorted = append(sorted, oldIdx)
		queue = append(queue, children[oldIdx]...)
	}
	for i := range bones {
		if !visited[int32(i)] {
			sorted = append(sorted, int32(i))
		}
	}

	oldToNew := make(map[int32]int32, len(bones))
	for newIdx, oldIdx := range sorted {
		oldToNew[oldIdx] = int32(newIdx)
	}

	out := make([]model.Bone, len(bones))
	for newIdx, oldIdx := range sorted {
		bone := bones[oldIdx]
		if bone.ParentIndex >= 0 {
			bone.ParentIndex = oldToNew[bone.ParentIndex]
		}
		out[newIdx] = bone
	}
	return out, oldToNew
}
