package loader

import "encoding/json"

// gltfDocument is the part of a glTF 2.0 document the importer reads: the node hierarchy, skins,
// animations and the float accessors behind their samplers. Everything else is skipped by encoding/json.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
type gltfDocument struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`

	Nodes       []gltfNode       `json:"nodes"`
	Skins       []gltfSkin       `json:"skins"`
	Animations  []gltfAnimation  `json:"animations"`
	Accessors   []gltfAccessor   `json:"accessors"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Buffers     []gltfBuffer     `json:"buffers"`
}

// gltfNode is one transform in the hierarchy. Matrix, when present, replaces the TRS fields.
// Weights are the rest values of the node's morph targets.
type gltfNode struct {
	Name        string       `json:"name"`
	Children    []int        `json:"children"`
	Matrix      *[16]float32 `json:"matrix"`
	Translation *[3]float32  `json:"translation"`
	Rotation    *[4]float32  `json:"rotation"`
	Scale       *[3]float32  `json:"scale"`
	Weights     []float32    `json:"weights"`
}

type gltfSkin struct {
	Joints []int `json:"joints"`
}

type gltfAnimation struct {
	Name     string            `json:"name"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
}

type gltfAnimChannel struct {
	Sampler int `json:"sampler"`
	Target  struct {
		Node *int   `json:"node"`
		Path string `json:"path"`
	} `json:"target"`
}

// gltfAnimSampler pairs a SCALAR accessor of key times with an accessor of key values.
type gltfAnimSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation"`
}

// cubic reports whether each key carries an in tangent, a value and an out tangent.
func (s *gltfAnimSampler) cubic() bool {
	return s.Interpolation == gltfInterpolationCubicSpline
}

// gltfAccessor is a typed window over a bufferView. Sparse storage is only decoded to be rejected.
type gltfAccessor struct {
	BufferView    *int            `json:"bufferView"`
	ByteOffset    int             `json:"byteOffset"`
	ComponentType int             `json:"componentType"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Sparse        json.RawMessage `json:"sparse"`
}

// gltfBufferView is a byte range of a buffer. A zero ByteStride means tightly packed elements.
type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride"`
}

// gltfBuffer is resolved from a data URI, a file next to the document or the GLB binary chunk.
type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`

	data []byte
}

const gltfComponentFloat = 5126

// gltfElementWidth is the float count of each accessor type an animation sampler can use.
var gltfElementWidth = map[string]int{
	"SCALAR": 1,
	"VEC3":   3,
	"VEC4":   4,
}

const gltfInterpolationCubicSpline = "CUBICSPLINE"

const (
	gltfPathTranslation = "translation"
	gltfPathRotation    = "rotation"
	gltfPathScale       = "scale"
	gltfPathWeights     = "weights"
)

// GLB container layout: a 12 byte header (magic, version, length) followed by chunks,
// each an 8 byte header (length, type) and its payload.
const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)
