package output

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// GPUPoseBone is the GPU-aligned representation of one evaluated bone transform.
// Size: 48 bytes (std430 aligned).
//
// Layout:
//
//	vec3<f32>   translation     (12 bytes, offset  0)
//	f32         _pad0           ( 4 bytes, offset 12)
//	vec4<f32>   rotation        (16 bytes, offset 16)
//	vec3<f32>   scale           (12 bytes, offset 32)
//	f32         _pad1           ( 4 bytes, offset 44)
type GPUPoseBone struct {
	Translation [3]float32 // offset 0, size 12 (vec3<f32>)
	_pad0       float32    // offset 12, size 4 (align vec4 to 16)
	Rotation    [4]float32 // offset 16, size 16 (vec4<f32>, quaternion)
	Scale       [3]float32 // offset 32, size 12 (vec3<f32>)
	_pad1       float32    // offset 44, size 4 (align vec4 to 16)
}

// GPUPoseBoneSize is the byte size of a marshalled GPUPoseBone.
const GPUPoseBoneSize = 48

// NewGPUPoseBone converts a bone transform into its GPU layout.
//
// Parameters:
//   - t: the local bone transform
//
// Returns:
//   - GPUPoseBone: the GPU-aligned bone
func NewGPUPoseBone(t model.Transform) GPUPoseBone {
	return GPUPoseBone{
		Translation: t.Translation,
		Rotation:    t.Rotation,
		Scale:       t.Scale,
	}
}

// Size returns the size of the GPUPoseBone struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPoseBone) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalTo serializes the bone into buf, which must hold at least GPUPoseBoneSize bytes.
//
// Parameters:
//   - buf: the destination buffer
func (g *GPUPoseBone) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Translation[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Translation[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Translation[2]))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad0
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Rotation[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Rotation[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Rotation[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Rotation[3]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Scale[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Scale[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Scale[2]))
	binary.LittleEndian.PutUint32(buf[44:48], 0) // _pad1
}

// Marshal serializes the GPUPoseBone struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUPoseBone) Marshal() []byte {
	buf := make([]byte, GPUPoseBoneSize)
	g.MarshalTo(buf)
	return buf
}
