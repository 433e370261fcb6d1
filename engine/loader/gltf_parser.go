package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion  = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic     = errors.New("invalid GLB magic number")
	errInvalidGLBVersion   = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk    = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI    = errors.New("invalid buffer URI")
	errBufferSizeMismatch  = errors.New("buffer size mismatch")
	errAccessorOutOfBounds = errors.New("accessor reads past the end of its bufferView")
	errSamplerShape        = errors.New("sampler output does not match its key count")
)

// gltfKeys is an animation sampler decoded to key times and a flat value array holding Width floats per key.
type gltfKeys struct {
	Times  []float32
	Values []float32
	Width  int
}

// at returns the value of key i.
func (k gltfKeys) at(i int) []float32 {
	return k.Values[i*k.Width : (i+1)*k.Width]
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir  string
	binChunk []byte
	document *gltfDocument
}

// gltfParser loads glTF/GLB documents and decodes their animation samplers.
// Only FLOAT accessors are read; normalized integer rotation and weight outputs are rejected.
type gltfParser interface {
	// Parse loads a .gltf or .glb file. GLB is detected by extension or by its magic number,
	// and relative buffer URIs resolve against the file's directory.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a document from a reader. External buffer files resolve against the working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful parse.
	//
	// Returns:
	//   - *gltfDocument: the parsed document or nil
	Document() *gltfDocument

	// ReadFloats reads a FLOAT accessor of the given type as a flat component slice.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required type, "SCALAR", "VEC3" or "VEC4"
	//
	// Returns:
	//   - []float32: Count times the type's width components
	//   - error: error if the accessor has another layout or lies outside its buffer
	ReadFloats(accessorIndex int, accessorType string) ([]float32, error)

	// ReadSampler decodes a sampler's key times and values. Cubic spline tangents are dropped,
	// leaving one value per key. The width is the accessor type's width, except for SCALAR output,
	// where it is the number of floats per key (the morph target count of a weights sampler).
	//
	// Parameters:
	//   - sampler: the sampler to read
	//   - accessorType: the required output type
	//
	// Returns:
	//   - gltfKeys: the decoded keys
	//   - error: error if an accessor cannot be read or the output does not divide into the keys
	ReadSampler(sampler *gltfAnimSampler, accessorType string) (gltfKeys, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	p.baseDir = filepath.Dir(path)

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic)
	return p.parse(data, isGLB)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.parse(data, isGLB)
}

func (p *gltfParserImpl) parse(data []byte, isGLB bool) error {
	if isGLB {
		jsonData, bin, err := splitGLB(data)
		if err != nil {
			return err
		}
		data, p.binChunk = jsonData, bin
	}

	doc := &gltfDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	for i := range doc.Buffers {
		if err := p.resolveBuffer(i, &doc.Buffers[i]); err != nil {
			return fmt.Errorf("failed to load buffers: buffer %d: %w", i, err)
		}
	}

	p.document = doc
	return nil
}

// splitGLB returns the JSON and BIN chunk payloads of a GLB container. Unknown chunk types are skipped.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonData, bin []byte, err error) {
	if len(data) < 12 {
		return nil, nil, errors.New("GLB file too small")
	}
	if binary.LittleEndian.Uint32(data[0:]) != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if binary.LittleEndian.Uint32(data[4:]) != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}

	rest := data[12:]
	for len(rest) > 0 {
		if len(rest) < 8 {
			return nil, nil, errors.New("truncated GLB chunk header")
		}
		size := int(binary.LittleEndian.Uint32(rest[0:]))
		kind := binary.LittleEndian.Uint32(rest[4:])
		rest = rest[8:]
		if size > len(rest) {
			return nil, nil, fmt.Errorf("GLB chunk of %d bytes overruns the file", size)
		}

		switch kind {
		case gltfGLBChunkJSON:
			jsonData = rest[:size]
		case gltfGLBChunkBIN:
			bin = rest[:size]
		}
		rest = rest[size:]
	}

	if jsonData == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonData, bin, nil
}

// resolveBuffer fills buf's data from its URI, or from the GLB binary chunk when buffer 0 has none.
func (p *gltfParserImpl) resolveBuffer(index int, buf *gltfBuffer) error {
	var err error
	switch {
	case buf.URI == "" && index == 0 && p.binChunk != nil:
		buf.data = p.binChunk
	case buf.URI == "":
		return errors.New("no URI and no GLB binary chunk")
	case strings.HasPrefix(buf.URI, "data:"):
		buf.data, err = decodeDataURI(buf.URI)
	default:
		buf.data, err = os.ReadFile(filepath.Join(p.baseDir, buf.URI))
	}
	if err != nil {
		return err
	}
	if len(buf.data) < buf.ByteLength {
		return errBufferSizeMismatch
	}
	return nil
}

// decodeDataURI decodes a data:[<mediatype>];base64,<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int, accessorType string) ([]float32, error) {
	doc := p.document
	if doc == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]

	width := gltfElementWidth[acc.Type]
	if acc.Type != accessorType || acc.ComponentType != gltfComponentFloat || width == 0 {
		return nil, fmt.Errorf("accessor %d is %s/%d, want %s FLOAT", accessorIndex, acc.Type, acc.ComponentType, accessorType)
	}
	if len(acc.Sparse) > 0 && string(acc.Sparse) != "null" {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d has no valid bufferView", accessorIndex)
	}
	view := &doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView %d: buffer index %d out of range", *acc.BufferView, view.Buffer)
	}
	data := doc.Buffers[view.Buffer].data
	if view.ByteOffset < 0 || view.ByteOffset+view.ByteLength > len(data) {
		return nil, fmt.Errorf("bufferView %d: %w", *acc.BufferView, errAccessorOutOfBounds)
	}
	data = data[view.ByteOffset : view.ByteOffset+view.ByteLength]

	elemSize := width * 4
	stride := max(view.ByteStride, elemSize)
	if acc.ByteOffset < 0 || (acc.Count > 0 && acc.ByteOffset+(acc.Count-1)*stride+elemSize > len(data)) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorOutOfBounds)
	}

	out := make([]float32, 0, acc.Count*width)
	for i := 0; i < acc.Count; i++ {
		elem := data[acc.ByteOffset+i*stride:]
		for c := 0; c < width; c++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(elem[c*4:])))
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadSampler(sampler *gltfAnimSampler, accessorType string) (gltfKeys, error) {
	times, err := p.ReadFloats(sampler.Input, "SCALAR")
	if err != nil {
		return gltfKeys{}, fmt.Errorf("failed to read key times: %w", err)
	}
	values, err := p.ReadFloats(sampler.Output, accessorType)
	if err != nil {
		return gltfKeys{}, fmt.Errorf("failed to read key values: %w", err)
	}
	keys := gltfKeys{Times: times, Width: gltfElementWidth[accessorType]}
	if len(times) == 0 {
		return keys, nil
	}

	perKey := 1
	if sampler.cubic() {
		perKey = 3
	}
	groups := len(times) * perKey
	if len(values)%groups != 0 || (accessorType != "SCALAR" && len(values)/groups != keys.Width) {
		return gltfKeys{}, fmt.Errorf("%w: %d keys, %d values", errSamplerShape, len(times), len(values))
	}
	keys.Width = len(values) / groups

	if !sampler.cubic() {
		keys.Values = values
		return keys, nil
	}
	keys.Values = make([]float32, 0, len(times)*keys.Width)
	for k := range times {
		value := values[(k*3+1)*keys.Width:]
		keys.Values = append(keys.Values, value[:keys.Width]...)
	}
	return keys, nil
}
