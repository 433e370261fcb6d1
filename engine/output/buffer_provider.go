package output

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bufferProvider is the unexported implementation of BufferProvider.
type bufferProvider struct {
	// label is a debug label added for convenience.
	label string

	// buffers holds the GPU buffers owned by this provider, keyed by binding index.
	// They are populated by the host after GPU initialization and released with the provider.
	buffers map[int]*wgpu.Buffer
}

// BufferProvider owns the GPU buffers a pose sink uploads into.
//
// Usage pattern:
//  1. The host creates a BufferProvider with a debug label
//  2. The host creates the GPU buffers and stores them via SetBuffer()
//  3. The pose sink stages BufferWrites against the provider's bindings each frame
//  4. The host flushes the staged writes through a QueueWriter
type BufferProvider interface {
	// Release releases every GPU buffer held by this provider and removes it from the provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the GPU buffer for a binding, or nil if none is set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns every buffer held by this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: the buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// SetBuffer stores the GPU buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)
}

var _ BufferProvider = &bufferProvider{}

// NewBufferProvider creates a new BufferProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BufferProvider: a new BufferProvider configured with the provided options
func NewBufferProvider(label string, options ...BufferProviderOption) BufferProvider {
	p := &bufferProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bufferProvider) Label() string {
	return p.label
}

func (p *bufferProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bufferProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bufferProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bufferProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
}

// BufferProviderOption is a functional option used to configure a BufferProvider during construction.
type BufferProviderOption func(*bufferProvider)

// WithBuffer sets a buffer for a specific binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BufferProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf *wgpu.Buffer) BufferProviderOption {
	return func(p *bufferProvider) {
		p.buffers[binding] = buf
	}
}
