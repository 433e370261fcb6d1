package curve

// SampleBuffer holds the latest sampled value of each bound property, index-aligned with its BindingTable.
// It is sized once and rewritten in place every frame. Readers see values written by the most recent
// completed evaluation; only the sampler in this package writes to it.
type SampleBuffer struct {
	values   []float32
	released bool
}

// NewSampleBuffer allocates a zeroed buffer of n entries.
//
// Parameters:
//   - n: the number of entries
//
// Returns:
//   - *SampleBuffer: the new buffer
func NewSampleBuffer(n int) *SampleBuffer {
	return &SampleBuffer{values: make([]float32, n)}
}

// Len returns the number of entries, or 0 once released.
func (b *SampleBuffer) Len() int {
	if b == nil || b.released {
		return 0
	}
	return len(b.values)
}

// At returns entry i, or 0 if i is out of range or the buffer was released.
func (b *SampleBuffer) At(i int) float32 {
	if i < 0 || i >= b.Len() {
		return 0
	}
	return b.values[i]
}

// CopyTo copies the entries into dst and returns the number copied.
//
// Parameters:
//   - dst: the destination slice
//
// Returns:
//   - int: the number of entries copied
func (b *SampleBuffer) CopyTo(dst []float32) int {
	if b.Len() == 0 {
		return 0
	}
	return copy(dst, b.values)
}

// Release frees the entries. Calling Release more than once is a no-op.
func (b *SampleBuffer) Release() {
	if b == nil || b.released {
		return
	}
	b.values = nil
	b.released = true
}

// Released reports whether Release has been called.
func (b *SampleBuffer) Released() bool {
	return b == nil || b.released
}
