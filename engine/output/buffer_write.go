package output

// BufferWrite describes a single GPU buffer write targeting a binding on a BufferProvider at a byte offset.
type BufferWrite struct {
	Provider BufferProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
