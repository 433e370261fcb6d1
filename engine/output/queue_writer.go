package output

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// QueueWriter uploads staged data into GPU buffers.
type QueueWriter interface {
	// WriteBuffer copies data into buf at the byte offset.
	//
	// Parameters:
	//   - buf: the destination GPU buffer
	//   - offset: the byte offset into buf
	//   - data: the bytes to upload
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// wgpuQueueWriter writes through a wgpu device queue.
type wgpuQueueWriter struct {
	queue *wgpu.Queue
}

// NewQueueWriter wraps a wgpu device queue.
//
// Parameters:
//   - queue: the device queue
//
// Returns:
//   - QueueWriter: a writer submitting through queue
func NewQueueWriter(queue *wgpu.Queue) QueueWriter {
	return &wgpuQueueWriter{queue: queue}
}

func (w *wgpuQueueWriter) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	// wgpu copies data internally, so staging buffers can be reused after the call.
	w.queue.WriteBuffer(buf, offset, data)
}

// Flush uploads each write whose provider holds a buffer for its binding and returns the number uploaded.
// Writes targeting a missing buffer are skipped.
//
// Parameters:
//   - w: the queue writer
//   - writes: the staged writes
//
// Returns:
//   - int: the number of writes uploaded
func Flush(w QueueWriter, writes []BufferWrite) int {
	n := 0
	for _, bw := range writes {
		if bw.Provider == nil {
			continue
		}
		buf := bw.Provider.Buffer(bw.Binding)
		if buf == nil {
			continue
		}
		w.WriteBuffer(buf, bw.Offset, bw.Data)
		n++
	}
	return n
}
