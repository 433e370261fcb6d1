package curve

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-overlay/engine/animation"
	"github.com/Carmen-Shannon/oxy-overlay/engine/playable"
)

// Sample reads every property in table from pose into dst, index-aligned.
// Entries beyond the shorter of the table and dst are left untouched.
//
// Parameters:
//   - table: the bound properties
//   - pose: the evaluated pose
//   - dst: the destination values
func Sample(table *BindingTable, pose *animation.Pose, dst []float32) {
	sampleRange(table, pose, dst, 0, min(table.Len(), len(dst)))
}

func sampleRange(table *BindingTable, pose *animation.Pose, dst []float32, start, end int) {
	for i := start; i < end; i++ {
		dst[i] = table.handles[i].read(pose)
	}
}

// ReadCurveJob is the curve sampler stage: a script node job that copies the bound properties of the pose
// flowing through it into a SampleBuffer. The pose itself passes through unmodified.
//
// With a worker pool and a batch size configured, tables larger than one batch are split into contiguous
// batches sampled in parallel; ProcessAnimation returns only after every batch has been written.
type ReadCurveJob struct {
	table  *BindingTable
	buffer *SampleBuffer

	pool      worker.DynamicWorkerPool
	batchSize int
	wg        *sync.WaitGroup
}

var _ playable.AnimationJob = &ReadCurveJob{}

// ReadCurveJobBuilderOption is a functional option for configuring a ReadCurveJob.
type ReadCurveJobBuilderOption func(*ReadCurveJob)

// WithWorkerPool is an option builder that fans large tables out across a worker pool.
// The pool is borrowed; the job never stops it.
//
// Parameters:
//   - pool: the worker pool
//   - batchSize: the number of entries per task; values below 1 disable fan-out
//
// Returns:
//   - ReadCurveJobBuilderOption: a function that applies the pool option to a ReadCurveJob
func WithWorkerPool(pool worker.DynamicWorkerPool, batchSize int) ReadCurveJobBuilderOption {
	return func(j *ReadCurveJob) {
		j.pool = pool
		j.batchSize = batchSize
	}
}

// NewReadCurveJob creates the sampler job over a bound table and its buffer.
//
// Parameters:
//   - table: the bound properties
//   - buffer: the buffer receiving the values, sized to table.Len()
//   - options: variadic list of ReadCurveJobBuilderOption functions
//
// Returns:
//   - *ReadCurveJob: the new job
func NewReadCurveJob(table *BindingTable, buffer *SampleBuffer, options ...ReadCurveJobBuilderOption) *ReadCurveJob {
	j := &ReadCurveJob{
		table:  table,
		buffer: buffer,
		wg:     &sync.WaitGroup{},
	}
	for _, opt := range options {
		opt(j)
	}
	return j
}

// ProcessAnimation samples the bound properties of pose into the buffer.
// Does nothing once the table or buffer has been released.
func (j *ReadCurveJob) ProcessAnimation(pose *animation.Pose) {
	if j.table.Released() || j.buffer.Released() {
		return
	}
	n := min(j.table.Len(), j.buffer.Len())
	dst := j.buffer.values

	if j.pool == nil || j.batchSize < 1 || n <= j.batchSize {
		sampleRange(j.table, pose, dst, 0, n)
		return
	}

	taskID := 0
	for start := 0; start < n; start += j.batchSize {
		end := min(start+j.batchSize, n)
		j.wg.Add(1)
		s, e := start, end
		j.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer j.wg.Done()
				sampleRange(j.table, pose, dst, s, e)
				return nil, nil
			},
		})
		taskID++
	}
	j.wg.Wait()
}
