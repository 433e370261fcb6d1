package output

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device owns the wgpu instance, adapter, device and queue that pose uploads go through.
type Device struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewDevice requests a GPU device.
// When surfaceDescriptor is non-nil the adapter is required to be compatible with the surface it describes.
//
// Parameters:
//   - surfaceDescriptor: the window surface to stay compatible with, or nil for a headless device
//   - forceFallbackAdapter: if true, requests the software fallback adapter
//
// Returns:
//   - *Device: the device
//   - error: error if no adapter or device could be acquired
func NewDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*Device, error) {
	runtime.LockOSThread()

	d := &Device{
		instance: wgpu.CreateInstance(nil),
	}
	if surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Overlay Device",
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	return d, nil
}

// Queue returns the device queue.
func (d *Device) Queue() *wgpu.Queue {
	return d.queue
}

// AllocatePoseBuffers creates the storage buffers a GPUPoseSink uploads into and stores them on provider.
// The pose buffer holds boneCount GPUPoseBone entries; the curve buffer holds curveCount float32 values.
// Empty buffers are not created.
//
// Parameters:
//   - provider: the provider receiving the buffers
//   - poseBinding: the binding index for the pose buffer
//   - curveBinding: the binding index for the curve buffer
//   - boneCount: the number of skeleton bones
//   - curveCount: the number of sampled properties
//
// Returns:
//   - error: error if buffer creation fails
func (d *Device) AllocatePoseBuffers(provider BufferProvider, poseBinding, curveBinding, boneCount, curveCount int) error {
	if d.device == nil {
		return fmt.Errorf("device is not initialized")
	}

	sizes := map[int]int{
		poseBinding:  boneCount * GPUPoseBoneSize,
		curveBinding: curveCount * 4,
	}
	for binding, size := range sizes {
		if size == 0 {
			continue
		}
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s Binding %d", provider.Label(), binding),
			Size:  uint64(size),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		provider.SetBuffer(binding, buf)
	}
	return nil
}

// Release releases the queue, device, adapter, surface and instance. Safe to call more than once.
func (d *Device) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
