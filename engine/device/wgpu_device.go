package device

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice is the WebGPU-backed Device implementation. It wraps the wgpu
// device/queue pair owned by the rendering backend.
type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps a wgpu device and queue as a Device. Panics if either is
// nil, since the caller is handing over half-initialized GPU state.
//
// Parameters:
//   - dev: the wgpu device
//   - queue: the wgpu queue used for buffer writes
//
// Returns:
//   - Device: the WebGPU-backed device
func NewWGPUDevice(dev *wgpu.Device, queue *wgpu.Queue) Device {
	if dev == nil {
		panic("device: NewWGPUDevice requires a non-nil wgpu.Device")
	}
	if queue == nil {
		panic("device: NewWGPUDevice requires a non-nil wgpu.Queue")
	}
	return &wgpuDevice{device: dev, queue: queue}
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("device: buffer %q must have non-zero size", label)
	}

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            toWGPUUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("device: failed to create buffer %q: %w", label, err)
	}

	return &wgpuBuffer{
		label: label,
		size:  size,
		buf:   buf,
		queue: d.queue,
	}, nil
}

// toWGPUUsage translates the core usage flags to wgpu usage flags. CopyDst is
// always added since every buffer in this core is written from the CPU.
func toWGPUUsage(usage BufferUsage) wgpu.BufferUsage {
	out := wgpu.BufferUsageCopyDst
	if usage&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if usage&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	return out
}

// wgpuBuffer adapts a *wgpu.Buffer to the Buffer interface. Map/Unmap use a
// CPU staging slice flushed through queue.WriteBuffer on Unmap; wgpu's own
// async mapping is unnecessary for write-only per-frame uploads.
type wgpuBuffer struct {
	label   string
	size    uint64
	buf     *wgpu.Buffer
	queue   *wgpu.Queue
	staging []byte
}

var _ Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.size {
		return errWriteRange(b.label, offset, len(data), b.size)
	}
	b.queue.WriteBuffer(b.buf, offset, data)
	return nil
}

func (b *wgpuBuffer) Map() ([]byte, error) {
	if b.staging != nil {
		return nil, fmt.Errorf("device: buffer %q is already mapped", b.label)
	}
	b.staging = make([]byte, b.size)
	return b.staging, nil
}

func (b *wgpuBuffer) Unmap() error {
	if b.staging == nil {
		return fmt.Errorf("device: buffer %q is not mapped", b.label)
	}
	b.queue.WriteBuffer(b.buf, 0, b.staging)
	b.staging = nil
	return nil
}

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
	b.staging = nil
}

// Raw exposes the underlying wgpu buffer for bind group creation in the
// rendering backend.
//
// Returns:
//   - *wgpu.Buffer: the wrapped buffer
func (b *wgpuBuffer) Raw() *wgpu.Buffer {
	return b.buf
}

// RawWGPUBuffer returns the underlying *wgpu.Buffer of a buffer created by a
// WebGPU device, or nil for other implementations. Rendering backends use this
// to bind the core's buffers into pipelines.
//
// Parameters:
//   - buf: the buffer to unwrap
//
// Returns:
//   - *wgpu.Buffer: the wrapped buffer, or nil
func RawWGPUBuffer(buf Buffer) *wgpu.Buffer {
	if wb, ok := buf.(*wgpuBuffer); ok {
		return wb.Raw()
	}
	return nil
}
