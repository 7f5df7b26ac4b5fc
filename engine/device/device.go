package device

import "fmt"

// BufferUsage describes how a GPU buffer will be used. Usages can be combined
// with a bitwise OR.
type BufferUsage uint32

const (
	// BufferUsageUniform marks a buffer bindable as a shader uniform block.
	BufferUsageUniform BufferUsage = 1 << iota
	// BufferUsageStorage marks a buffer bindable as a shader storage buffer.
	BufferUsageStorage
	// BufferUsageCopyDst marks a buffer as a valid destination for queue writes.
	BufferUsageCopyDst
)

// Buffer is a GPU buffer owned by a Device. The render core only needs byte
// writes and a map/copy/unmap path for per-frame uploads; everything else
// (binding, dispatch) happens in the rendering backend.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Size returns the buffer capacity in bytes.
	//
	// Returns:
	//   - uint64: the capacity in bytes
	Size() uint64

	// Write copies data into the buffer at the given byte offset.
	//
	// Parameters:
	//   - offset: destination byte offset
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: error if the write would exceed the buffer capacity
	Write(offset uint64, data []byte) error

	// Map returns a CPU-writable view of the full buffer. The view's contents
	// are transferred to the GPU on Unmap. Callers must not retain the slice
	// past Unmap.
	//
	// Returns:
	//   - []byte: a writable view sized to the buffer capacity
	//   - error: error if the buffer cannot be mapped
	Map() ([]byte, error)

	// Unmap commits the mapped contents and invalidates the view returned by Map.
	//
	// Returns:
	//   - error: error if the buffer was not mapped
	Unmap() error

	// Release frees the GPU resource. The buffer must not be used afterwards.
	Release()
}

// Device creates GPU resources for the render core. Two implementations exist:
// a WebGPU-backed device for rendering and a headless in-memory device for the
// CPU fallback path and tests.
type Device interface {
	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - size: capacity in bytes (must be > 0)
	//   - usage: intended usage flags
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: error if allocation fails
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)
}

// errWriteRange builds the error returned when a buffer write exceeds capacity.
func errWriteRange(label string, offset uint64, n int, size uint64) error {
	return fmt.Errorf("device: write of %d bytes at offset %d exceeds buffer %q capacity %d", n, offset, label, size)
}
