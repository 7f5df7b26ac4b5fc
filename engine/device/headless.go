package device

import "fmt"

// headlessDevice is an in-memory Device used by the CPU culling fallback and
// by tests. Buffers are plain byte slices; Map/Unmap are direct views.
type headlessDevice struct {
	buffers []*headlessBuffer
}

var _ Device = &headlessDevice{}

// NewHeadlessDevice creates a Device whose buffers live in CPU memory.
// Useful for running the lighting pipeline without a GPU (tests, servers,
// tooling) while keeping the exact upload code paths.
//
// Returns:
//   - Device: the headless device
func NewHeadlessDevice() Device {
	return &headlessDevice{}
}

func (d *headlessDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("device: buffer %q must have non-zero size", label)
	}
	b := &headlessBuffer{
		label: label,
		usage: usage,
		data:  make([]byte, size),
	}
	d.buffers = append(d.buffers, b)
	return b, nil
}

// headlessBuffer is the in-memory Buffer implementation.
type headlessBuffer struct {
	label    string
	usage    BufferUsage
	data     []byte
	mapped   bool
	released bool
}

var _ Buffer = &headlessBuffer{}

func (b *headlessBuffer) Label() string {
	return b.label
}

func (b *headlessBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *headlessBuffer) Write(offset uint64, data []byte) error {
	if b.released {
		return fmt.Errorf("device: write to released buffer %q", b.label)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return errWriteRange(b.label, offset, len(data), uint64(len(b.data)))
	}
	copy(b.data[offset:], data)
	return nil
}

func (b *headlessBuffer) Map() ([]byte, error) {
	if b.released {
		return nil, fmt.Errorf("device: map of released buffer %q", b.label)
	}
	if b.mapped {
		return nil, fmt.Errorf("device: buffer %q is already mapped", b.label)
	}
	b.mapped = true
	return b.data, nil
}

func (b *headlessBuffer) Unmap() error {
	if !b.mapped {
		return fmt.Errorf("device: buffer %q is not mapped", b.label)
	}
	b.mapped = false
	return nil
}

func (b *headlessBuffer) Release() {
	b.released = true
	b.data = nil
}

// Bytes exposes the buffer contents for inspection. Only available on
// headless buffers; rendering code must never rely on it.
//
// Returns:
//   - []byte: the backing store (shared, do not modify)
func (b *headlessBuffer) Bytes() []byte {
	return b.data
}

// HeadlessBytes returns the contents of a buffer created by a headless device,
// or nil if the buffer belongs to a different device implementation.
//
// Parameters:
//   - buf: the buffer to inspect
//
// Returns:
//   - []byte: the backing store, or nil
func HeadlessBytes(buf Buffer) []byte {
	if hb, ok := buf.(*headlessBuffer); ok {
		return hb.Bytes()
	}
	return nil
}
