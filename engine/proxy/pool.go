package proxy

// Pool is a generation-counted slot allocator for one proxy value type.
// Slots are recycled LIFO through a free list; freeing a slot bumps its
// generation so every outstanding handle to it turns stale. The pool grows
// without bound — capacity limits live in the consumers (shadow atlas, light
// buffer), not here.
//
// Pools are not safe for concurrent use; all mutation happens on the render
// thread (see RenderWorld).
type Pool[T any] struct {
	values      []T
	generations []uint32
	alive       []bool
	freeList    []uint32
	activeCount int
}

// NewPool creates an empty pool with the given initial slot capacity.
//
// Parameters:
//   - capacity: initial capacity hint (0 is fine)
//
// Returns:
//   - *Pool[T]: the new pool
func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{
		values:      make([]T, 0, capacity),
		generations: make([]uint32, 0, capacity),
		alive:       make([]bool, 0, capacity),
		freeList:    make([]uint32, 0, capacity),
	}
}

// Allocate claims a slot and returns its handle. A recycled slot keeps the
// generation it was bumped to on Free; a fresh slot starts at generation 1.
// The slot's value is zeroed.
//
// Returns:
//   - ProxyHandle: handle to the claimed slot
func (p *Pool[T]) Allocate() ProxyHandle {
	var index uint32
	if n := len(p.freeList); n > 0 {
		index = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		var zero T
		p.values[index] = zero
		p.alive[index] = true
	} else {
		index = uint32(len(p.values))
		var zero T
		p.values = append(p.values, zero)
		p.generations = append(p.generations, 1)
		p.alive = append(p.alive, true)
	}
	p.activeCount++
	return ProxyHandle{Index: index, Generation: p.generations[index]}
}

// Free releases the slot the handle refers to. Invalid or stale handles are a
// no-op. The slot's generation is incremented, invalidating every outstanding
// handle to it, and the index is pushed onto the free list.
//
// Parameters:
//   - h: the handle to free
func (p *Pool[T]) Free(h ProxyHandle) {
	if !p.IsValid(h) {
		return
	}
	p.generations[h.Index]++
	p.alive[h.Index] = false
	p.freeList = append(p.freeList, h.Index)
	p.activeCount--
}

// IsValid reports whether the handle currently refers to a live slot.
//
// Parameters:
//   - h: the handle to check
//
// Returns:
//   - bool: true if the slot is live and the generation matches
func (p *Pool[T]) IsValid(h ProxyHandle) bool {
	if h.Index >= uint32(len(p.values)) {
		return false
	}
	return p.alive[h.Index] && p.generations[h.Index] == h.Generation
}

// Get resolves a handle to its value. Callers must treat a false return as a
// normal, frequent condition — the backing proxy may have been destroyed this
// frame — not an error.
//
// Parameters:
//   - h: the handle to resolve
//
// Returns:
//   - *T: pointer to the slot value, or nil
//   - bool: true if the handle is valid
func (p *Pool[T]) Get(h ProxyHandle) (*T, bool) {
	if !p.IsValid(h) {
		return nil, false
	}
	return &p.values[h.Index], true
}

// ForEach invokes the callback for every live slot. The per-slot alive flag
// makes the skip O(1) per slot instead of scanning the free list. The callback
// may mutate the value but must not allocate or free pool slots.
//
// Parameters:
//   - fn: callback receiving each live slot's handle and value
func (p *Pool[T]) ForEach(fn func(h ProxyHandle, v *T)) {
	for i := range p.values {
		if !p.alive[i] {
			continue
		}
		fn(ProxyHandle{Index: uint32(i), Generation: p.generations[i]}, &p.values[i])
	}
}

// ActiveCount returns the number of live slots.
//
// Returns:
//   - int: live slot count
func (p *Pool[T]) ActiveCount() int {
	return p.activeCount
}

// SlotCount returns the total number of slots ever allocated, live or free.
//
// Returns:
//   - int: total slot count
func (p *Pool[T]) SlotCount() int {
	return len(p.values)
}
