package proxy

import (
	"github.com/argon-engine/argon/common"
)

// MeshHandle references a GPU mesh (vertex/index buffers) owned by the
// rendering backend. Opaque to this core.
type MeshHandle uint32

// MaterialHandle references a material instance owned by the material system.
// Opaque to this core.
type MaterialHandle uint32

// BoneBufferHandle references a GPU bone-matrix buffer owned by the animation
// backend. Opaque to this core.
type BoneBufferHandle uint32

// MeshProxyFlags is the per-proxy flag bitset.
type MeshProxyFlags uint32

const (
	// MeshFlagVisible marks the proxy for rendering this frame.
	MeshFlagVisible MeshProxyFlags = 1 << iota
	// MeshFlagCastShadows includes the proxy in shadow passes.
	MeshFlagCastShadows
	// MeshFlagReceiveShadows samples shadow maps when shading the proxy.
	MeshFlagReceiveShadows
	// MeshFlagMotionVectors writes motion vectors using PrevWorldMatrix.
	MeshFlagMotionVectors
	// MeshFlagStatic marks the proxy as never moving after creation.
	MeshFlagStatic
)

// MeshProxy is the render-side state of one static mesh instance. Derived
// data (world bounds, normal matrix, previous world matrix) is recomputed only
// through SetTransform, never mutated independently.
type MeshProxy struct {
	Mesh     MeshHandle
	Material MaterialHandle

	WorldMatrix     [16]float32
	PrevWorldMatrix [16]float32
	NormalMatrix    [16]float32

	LocalBounds common.AABB
	WorldBounds common.AABB

	Flags     MeshProxyFlags
	LODLevel  uint8
	LayerMask uint32
	SortKey   uint64
}

// SetTransform updates the world matrix and everything derived from it: the
// previous world matrix rotates forward (for motion vectors), the normal
// matrix is recomputed as transpose(inverse(world)), and the local bounds are
// re-transformed into world space.
//
// Parameters:
//   - world: the new world matrix (16 elements, column-major)
func (m *MeshProxy) SetTransform(world [16]float32) {
	m.PrevWorldMatrix = m.WorldMatrix
	m.WorldMatrix = world
	common.NormalMatrix(m.NormalMatrix[:], world[:])
	m.WorldBounds = common.TransformAABB(world[:], m.LocalBounds)
}

// HasFlag reports whether all given flags are set.
//
// Parameters:
//   - f: the flags to test
//
// Returns:
//   - bool: true if every flag in f is set
func (m *MeshProxy) HasFlag(f MeshProxyFlags) bool {
	return m.Flags&f == f
}

// SetFlag sets or clears the given flags.
//
// Parameters:
//   - f: the flags to change
//   - on: true to set, false to clear
func (m *MeshProxy) SetFlag(f MeshProxyFlags, on bool) {
	if on {
		m.Flags |= f
	} else {
		m.Flags &^= f
	}
}

// SkinnedMeshProxy is a MeshProxy with a bone buffer and an animation-expanded
// bounds. AnimationBounds tracks the union of the world bounds over recent
// animation poses so culling stays conservative while the skeleton deforms
// beyond the bind-pose bounds.
type SkinnedMeshProxy struct {
	MeshProxy

	BoneBuffer BoneBufferHandle

	AnimationBounds common.AABB
}

// SetTransform updates the transform as MeshProxy.SetTransform does and grows
// the animation bounds to include the new world bounds.
//
// Parameters:
//   - world: the new world matrix (16 elements, column-major)
func (s *SkinnedMeshProxy) SetTransform(world [16]float32) {
	s.MeshProxy.SetTransform(world)
	s.AnimationBounds = s.AnimationBounds.Union(s.WorldBounds)
}

// ResetAnimationBounds collapses the animation bounds back to the current
// world bounds. Called when an animation clip changes or loops.
func (s *SkinnedMeshProxy) ResetAnimationBounds() {
	s.AnimationBounds = s.WorldBounds
}
