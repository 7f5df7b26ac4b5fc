package world

import (
	"github.com/argon-engine/argon/common"
	"github.com/argon-engine/argon/engine/proxy"
)

// RenderWorldBuilderOption is a functional option for configuring a
// RenderWorld. Use the With* functions to create options.
type RenderWorldBuilderOption func(w *renderWorld)

// WithPoolCapacity sets the initial slot capacity hint used for every proxy
// pool. Pools grow past it without error; the hint only avoids early
// re-allocations. Defaults to 64.
//
// Parameters:
//   - capacity: initial per-pool capacity (minimum 0)
//
// Returns:
//   - RenderWorldBuilderOption: option function to apply
func WithPoolCapacity(capacity int) RenderWorldBuilderOption {
	return func(w *renderWorld) {
		if capacity < 0 {
			capacity = 0
		}
		w.cameras = proxy.NewPool[proxy.CameraProxy](capacity)
		w.lights = proxy.NewPool[proxy.LightProxy](capacity)
		w.meshes = proxy.NewPool[proxy.MeshProxy](capacity)
		w.skinned = proxy.NewPool[proxy.SkinnedMeshProxy](capacity)
		w.sprites = proxy.NewPool[proxy.SpriteProxy](capacity)
		w.trails = proxy.NewPool[proxy.TrailEmitterProxy](capacity)
	}
}

// WithDefaultLayerMask sets the layer mask stamped onto newly created lights,
// meshes, sprites, and trail emitters. Defaults to 1 (layer 0 only).
//
// Parameters:
//   - mask: the default layer mask
//
// Returns:
//   - RenderWorldBuilderOption: option function to apply
func WithDefaultLayerMask(mask uint32) RenderWorldBuilderOption {
	return func(w *renderWorld) {
		w.defaultLayer = mask
	}
}

// NewRenderWorld creates an empty RenderWorld with default pool capacities
// and no main camera.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - RenderWorld: the new world
func NewRenderWorld(opts ...RenderWorldBuilderOption) RenderWorld {
	w := &renderWorld{
		mainCamera:   proxy.InvalidHandle(),
		defaultLayer: 1,
	}
	WithPoolCapacity(64)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CameraOption configures a camera proxy at creation time.
type CameraOption func(c *proxy.CameraProxy)

// WithPerspective sets a perspective projection.
//
// Parameters:
//   - fovYDeg: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width/height)
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraOption: option function to apply
func WithPerspective(fovYDeg, aspect, near, far float32) CameraOption {
	return func(c *proxy.CameraProxy) {
		c.Projection = proxy.ProjectionPerspective
		c.FovY = common.DegToRad(fovYDeg)
		c.Aspect = aspect
		c.Near = near
		c.Far = far
	}
}

// WithOrthographic sets an orthographic projection.
//
// Parameters:
//   - halfHeight: vertical half-extent in world units
//   - aspect: viewport aspect ratio (width/height)
//   - near: near plane distance
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraOption: option function to apply
func WithOrthographic(halfHeight, aspect, near, far float32) CameraOption {
	return func(c *proxy.CameraProxy) {
		c.Projection = proxy.ProjectionOrthographic
		c.OrthoSize = halfHeight
		c.Aspect = aspect
		c.Near = near
		c.Far = far
	}
}

// WithCameraPose sets the camera position and orientation. The basis is
// re-orthonormalized from forward and up.
//
// Parameters:
//   - position: world-space position
//   - forward: view direction
//   - up: approximate up vector
//
// Returns:
//   - CameraOption: option function to apply
func WithCameraPose(position, forward, up [3]float32) CameraOption {
	return func(c *proxy.CameraProxy) {
		c.Position = position
		c.SetBasis(forward, up)
	}
}

// WithCameraPriority sets the camera priority used to order multi-camera
// rendering. Higher renders later (on top).
//
// Parameters:
//   - priority: the priority value
//
// Returns:
//   - CameraOption: option function to apply
func WithCameraPriority(priority int32) CameraOption {
	return func(c *proxy.CameraProxy) {
		c.Priority = priority
	}
}

// LightOption configures a light proxy at creation time.
type LightOption func(l *proxy.LightProxy)

// WithShadows marks the light as a shadow caster and sets its depth biases.
//
// Parameters:
//   - bias: constant depth bias
//   - normalBias: bias scaled along the surface normal
//
// Returns:
//   - LightOption: option function to apply
func WithShadows(bias, normalBias float32) LightOption {
	return func(l *proxy.LightProxy) {
		l.CastsShadows = true
		l.ShadowBias = bias
		l.ShadowNormalBias = normalBias
	}
}

// WithLightLayerMask overrides the light's layer mask.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - LightOption: option function to apply
func WithLightLayerMask(mask uint32) LightOption {
	return func(l *proxy.LightProxy) {
		l.LayerMask = mask
	}
}

// WithDisabled creates the light disabled; it occupies a pool slot but is
// skipped by culling and packing until re-enabled.
//
// Returns:
//   - LightOption: option function to apply
func WithDisabled() LightOption {
	return func(l *proxy.LightProxy) {
		l.Enabled = false
	}
}

// WithAreaShape sets the emitting surface shape of an area light.
//
// Parameters:
//   - shape: rect or disc
//
// Returns:
//   - LightOption: option function to apply
func WithAreaShape(shape proxy.AreaShape) LightOption {
	return func(l *proxy.LightProxy) {
		l.AreaShape = shape
	}
}

// MeshOption configures a mesh proxy at creation time.
type MeshOption func(m *proxy.MeshProxy)

// WithMeshFlags replaces the default flag set (Visible | CastShadows |
// ReceiveShadows).
//
// Parameters:
//   - flags: the flag set to use
//
// Returns:
//   - MeshOption: option function to apply
func WithMeshFlags(flags proxy.MeshProxyFlags) MeshOption {
	return func(m *proxy.MeshProxy) {
		m.Flags = flags
	}
}

// WithMeshTransform sets the initial world matrix, recomputing the derived
// normal matrix and world bounds.
//
// Parameters:
//   - world: the world matrix (16 elements, column-major)
//
// Returns:
//   - MeshOption: option function to apply
func WithMeshTransform(world [16]float32) MeshOption {
	return func(m *proxy.MeshProxy) {
		m.SetTransform(world)
		m.PrevWorldMatrix = world
	}
}

// WithMeshLayerMask overrides the mesh's layer mask.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - MeshOption: option function to apply
func WithMeshLayerMask(mask uint32) MeshOption {
	return func(m *proxy.MeshProxy) {
		m.LayerMask = mask
	}
}

// WithLODLevel sets the initial LOD level.
//
// Parameters:
//   - level: the LOD level
//
// Returns:
//   - MeshOption: option function to apply
func WithLODLevel(level uint8) MeshOption {
	return func(m *proxy.MeshProxy) {
		m.LODLevel = level
	}
}

// WithSortKey sets the draw-ordering sort key.
//
// Parameters:
//   - key: the sort key
//
// Returns:
//   - MeshOption: option function to apply
func WithSortKey(key uint64) MeshOption {
	return func(m *proxy.MeshProxy) {
		m.SortKey = key
	}
}
