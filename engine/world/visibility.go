package world

import (
	"github.com/argon-engine/argon/engine/proxy"
)

// VisibilityResolver frustum-tests every live light and mesh proxy against
// the main camera once per frame and caches the surviving handles. Consumers
// (cluster culling, light packing, shadow assignment) iterate the cached
// handle lists and re-resolve them through the world at point of use, so a
// proxy destroyed mid-frame degrades to a silent skip rather than a dangling
// read.
//
// Resolve must be called after camera matrices are updated and before any
// consumer runs; the cached lists describe exactly one frame.
type VisibilityResolver interface {
	// Resolve recomputes the visible sets for the world's main camera. With
	// no valid main camera every set is empty.
	//
	// Parameters:
	//   - w: the world to resolve against
	Resolve(w RenderWorld)

	// VisibleLights returns the handles of enabled lights whose bounding
	// sphere intersects the main camera frustum. Directional lights carry an
	// infinite sphere and are always included.
	//
	// Returns:
	//   - []proxy.ProxyHandle: visible light handles in slot order
	VisibleLights() []proxy.ProxyHandle

	// VisibleMeshes returns the handles of static mesh proxies with the
	// Visible flag whose world bounds intersect the main camera frustum.
	//
	// Returns:
	//   - []proxy.ProxyHandle: visible static mesh handles in slot order
	VisibleMeshes() []proxy.ProxyHandle

	// VisibleSkinnedMeshes returns the handles of visible skinned mesh
	// proxies. The animation bounds are tested instead of the world bounds so
	// deforming skeletons cull conservatively.
	//
	// Returns:
	//   - []proxy.ProxyHandle: visible skinned mesh handles in slot order
	VisibleSkinnedMeshes() []proxy.ProxyHandle

	// IsLightVisible reports whether the handle survived the last Resolve.
	//
	// Parameters:
	//   - h: the light handle
	//
	// Returns:
	//   - bool: true if the light is in the visible set
	IsLightVisible(h proxy.ProxyHandle) bool
}

type visibilityResolver struct {
	lights        []proxy.ProxyHandle
	meshes        []proxy.ProxyHandle
	skinnedMeshes []proxy.ProxyHandle
	lightSet      map[proxy.ProxyHandle]struct{}
}

var _ VisibilityResolver = &visibilityResolver{}

// NewVisibilityResolver creates an empty resolver.
//
// Returns:
//   - VisibilityResolver: the new resolver
func NewVisibilityResolver() VisibilityResolver {
	return &visibilityResolver{
		lightSet: make(map[proxy.ProxyHandle]struct{}),
	}
}

func (v *visibilityResolver) Resolve(w RenderWorld) {
	v.lights = v.lights[:0]
	v.meshes = v.meshes[:0]
	v.skinnedMeshes = v.skinnedMeshes[:0]
	clear(v.lightSet)

	cam, ok := w.MainCameraProxy()
	if !ok {
		return
	}

	w.ForEachLight(func(h proxy.ProxyHandle, l *proxy.LightProxy) {
		if !l.Enabled {
			return
		}
		if !cam.IsVisibleSphere(l.GetBoundingSphere()) {
			return
		}
		v.lights = append(v.lights, h)
		v.lightSet[h] = struct{}{}
	})

	w.ForEachMeshProxy(func(h proxy.ProxyHandle, m *proxy.MeshProxy) {
		if !m.HasFlag(proxy.MeshFlagVisible) {
			return
		}
		if !cam.IsVisibleAABB(m.WorldBounds) {
			return
		}
		v.meshes = append(v.meshes, h)
	})

	w.ForEachSkinnedMeshProxy(func(h proxy.ProxyHandle, m *proxy.SkinnedMeshProxy) {
		if !m.HasFlag(proxy.MeshFlagVisible) {
			return
		}
		if !cam.IsVisibleAABB(m.AnimationBounds) {
			return
		}
		v.skinnedMeshes = append(v.skinnedMeshes, h)
	})
}

func (v *visibilityResolver) VisibleLights() []proxy.ProxyHandle {
	return v.lights
}

func (v *visibilityResolver) VisibleMeshes() []proxy.ProxyHandle {
	return v.meshes
}

func (v *visibilityResolver) VisibleSkinnedMeshes() []proxy.ProxyHandle {
	return v.skinnedMeshes
}

func (v *visibilityResolver) IsLightVisible(h proxy.ProxyHandle) bool {
	_, ok := v.lightSet[h]
	return ok
}
