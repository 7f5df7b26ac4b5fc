package world

import (
	"github.com/argon-engine/argon/common"
	"github.com/argon-engine/argon/engine/proxy"
)

// RenderWorld is the single owner of every proxy pool for one scene. Typed
// factory methods allocate a pool slot, populate the proxy, and return its
// handle; the matching Destroy methods free the slot. Cross-references between
// subsystems (a light's shadow tile, a mesh's material) are plain integers
// resolved through the owning subsystem at point of use, never pointers.
//
// RenderWorld is not safe for concurrent use: all pool mutation happens on the
// render thread, once per frame, ahead of the lighting and upload passes.
type RenderWorld interface {
	// CreateCameraProxy allocates a camera proxy with a sane default basis
	// (looking down -Z, Y up) and perspective projection, then applies the
	// given options. UpdateMatrices must still be called before the camera's
	// matrices or frustum are read.
	//
	// Parameters:
	//   - opts: optional camera configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new camera
	CreateCameraProxy(opts ...CameraOption) proxy.ProxyHandle

	// DestroyCameraProxy frees the camera slot. Invalid handles are a no-op.
	// If the destroyed camera was the main camera, the main handle is cleared.
	//
	// Parameters:
	//   - h: the camera handle
	DestroyCameraProxy(h proxy.ProxyHandle)

	// Camera resolves a camera handle.
	//
	// Parameters:
	//   - h: the camera handle
	//
	// Returns:
	//   - *proxy.CameraProxy: the camera, or nil
	//   - bool: true if the handle is valid
	Camera(h proxy.ProxyHandle) (*proxy.CameraProxy, bool)

	// SetMainCamera records the handle returned by MainCamera. The handle is
	// not validated here; a stale main handle simply resolves to nothing.
	//
	// Parameters:
	//   - h: the camera handle to promote
	SetMainCamera(h proxy.ProxyHandle)

	// MainCamera returns the recorded main camera handle. May be stale or the
	// invalid sentinel; resolve it through Camera.
	//
	// Returns:
	//   - proxy.ProxyHandle: the main camera handle
	MainCamera() proxy.ProxyHandle

	// MainCameraProxy resolves the main camera handle in one step.
	//
	// Returns:
	//   - *proxy.CameraProxy: the main camera, or nil
	//   - bool: true if a valid main camera exists
	MainCameraProxy() (*proxy.CameraProxy, bool)

	// CreateDirectionalLight allocates an enabled directional light.
	//
	// Parameters:
	//   - direction: light travel direction (normalized internally)
	//   - color: linear RGB color
	//   - intensity: radiometric intensity multiplier
	//   - opts: optional light configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new light
	CreateDirectionalLight(direction, color [3]float32, intensity float32, opts ...LightOption) proxy.ProxyHandle

	// CreatePointLight allocates an enabled point light.
	//
	// Parameters:
	//   - position: world-space position
	//   - color: linear RGB color
	//   - intensity: radiometric intensity multiplier
	//   - lightRange: influence radius in world units
	//   - opts: optional light configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new light
	CreatePointLight(position, color [3]float32, intensity, lightRange float32, opts ...LightOption) proxy.ProxyHandle

	// CreateSpotLight allocates an enabled spot light. The cone half-angles
	// are given in degrees; inner is clamped to outer.
	//
	// Parameters:
	//   - position: world-space position of the cone tip
	//   - direction: cone axis (normalized internally)
	//   - color: linear RGB color
	//   - intensity: radiometric intensity multiplier
	//   - lightRange: cone length in world units
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	//   - opts: optional light configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new light
	CreateSpotLight(position, direction, color [3]float32, intensity, lightRange, innerDeg, outerDeg float32, opts ...LightOption) proxy.ProxyHandle

	// CreateAreaLight allocates an enabled area light.
	//
	// Parameters:
	//   - position: world-space center of the emitting surface
	//   - direction: surface normal (normalized internally)
	//   - color: linear RGB color
	//   - intensity: radiometric intensity multiplier
	//   - lightRange: influence radius in world units
	//   - size: width and height of the emitting surface
	//   - opts: optional light configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new light
	CreateAreaLight(position, direction, color [3]float32, intensity, lightRange float32, size [2]float32, opts ...LightOption) proxy.ProxyHandle

	// DestroyLight frees the light slot. Invalid handles are a no-op.
	//
	// Parameters:
	//   - h: the light handle
	DestroyLight(h proxy.ProxyHandle)

	// Light resolves a light handle.
	//
	// Parameters:
	//   - h: the light handle
	//
	// Returns:
	//   - *proxy.LightProxy: the light, or nil
	//   - bool: true if the handle is valid
	Light(h proxy.ProxyHandle) (*proxy.LightProxy, bool)

	// ForEachLight invokes the callback for every live light, enabled or not.
	// The callback may mutate the light but must not create or destroy lights.
	//
	// Parameters:
	//   - fn: callback receiving each light's handle and value
	ForEachLight(fn func(h proxy.ProxyHandle, l *proxy.LightProxy))

	// CreateStaticMeshProxy allocates a visible static mesh proxy with an
	// identity transform.
	//
	// Parameters:
	//   - mesh: GPU mesh handle
	//   - material: material instance handle
	//   - localBounds: object-space bounding box
	//   - opts: optional mesh configuration
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new mesh proxy
	CreateStaticMeshProxy(mesh proxy.MeshHandle, material proxy.MaterialHandle, localBounds common.AABB, opts ...MeshOption) proxy.ProxyHandle

	// DestroyMeshProxy frees the static mesh slot. Invalid handles are a no-op.
	//
	// Parameters:
	//   - h: the mesh proxy handle
	DestroyMeshProxy(h proxy.ProxyHandle)

	// MeshProxy resolves a static mesh handle.
	//
	// Parameters:
	//   - h: the mesh proxy handle
	//
	// Returns:
	//   - *proxy.MeshProxy: the mesh proxy, or nil
	//   - bool: true if the handle is valid
	MeshProxy(h proxy.ProxyHandle) (*proxy.MeshProxy, bool)

	// ForEachMeshProxy invokes the callback for every live static mesh proxy.
	//
	// Parameters:
	//   - fn: callback receiving each mesh proxy's handle and value
	ForEachMeshProxy(fn func(h proxy.ProxyHandle, m *proxy.MeshProxy))

	// CreateSkinnedMeshProxy allocates a visible skinned mesh proxy with an
	// identity transform.
	//
	// Parameters:
	//   - mesh: GPU mesh handle
	//   - material: material instance handle
	//   - boneBuffer: bone matrix buffer handle
	//   - localBounds: object-space bind-pose bounding box
	//   - opts: optional mesh configuration (applied to the embedded MeshProxy)
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new skinned mesh proxy
	CreateSkinnedMeshProxy(mesh proxy.MeshHandle, material proxy.MaterialHandle, boneBuffer proxy.BoneBufferHandle, localBounds common.AABB, opts ...MeshOption) proxy.ProxyHandle

	// DestroySkinnedMeshProxy frees the skinned mesh slot. Invalid handles are
	// a no-op.
	//
	// Parameters:
	//   - h: the skinned mesh proxy handle
	DestroySkinnedMeshProxy(h proxy.ProxyHandle)

	// SkinnedMeshProxy resolves a skinned mesh handle.
	//
	// Parameters:
	//   - h: the skinned mesh proxy handle
	//
	// Returns:
	//   - *proxy.SkinnedMeshProxy: the skinned mesh proxy, or nil
	//   - bool: true if the handle is valid
	SkinnedMeshProxy(h proxy.ProxyHandle) (*proxy.SkinnedMeshProxy, bool)

	// ForEachSkinnedMeshProxy invokes the callback for every live skinned mesh
	// proxy.
	//
	// Parameters:
	//   - fn: callback receiving each skinned mesh proxy's handle and value
	ForEachSkinnedMeshProxy(fn func(h proxy.ProxyHandle, m *proxy.SkinnedMeshProxy))

	// CreateSpriteProxy allocates a visible sprite proxy with a white color
	// and full UV rect.
	//
	// Parameters:
	//   - texture: GPU texture handle
	//   - position: world-space position
	//   - size: width and height in world units
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new sprite proxy
	CreateSpriteProxy(texture proxy.TextureHandle, position [3]float32, size [2]float32) proxy.ProxyHandle

	// DestroySpriteProxy frees the sprite slot. Invalid handles are a no-op.
	//
	// Parameters:
	//   - h: the sprite proxy handle
	DestroySpriteProxy(h proxy.ProxyHandle)

	// SpriteProxy resolves a sprite handle.
	//
	// Parameters:
	//   - h: the sprite proxy handle
	//
	// Returns:
	//   - *proxy.SpriteProxy: the sprite proxy, or nil
	//   - bool: true if the handle is valid
	SpriteProxy(h proxy.ProxyHandle) (*proxy.SpriteProxy, bool)

	// GetValidSpriteProxies returns every live, visible sprite proxy. The
	// returned pointers are valid until the next pool mutation; callers must
	// not hold them across frames.
	//
	// Returns:
	//   - []*proxy.SpriteProxy: visible sprites in slot order
	GetValidSpriteProxies() []*proxy.SpriteProxy

	// CreateTrailEmitterProxy allocates a visible trail emitter proxy.
	//
	// Parameters:
	//   - texture: GPU texture handle
	//   - position: world-space emitter position
	//   - width: trail width in world units
	//
	// Returns:
	//   - proxy.ProxyHandle: handle to the new trail emitter
	CreateTrailEmitterProxy(texture proxy.TextureHandle, position [3]float32, width float32) proxy.ProxyHandle

	// DestroyTrailEmitterProxy frees the trail emitter slot. Invalid handles
	// are a no-op.
	//
	// Parameters:
	//   - h: the trail emitter handle
	DestroyTrailEmitterProxy(h proxy.ProxyHandle)

	// TrailEmitterProxy resolves a trail emitter handle.
	//
	// Parameters:
	//   - h: the trail emitter handle
	//
	// Returns:
	//   - *proxy.TrailEmitterProxy: the trail emitter, or nil
	//   - bool: true if the handle is valid
	TrailEmitterProxy(h proxy.ProxyHandle) (*proxy.TrailEmitterProxy, bool)

	// LightCount returns the number of live lights.
	//
	// Returns:
	//   - int: live light count
	LightCount() int

	// MeshProxyCount returns the number of live static mesh proxies.
	//
	// Returns:
	//   - int: live static mesh proxy count
	MeshProxyCount() int

	// SkinnedMeshProxyCount returns the number of live skinned mesh proxies.
	//
	// Returns:
	//   - int: live skinned mesh proxy count
	SkinnedMeshProxyCount() int

	// CameraCount returns the number of live cameras.
	//
	// Returns:
	//   - int: live camera count
	CameraCount() int

	// SpriteProxyCount returns the number of live sprite proxies.
	//
	// Returns:
	//   - int: live sprite proxy count
	SpriteProxyCount() int

	// Clear frees every slot in every pool and resets the main camera handle.
	Clear()
}

type renderWorld struct {
	cameras      *proxy.Pool[proxy.CameraProxy]
	lights       *proxy.Pool[proxy.LightProxy]
	meshes       *proxy.Pool[proxy.MeshProxy]
	skinned      *proxy.Pool[proxy.SkinnedMeshProxy]
	sprites      *proxy.Pool[proxy.SpriteProxy]
	trails       *proxy.Pool[proxy.TrailEmitterProxy]
	mainCamera   proxy.ProxyHandle
	defaultLayer uint32
}

var _ RenderWorld = &renderWorld{}

func (w *renderWorld) CreateCameraProxy(opts ...CameraOption) proxy.ProxyHandle {
	h := w.cameras.Allocate()
	c, _ := w.cameras.Get(h)
	c.Forward = [3]float32{0, 0, -1}
	c.Up = [3]float32{0, 1, 0}
	c.Right = [3]float32{1, 0, 0}
	c.Projection = proxy.ProjectionPerspective
	c.FovY = common.DegToRad(60)
	c.Aspect = 16.0 / 9.0
	c.Near = 0.1
	c.Far = 1000
	for _, opt := range opts {
		opt(c)
	}
	return h
}

func (w *renderWorld) DestroyCameraProxy(h proxy.ProxyHandle) {
	w.cameras.Free(h)
	if w.mainCamera == h {
		w.mainCamera = proxy.InvalidHandle()
	}
}

func (w *renderWorld) Camera(h proxy.ProxyHandle) (*proxy.CameraProxy, bool) {
	return w.cameras.Get(h)
}

func (w *renderWorld) SetMainCamera(h proxy.ProxyHandle) {
	if c, ok := w.cameras.Get(w.mainCamera); ok {
		c.IsMainCamera = false
	}
	w.mainCamera = h
	if c, ok := w.cameras.Get(h); ok {
		c.IsMainCamera = true
	}
}

func (w *renderWorld) MainCamera() proxy.ProxyHandle {
	return w.mainCamera
}

func (w *renderWorld) MainCameraProxy() (*proxy.CameraProxy, bool) {
	return w.cameras.Get(w.mainCamera)
}

func (w *renderWorld) newLight(opts []LightOption) (proxy.ProxyHandle, *proxy.LightProxy) {
	h := w.lights.Allocate()
	l, _ := w.lights.Get(h)
	l.Enabled = true
	l.ShadowIndex = proxy.NoShadow
	l.LayerMask = w.defaultLayer
	for _, opt := range opts {
		opt(l)
	}
	return h, l
}

func (w *renderWorld) CreateDirectionalLight(direction, color [3]float32, intensity float32, opts ...LightOption) proxy.ProxyHandle {
	h, l := w.newLight(opts)
	l.Type = proxy.LightTypeDirectional
	l.SetDirection(direction[0], direction[1], direction[2])
	l.Color = color
	l.Intensity = intensity
	return h
}

func (w *renderWorld) CreatePointLight(position, color [3]float32, intensity, lightRange float32, opts ...LightOption) proxy.ProxyHandle {
	h, l := w.newLight(opts)
	l.Type = proxy.LightTypePoint
	l.Position = position
	l.Color = color
	l.Intensity = intensity
	l.Range = lightRange
	return h
}

func (w *renderWorld) CreateSpotLight(position, direction, color [3]float32, intensity, lightRange, innerDeg, outerDeg float32, opts ...LightOption) proxy.ProxyHandle {
	if innerDeg > outerDeg {
		innerDeg = outerDeg
	}
	h, l := w.newLight(opts)
	l.Type = proxy.LightTypeSpot
	l.Position = position
	l.SetDirection(direction[0], direction[1], direction[2])
	l.Color = color
	l.Intensity = intensity
	l.Range = lightRange
	l.SetSpotCone(innerDeg, outerDeg)
	return h
}

func (w *renderWorld) CreateAreaLight(position, direction, color [3]float32, intensity, lightRange float32, size [2]float32, opts ...LightOption) proxy.ProxyHandle {
	h, l := w.newLight(opts)
	l.Type = proxy.LightTypeArea
	l.Position = position
	l.SetDirection(direction[0], direction[1], direction[2])
	l.Color = color
	l.Intensity = intensity
	l.Range = lightRange
	l.AreaSize = size
	return h
}

func (w *renderWorld) DestroyLight(h proxy.ProxyHandle) {
	w.lights.Free(h)
}

func (w *renderWorld) Light(h proxy.ProxyHandle) (*proxy.LightProxy, bool) {
	return w.lights.Get(h)
}

func (w *renderWorld) ForEachLight(fn func(h proxy.ProxyHandle, l *proxy.LightProxy)) {
	w.lights.ForEach(fn)
}

func (w *renderWorld) CreateStaticMeshProxy(mesh proxy.MeshHandle, material proxy.MaterialHandle, localBounds common.AABB, opts ...MeshOption) proxy.ProxyHandle {
	h := w.meshes.Allocate()
	m, _ := w.meshes.Get(h)
	w.initMesh(m, mesh, material, localBounds, opts)
	return h
}

func (w *renderWorld) initMesh(m *proxy.MeshProxy, mesh proxy.MeshHandle, material proxy.MaterialHandle, localBounds common.AABB, opts []MeshOption) {
	m.Mesh = mesh
	m.Material = material
	m.LocalBounds = localBounds
	m.Flags = proxy.MeshFlagVisible | proxy.MeshFlagCastShadows | proxy.MeshFlagReceiveShadows
	m.LayerMask = w.defaultLayer
	var identity [16]float32
	common.Identity(identity[:])
	m.SetTransform(identity)
	m.PrevWorldMatrix = identity
	for _, opt := range opts {
		opt(m)
	}
}

func (w *renderWorld) DestroyMeshProxy(h proxy.ProxyHandle) {
	w.meshes.Free(h)
}

func (w *renderWorld) MeshProxy(h proxy.ProxyHandle) (*proxy.MeshProxy, bool) {
	return w.meshes.Get(h)
}

func (w *renderWorld) ForEachMeshProxy(fn func(h proxy.ProxyHandle, m *proxy.MeshProxy)) {
	w.meshes.ForEach(fn)
}

func (w *renderWorld) CreateSkinnedMeshProxy(mesh proxy.MeshHandle, material proxy.MaterialHandle, boneBuffer proxy.BoneBufferHandle, localBounds common.AABB, opts ...MeshOption) proxy.ProxyHandle {
	h := w.skinned.Allocate()
	s, _ := w.skinned.Get(h)
	w.initMesh(&s.MeshProxy, mesh, material, localBounds, opts)
	s.BoneBuffer = boneBuffer
	s.ResetAnimationBounds()
	return h
}

func (w *renderWorld) DestroySkinnedMeshProxy(h proxy.ProxyHandle) {
	w.skinned.Free(h)
}

func (w *renderWorld) SkinnedMeshProxy(h proxy.ProxyHandle) (*proxy.SkinnedMeshProxy, bool) {
	return w.skinned.Get(h)
}

func (w *renderWorld) ForEachSkinnedMeshProxy(fn func(h proxy.ProxyHandle, m *proxy.SkinnedMeshProxy)) {
	w.skinned.ForEach(fn)
}

func (w *renderWorld) CreateSpriteProxy(texture proxy.TextureHandle, position [3]float32, size [2]float32) proxy.ProxyHandle {
	h := w.sprites.Allocate()
	s, _ := w.sprites.Get(h)
	s.Texture = texture
	s.Position = position
	s.Size = size
	s.Color = [4]float32{1, 1, 1, 1}
	s.UVRect = [4]float32{0, 0, 1, 1}
	s.Visible = true
	s.LayerMask = w.defaultLayer
	return h
}

func (w *renderWorld) DestroySpriteProxy(h proxy.ProxyHandle) {
	w.sprites.Free(h)
}

func (w *renderWorld) SpriteProxy(h proxy.ProxyHandle) (*proxy.SpriteProxy, bool) {
	return w.sprites.Get(h)
}

func (w *renderWorld) GetValidSpriteProxies() []*proxy.SpriteProxy {
	out := make([]*proxy.SpriteProxy, 0, w.sprites.ActiveCount())
	w.sprites.ForEach(func(_ proxy.ProxyHandle, s *proxy.SpriteProxy) {
		if s.Visible {
			out = append(out, s)
		}
	})
	return out
}

func (w *renderWorld) CreateTrailEmitterProxy(texture proxy.TextureHandle, position [3]float32, width float32) proxy.ProxyHandle {
	h := w.trails.Allocate()
	t, _ := w.trails.Get(h)
	t.Texture = texture
	t.Position = position
	t.Width = width
	t.Color = [4]float32{1, 1, 1, 1}
	t.FadeTime = 1
	t.MaxPoints = 64
	t.Visible = true
	t.LayerMask = w.defaultLayer
	return h
}

func (w *renderWorld) DestroyTrailEmitterProxy(h proxy.ProxyHandle) {
	w.trails.Free(h)
}

func (w *renderWorld) TrailEmitterProxy(h proxy.ProxyHandle) (*proxy.TrailEmitterProxy, bool) {
	return w.trails.Get(h)
}

func (w *renderWorld) LightCount() int            { return w.lights.ActiveCount() }
func (w *renderWorld) MeshProxyCount() int        { return w.meshes.ActiveCount() }
func (w *renderWorld) SkinnedMeshProxyCount() int { return w.skinned.ActiveCount() }
func (w *renderWorld) CameraCount() int           { return w.cameras.ActiveCount() }
func (w *renderWorld) SpriteProxyCount() int      { return w.sprites.ActiveCount() }

func (w *renderWorld) Clear() {
	clearPool(w.cameras)
	clearPool(w.lights)
	clearPool(w.meshes)
	clearPool(w.skinned)
	clearPool(w.sprites)
	clearPool(w.trails)
	w.mainCamera = proxy.InvalidHandle()
}

func clearPool[T any](p *proxy.Pool[T]) {
	handles := make([]proxy.ProxyHandle, 0, p.ActiveCount())
	p.ForEach(func(h proxy.ProxyHandle, _ *T) { handles = append(handles, h) })
	for _, h := range handles {
		p.Free(h)
	}
}
