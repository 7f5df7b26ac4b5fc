package world

import (
	"testing"

	"github.com/argon-engine/argon/common"
	"github.com/argon-engine/argon/engine/proxy"
)

func TestRenderWorld_LightFactories(t *testing.T) {
	w := NewRenderWorld()

	dir := w.CreateDirectionalLight([3]float32{0, -2, 0}, [3]float32{1, 1, 1}, 3)
	point := w.CreatePointLight([3]float32{1, 2, 3}, [3]float32{1, 0, 0}, 5, 10)
	spot := w.CreateSpotLight([3]float32{0, 5, 0}, [3]float32{0, -1, 0}, [3]float32{0, 1, 0}, 2, 8, 20, 30)
	area := w.CreateAreaLight([3]float32{0, 3, 0}, [3]float32{0, -1, 0}, [3]float32{0, 0, 1}, 1, 4, [2]float32{2, 1})

	if w.LightCount() != 4 {
		t.Fatalf("LightCount() = %d, want 4", w.LightCount())
	}

	l, ok := w.Light(dir)
	if !ok || l.Type != proxy.LightTypeDirectional {
		t.Fatalf("directional lookup failed: ok=%v type=%v", ok, l)
	}
	if l.Direction[1] != -1 {
		t.Errorf("direction not normalized: %v", l.Direction)
	}
	if !l.Enabled || l.ShadowIndex != proxy.NoShadow {
		t.Errorf("defaults wrong: enabled=%v shadowIndex=%d", l.Enabled, l.ShadowIndex)
	}

	if l, _ := w.Light(point); l.Type != proxy.LightTypePoint || l.Range != 10 {
		t.Errorf("point light = %+v", l)
	}
	if l, _ := w.Light(spot); l.Type != proxy.LightTypeSpot || l.OuterConeAngle <= l.InnerConeAngle {
		t.Errorf("spot light cone = inner %v outer %v", l.InnerConeAngle, l.OuterConeAngle)
	}
	if l, _ := w.Light(area); l.Type != proxy.LightTypeArea || l.AreaSize != [2]float32{2, 1} {
		t.Errorf("area light = %+v", l)
	}
}

func TestRenderWorld_SpotInnerClampedToOuter(t *testing.T) {
	w := NewRenderWorld()
	h := w.CreateSpotLight([3]float32{}, [3]float32{0, 0, -1}, [3]float32{1, 1, 1}, 1, 5, 60, 30)
	l, _ := w.Light(h)
	if l.InnerConeAngle > l.OuterConeAngle {
		t.Fatalf("inner %v must not exceed outer %v", l.InnerConeAngle, l.OuterConeAngle)
	}
}

func TestRenderWorld_DestroyInvalidatesHandle(t *testing.T) {
	w := NewRenderWorld()
	h := w.CreatePointLight([3]float32{}, [3]float32{1, 1, 1}, 1, 5)

	w.DestroyLight(h)
	if _, ok := w.Light(h); ok {
		t.Fatal("destroyed light still resolves")
	}
	if w.LightCount() != 0 {
		t.Fatalf("LightCount() = %d after destroy", w.LightCount())
	}

	// Destroying again is a silent no-op.
	w.DestroyLight(h)
}

func TestRenderWorld_MainCamera(t *testing.T) {
	w := NewRenderWorld()

	if _, ok := w.MainCameraProxy(); ok {
		t.Fatal("empty world must not report a main camera")
	}

	a := w.CreateCameraProxy()
	b := w.CreateCameraProxy(WithCameraPriority(10))

	w.SetMainCamera(a)
	if cam, ok := w.MainCameraProxy(); !ok || !cam.IsMainCamera {
		t.Fatal("main camera not resolvable after SetMainCamera")
	}

	w.SetMainCamera(b)
	if camA, _ := w.Camera(a); camA.IsMainCamera {
		t.Fatal("previous main camera still flagged")
	}
	if w.MainCamera() != b {
		t.Fatal("MainCamera() must return the promoted handle")
	}

	w.DestroyCameraProxy(b)
	if _, ok := w.MainCameraProxy(); ok {
		t.Fatal("destroyed main camera must not resolve")
	}
}

func TestRenderWorld_CameraOptions(t *testing.T) {
	w := NewRenderWorld()
	h := w.CreateCameraProxy(
		WithPerspective(90, 2, 0.5, 200),
		WithCameraPose([3]float32{0, 1, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}),
	)
	c, _ := w.Camera(h)
	if c.Aspect != 2 || c.Near != 0.5 || c.Far != 200 {
		t.Fatalf("projection params = %+v", c)
	}
	if c.Position != [3]float32{0, 1, 0} {
		t.Fatalf("position = %v", c.Position)
	}

	ortho := w.CreateCameraProxy(WithOrthographic(5, 1, 0, 50))
	if c, _ := w.Camera(ortho); c.Projection != proxy.ProjectionOrthographic || c.OrthoSize != 5 {
		t.Fatalf("ortho camera = %+v", c)
	}
}

func TestRenderWorld_MeshProxies(t *testing.T) {
	w := NewRenderWorld()
	bounds := common.AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}

	h := w.CreateStaticMeshProxy(proxy.MeshHandle(4), proxy.MaterialHandle(7), bounds)
	m, ok := w.MeshProxy(h)
	if !ok {
		t.Fatal("mesh lookup failed")
	}
	if !m.HasFlag(proxy.MeshFlagVisible) || !m.HasFlag(proxy.MeshFlagCastShadows) {
		t.Errorf("default flags = %b", m.Flags)
	}
	// Identity transform means world bounds equal local bounds.
	if m.WorldBounds != bounds {
		t.Errorf("world bounds = %+v", m.WorldBounds)
	}

	var world [16]float32
	common.BuildModelMatrix(world[:], 5, 0, 0, 0, 0, 0, 1, 1, 1)
	sk := w.CreateSkinnedMeshProxy(proxy.MeshHandle(1), proxy.MaterialHandle(2), proxy.BoneBufferHandle(9), bounds, WithMeshTransform(world))
	s, ok := w.SkinnedMeshProxy(sk)
	if !ok || s.BoneBuffer != 9 {
		t.Fatalf("skinned lookup = %v %+v", ok, s)
	}
	if s.AnimationBounds != s.WorldBounds {
		t.Errorf("fresh skinned proxy animation bounds = %+v, world = %+v", s.AnimationBounds, s.WorldBounds)
	}

	if w.MeshProxyCount() != 1 || w.SkinnedMeshProxyCount() != 1 {
		t.Fatalf("counts = %d static, %d skinned", w.MeshProxyCount(), w.SkinnedMeshProxyCount())
	}
}

func TestRenderWorld_GetValidSpriteProxies(t *testing.T) {
	w := NewRenderWorld()

	a := w.CreateSpriteProxy(proxy.TextureHandle(1), [3]float32{0, 0, 0}, [2]float32{1, 1})
	b := w.CreateSpriteProxy(proxy.TextureHandle(2), [3]float32{1, 0, 0}, [2]float32{1, 1})
	w.CreateTrailEmitterProxy(proxy.TextureHandle(3), [3]float32{}, 0.5)

	if sp, _ := w.SpriteProxy(b); sp != nil {
		sp.Visible = false
	}

	valid := w.GetValidSpriteProxies()
	if len(valid) != 1 || valid[0].Texture != 1 {
		t.Fatalf("valid sprites = %d", len(valid))
	}

	w.DestroySpriteProxy(a)
	if len(w.GetValidSpriteProxies()) != 0 {
		t.Fatal("destroyed sprite still reported valid")
	}
}

func TestRenderWorld_Clear(t *testing.T) {
	w := NewRenderWorld()
	cam := w.CreateCameraProxy()
	w.SetMainCamera(cam)
	w.CreatePointLight([3]float32{}, [3]float32{1, 1, 1}, 1, 5)
	w.CreateStaticMeshProxy(0, 0, common.AABB{})

	w.Clear()

	if w.LightCount() != 0 || w.MeshProxyCount() != 0 || w.CameraCount() != 0 {
		t.Fatal("Clear left live proxies behind")
	}
	if _, ok := w.MainCameraProxy(); ok {
		t.Fatal("Clear must reset the main camera")
	}
	if _, ok := w.Camera(cam); ok {
		t.Fatal("pre-clear handle still resolves")
	}
}
