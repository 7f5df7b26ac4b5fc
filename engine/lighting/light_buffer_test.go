package lighting

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/proxy"
	"github.com/argon-engine/argon/engine/world"
)

// newLitWorld builds a world with an updated main camera looking down -Z.
func newLitWorld(t *testing.T) world.RenderWorld {
	t.Helper()
	w := world.NewRenderWorld()
	cam := w.CreateCameraProxy(world.WithPerspective(60, 16.0/9.0, 0.1, 100))
	w.SetMainCamera(cam)
	c, _ := w.Camera(cam)
	c.UpdateMatrices(false)
	return w
}

func f32At(t *testing.T, data []byte, offset int) float32 {
	t.Helper()
	return math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))
}

func TestLightBuffer_PackLight(t *testing.T) {
	w := newLitWorld(t)
	h := w.CreateSpotLight(
		[3]float32{1, 2, -3}, [3]float32{0, 0, -1}, [3]float32{1, 0.5, 0.25},
		10, 25, 20, 40,
		world.WithLightLayerMask(0x0F),
	)
	l, _ := w.Light(h)
	l.ShadowIndex = 4

	b := NewLightBuffer()
	if got := b.UpdateFromWorld(w); got != 1 {
		t.Fatalf("UpdateFromWorld() = %d, want 1", got)
	}

	g := b.PackedLight(0)
	if g.Position != [3]float32{1, 2, -3} {
		t.Errorf("Position = %v, want (1, 2, -3)", g.Position)
	}
	if g.Range != 25 {
		t.Errorf("Range = %v, want 25", g.Range)
	}
	if g.Direction != [3]float32{0, 0, -1} {
		t.Errorf("Direction = %v, want (0, 0, -1)", g.Direction)
	}
	if g.Color != [3]float32{1, 0.5, 0.25} || g.Intensity != 10 {
		t.Errorf("Color/Intensity = %v/%v, want (1, 0.5, 0.25)/10", g.Color, g.Intensity)
	}
	if g.LightType != uint32(proxy.LightTypeSpot) {
		t.Errorf("LightType = %d, want %d", g.LightType, proxy.LightTypeSpot)
	}
	if g.ShadowIndex != 4 {
		t.Errorf("ShadowIndex = %d, want 4", g.ShadowIndex)
	}
	if g.LayerMask != 0x0F {
		t.Errorf("LayerMask = %#x, want 0x0F", g.LayerMask)
	}
	wantInner := float32(math.Cos(float64(l.InnerConeAngle)))
	wantOuter := float32(math.Cos(float64(l.OuterConeAngle)))
	if math.Abs(float64(g.InnerConeCos-wantInner)) > 1e-6 {
		t.Errorf("InnerConeCos = %v, want %v", g.InnerConeCos, wantInner)
	}
	if math.Abs(float64(g.OuterConeCos-wantOuter)) > 1e-6 {
		t.Errorf("OuterConeCos = %v, want %v", g.OuterConeCos, wantOuter)
	}
}

func TestLightBuffer_TruncatesAtMaxLights(t *testing.T) {
	const maxLights = 8

	w := newLitWorld(t)
	for i := 0; i < maxLights+5; i++ {
		w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)
	}

	v := world.NewVisibilityResolver()
	v.Resolve(w)
	if got := len(v.VisibleLights()); got != maxLights+5 {
		t.Fatalf("VisibleLights() = %d, want %d", got, maxLights+5)
	}

	b := NewLightBuffer(WithMaxLights(maxLights))
	if got := b.Update(w, v); got != maxLights {
		t.Errorf("Update() = %d packed lights, want exactly %d", got, maxLights)
	}
	if got := b.LightCount(); got != maxLights {
		t.Errorf("LightCount() = %d, want %d", got, maxLights)
	}
}

func TestLightBuffer_SkipsDisabledAndStaleLights(t *testing.T) {
	w := newLitWorld(t)
	kept := w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)
	w.CreateDirectionalLight([3]float32{1, 0, 0}, [3]float32{1, 1, 1}, 1, world.WithDisabled())
	destroyed := w.CreateDirectionalLight([3]float32{0, 0, -1}, [3]float32{1, 1, 1}, 1)

	v := world.NewVisibilityResolver()
	v.Resolve(w)

	// Destroy after resolution so the resolver still holds the handle.
	w.DestroyLight(destroyed)

	b := NewLightBuffer()
	if got := b.Update(w, v); got != 1 {
		t.Fatalf("Update() = %d packed lights, want 1", got)
	}
	wantDir, _ := w.Light(kept)
	if b.PackedLight(0).Direction != wantDir.Direction {
		t.Errorf("packed light direction = %v, want %v", b.PackedLight(0).Direction, wantDir.Direction)
	}
}

func TestLightBuffer_UploadLightData(t *testing.T) {
	w := newLitWorld(t)
	w.CreatePointLight([3]float32{5, 6, -7}, [3]float32{1, 1, 1}, 3, 12)

	b := NewLightBuffer()
	dev := device.NewHeadlessDevice()
	if err := b.Initialize(dev); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	b.UpdateFromWorld(w)
	if err := b.UploadLightData(1); err != nil {
		t.Fatalf("UploadLightData() error: %v", err)
	}

	data := device.HeadlessBytes(b.LightDataBuffer(1))
	if got := f32At(t, data, 0); got != 5 {
		t.Errorf("position.x = %v, want 5", got)
	}
	if got := f32At(t, data, 12); got != 12 {
		t.Errorf("range = %v, want 12", got)
	}
	if got := binary.LittleEndian.Uint32(data[48:52]); got != uint32(proxy.LightTypePoint) {
		t.Errorf("type = %d, want %d", got, proxy.LightTypePoint)
	}
	if got := int32(binary.LittleEndian.Uint32(data[52:56])); got != proxy.NoShadow {
		t.Errorf("shadow index = %d, want %d", got, proxy.NoShadow)
	}

	// The untouched frame slot stays zeroed.
	other := device.HeadlessBytes(b.LightDataBuffer(0))
	if got := f32At(t, other, 0); got != 0 {
		t.Errorf("frame 0 position.x = %v, want 0", got)
	}
}

func TestLightBuffer_UploadUniforms(t *testing.T) {
	w := newLitWorld(t)
	w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)
	w.CreateDirectionalLight([3]float32{1, 0, 0}, [3]float32{1, 1, 1}, 1)

	b := NewLightBuffer()
	b.SetAmbient([3]float32{0.1, 0.2, 0.3}, 0.5)
	b.SetEnvironmentIntensity(2)
	b.SetExposure(1.5)

	dev := device.NewHeadlessDevice()
	if err := b.Initialize(dev); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	b.UpdateFromWorld(w)
	if err := b.UploadUniforms(0); err != nil {
		t.Fatalf("UploadUniforms() error: %v", err)
	}

	data := device.HeadlessBytes(b.UniformBuffer(0))
	if got := f32At(t, data, 8); got != 0.3 {
		t.Errorf("ambient.b = %v, want 0.3", got)
	}
	if got := f32At(t, data, 12); got != 0.5 {
		t.Errorf("ambient intensity = %v, want 0.5", got)
	}
	if got := f32At(t, data, 16); got != 2 {
		t.Errorf("environment intensity = %v, want 2", got)
	}
	if got := f32At(t, data, 20); got != 1.5 {
		t.Errorf("exposure = %v, want 1.5", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 2 {
		t.Errorf("light count = %d, want 2", got)
	}
}

func TestLightBuffer_UploadBeforeInitialize(t *testing.T) {
	b := NewLightBuffer()
	if err := b.UploadLightData(0); err == nil {
		t.Error("UploadLightData() before Initialize must error")
	}
	if err := b.UploadUniforms(0); err == nil {
		t.Error("UploadUniforms() before Initialize must error")
	}
}

func TestLightBuffer_Options(t *testing.T) {
	b := NewLightBuffer(WithMaxLights(32), WithFramesInFlight(2))
	if b.MaxLights() != 32 {
		t.Errorf("MaxLights() = %d, want 32", b.MaxLights())
	}
	if b.FramesInFlight() != 2 {
		t.Errorf("FramesInFlight() = %d, want 2", b.FramesInFlight())
	}

	d := NewLightBuffer()
	if d.MaxLights() != DefaultMaxLights || d.FramesInFlight() != DefaultFramesInFlight {
		t.Errorf("defaults = %d/%d, want %d/%d",
			d.MaxLights(), d.FramesInFlight(), DefaultMaxLights, DefaultFramesInFlight)
	}
}
