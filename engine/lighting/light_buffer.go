package lighting

import (
	"errors"
	"fmt"

	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/proxy"
	"github.com/argon-engine/argon/engine/world"
)

const (
	// DefaultMaxLights is the default packed light capacity per frame.
	DefaultMaxLights = 256
	// DefaultFramesInFlight is the default buffer slot count. Three slots let
	// the CPU write frame F+1 while the GPU still reads frame F-2.
	DefaultFramesInFlight = 3
)

// LightBuffer packs the frame's lights into GPULight records and owns one GPU
// light buffer and one uniform buffer per frame in flight. The CPU-only
// Update* methods refill the packed array; the Upload* methods copy it into
// the slot owned by the given frame index. The caller cycles frameIndex in
// lock-step with its presentation fences so a slot is never written while the
// GPU reads it.
type LightBuffer interface {
	// MaxLights returns the packed light capacity.
	//
	// Returns:
	//   - int: the capacity
	MaxLights() int

	// FramesInFlight returns the buffer slot count.
	//
	// Returns:
	//   - int: the slot count
	FramesInFlight() int

	// Initialize creates the per-frame GPU buffers. Must be called once
	// before any Upload* call.
	//
	// Parameters:
	//   - dev: the device to allocate from
	//
	// Returns:
	//   - error: error if any allocation fails
	Initialize(dev device.Device) error

	// Update packs the visibility-resolved lights, in resolved order, up to
	// MaxLights. Excess lights are silently dropped; the truncation is
	// observable as LightCount() == MaxLights.
	//
	// Parameters:
	//   - w: the world owning the lights
	//   - vis: the resolver holding this frame's visible light set
	//
	// Returns:
	//   - int: the packed light count
	Update(w world.RenderWorld, vis world.VisibilityResolver) int

	// UpdateFromWorld packs every enabled light without visibility
	// filtering, up to MaxLights. Used when no resolver runs (headless
	// tools, whole-scene bakes).
	//
	// Parameters:
	//   - w: the world owning the lights
	//
	// Returns:
	//   - int: the packed light count
	UpdateFromWorld(w world.RenderWorld) int

	// LightCount returns the packed light count from the last Update.
	//
	// Returns:
	//   - int: the packed light count
	LightCount() int

	// PackedLight returns one packed record from the last Update.
	//
	// Parameters:
	//   - i: record index, 0 <= i < LightCount()
	//
	// Returns:
	//   - GPULight: the packed record
	PackedLight(i int) GPULight

	// SetAmbient sets the ambient color and intensity written to the uniform
	// block.
	//
	// Parameters:
	//   - color: linear RGB ambient color
	//   - intensity: ambient multiplier
	SetAmbient(color [3]float32, intensity float32)

	// SetEnvironmentIntensity sets the environment (IBL) multiplier.
	//
	// Parameters:
	//   - intensity: the multiplier
	SetEnvironmentIntensity(intensity float32)

	// SetExposure sets the exposure multiplier.
	//
	// Parameters:
	//   - exposure: the multiplier
	SetExposure(exposure float32)

	// UploadLightData maps the light buffer slot for the given frame, copies
	// the packed records, and unmaps. Panics if the packed bytes exceed the
	// slot capacity; that is a CPU/GPU layout mismatch, not a runtime
	// condition.
	//
	// Parameters:
	//   - frameIndex: the frame slot, 0 <= frameIndex < FramesInFlight()
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadLightData(frameIndex int) error

	// UploadUniforms maps the uniform slot for the given frame, copies the
	// uniform block, and unmaps. Panics on capacity violation like
	// UploadLightData.
	//
	// Parameters:
	//   - frameIndex: the frame slot, 0 <= frameIndex < FramesInFlight()
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadUniforms(frameIndex int) error

	// LightDataBuffer returns the light buffer for one frame slot.
	//
	// Parameters:
	//   - frameIndex: the frame slot
	//
	// Returns:
	//   - device.Buffer: the buffer, or nil before Initialize
	LightDataBuffer(frameIndex int) device.Buffer

	// UniformBuffer returns the uniform buffer for one frame slot.
	//
	// Parameters:
	//   - frameIndex: the frame slot
	//
	// Returns:
	//   - device.Buffer: the buffer, or nil before Initialize
	UniformBuffer(frameIndex int) device.Buffer
}

type lightBuffer struct {
	maxLights      int
	framesInFlight int

	packed []GPULight
	count  int

	ambientColor         [3]float32
	ambientIntensity     float32
	environmentIntensity float32
	exposure             float32

	lightBuffers   []device.Buffer
	uniformBuffers []device.Buffer
}

var _ LightBuffer = &lightBuffer{}

func (b *lightBuffer) MaxLights() int      { return b.maxLights }
func (b *lightBuffer) FramesInFlight() int { return b.framesInFlight }

func (b *lightBuffer) Initialize(dev device.Device) error {
	lightSize := uint64(b.maxLights) * uint64((&GPULight{}).Size())
	uniformSize := uint64((&GPULightingUniforms{}).Size())

	b.lightBuffers = make([]device.Buffer, b.framesInFlight)
	b.uniformBuffers = make([]device.Buffer, b.framesInFlight)
	for i := range b.framesInFlight {
		var err error
		b.lightBuffers[i], err = dev.CreateBuffer(fmt.Sprintf("lights-frame-%d", i), lightSize, device.BufferUsageStorage|device.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("lighting: create light buffer %d: %w", i, err)
		}
		b.uniformBuffers[i], err = dev.CreateBuffer(fmt.Sprintf("lighting-uniforms-frame-%d", i), uniformSize, device.BufferUsageUniform|device.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("lighting: create uniform buffer %d: %w", i, err)
		}
	}
	return nil
}

// packLight converts one proxy into its GPU record.
func packLight(l *proxy.LightProxy) GPULight {
	return GPULight{
		Position:     l.Position,
		Range:        l.Range,
		Direction:    l.Direction,
		OuterConeCos: l.CosOuterCone(),
		Color:        l.Color,
		Intensity:    l.Intensity,
		LightType:    uint32(l.Type),
		ShadowIndex:  l.ShadowIndex,
		LayerMask:    l.LayerMask,
		InnerConeCos: l.CosInnerCone(),
	}
}

func (b *lightBuffer) Update(w world.RenderWorld, vis world.VisibilityResolver) int {
	b.count = 0
	for _, h := range vis.VisibleLights() {
		if b.count >= b.maxLights {
			break
		}
		l, ok := w.Light(h)
		if !ok {
			continue
		}
		b.packed[b.count] = packLight(l)
		b.count++
	}
	return b.count
}

func (b *lightBuffer) UpdateFromWorld(w world.RenderWorld) int {
	b.count = 0
	w.ForEachLight(func(_ proxy.ProxyHandle, l *proxy.LightProxy) {
		if !l.Enabled || b.count >= b.maxLights {
			return
		}
		b.packed[b.count] = packLight(l)
		b.count++
	})
	return b.count
}

func (b *lightBuffer) LightCount() int {
	return b.count
}

func (b *lightBuffer) PackedLight(i int) GPULight {
	return b.packed[i]
}

func (b *lightBuffer) SetAmbient(color [3]float32, intensity float32) {
	b.ambientColor = color
	b.ambientIntensity = intensity
}

func (b *lightBuffer) SetEnvironmentIntensity(intensity float32) {
	b.environmentIntensity = intensity
}

func (b *lightBuffer) SetExposure(exposure float32) {
	b.exposure = exposure
}

func (b *lightBuffer) UploadLightData(frameIndex int) error {
	if b.lightBuffers == nil {
		return errors.New("lighting: Initialize must run before uploads")
	}
	buf := b.lightBuffers[frameIndex]

	sz := (&GPULight{}).Size()
	if uint64(b.count*sz) > buf.Size() {
		panic(fmt.Sprintf("lighting: %d packed lights (%d bytes) exceed buffer capacity (%d bytes)", b.count, b.count*sz, buf.Size()))
	}

	mapped, err := buf.Map()
	if err != nil {
		return fmt.Errorf("lighting: map light buffer %d: %w", frameIndex, err)
	}
	for i := 0; i < b.count; i++ {
		copy(mapped[i*sz:(i+1)*sz], b.packed[i].Marshal())
	}
	return buf.Unmap()
}

func (b *lightBuffer) UploadUniforms(frameIndex int) error {
	if b.uniformBuffers == nil {
		return errors.New("lighting: Initialize must run before uploads")
	}
	buf := b.uniformBuffers[frameIndex]

	u := GPULightingUniforms{
		AmbientColor:         b.ambientColor,
		AmbientIntensity:     b.ambientIntensity,
		EnvironmentIntensity: b.environmentIntensity,
		Exposure:             b.exposure,
		LightCount:           uint32(b.count),
	}
	data := u.Marshal()
	if uint64(len(data)) > buf.Size() {
		panic(fmt.Sprintf("lighting: uniform block (%d bytes) exceeds buffer capacity (%d bytes)", len(data), buf.Size()))
	}

	mapped, err := buf.Map()
	if err != nil {
		return fmt.Errorf("lighting: map uniform buffer %d: %w", frameIndex, err)
	}
	copy(mapped, data)
	return buf.Unmap()
}

func (b *lightBuffer) LightDataBuffer(frameIndex int) device.Buffer {
	if b.lightBuffers == nil {
		return nil
	}
	return b.lightBuffers[frameIndex]
}

func (b *lightBuffer) UniformBuffer(frameIndex int) device.Buffer {
	if b.uniformBuffers == nil {
		return nil
	}
	return b.uniformBuffers[frameIndex]
}
