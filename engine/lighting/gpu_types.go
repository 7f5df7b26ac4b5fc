package lighting

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULight is the GPU-aligned representation of one packed light in the
// per-frame light storage buffer.
// Size: 64 bytes (four vec4, std430 aligned).
//
// Layout:
//
//	vec3<f32> position      + f32 range           (16 bytes, offset  0)
//	vec3<f32> direction     + f32 outer_cone_cos  (16 bytes, offset 16)
//	vec3<f32> color         + f32 intensity       (16 bytes, offset 32)
//	u32 type, i32 shadow_index, u32 layer_mask,
//	f32 inner_cone_cos                            (16 bytes, offset 48)
type GPULight struct {
	Position     [3]float32 // offset  0: world-space position (point/spot/area)
	Range        float32    // offset 12: attenuation cutoff distance
	Direction    [3]float32 // offset 16: normalized direction (directional/spot/area)
	OuterConeCos float32    // offset 28: cos(outer half-angle) for spot
	Color        [3]float32 // offset 32: linear RGB color
	Intensity    float32    // offset 44: scalar multiplier
	LightType    uint32     // offset 48: 0 directional, 1 point, 2 spot, 3 area
	ShadowIndex  int32      // offset 52: shadow record index, -1 = no shadow
	LayerMask    uint32     // offset 56: rendering layer bits
	InnerConeCos float32    // offset 60: cos(inner half-angle) for spot
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU
// upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Range))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.OuterConeCos))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[48:52], g.LightType)
	binary.LittleEndian.PutUint32(buf[52:56], uint32(g.ShadowIndex))
	binary.LittleEndian.PutUint32(buf[56:60], g.LayerMask)
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(g.InnerConeCos))
	return buf
}

// GPULightingUniforms is the small per-frame lighting uniform block.
// Size: 32 bytes (two vec4, std140 aligned).
//
// Layout:
//
//	vec3<f32> ambient_color + f32 ambient_intensity (16 bytes, offset  0)
//	f32 environment_intensity, f32 exposure,
//	u32 light_count, u32 _pad                       (16 bytes, offset 16)
type GPULightingUniforms struct {
	AmbientColor         [3]float32 // offset  0: scene ambient RGB
	AmbientIntensity     float32    // offset 12: ambient multiplier
	EnvironmentIntensity float32    // offset 16: IBL multiplier
	Exposure             float32    // offset 20: exposure multiplier
	LightCount           uint32     // offset 24: packed light count
	_pad                 uint32     // offset 28: padding to 32 bytes
}

// Size returns the size of the GPULightingUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (u *GPULightingUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the GPULightingUniforms struct into a byte buffer
// suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (u *GPULightingUniforms) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(u.AmbientColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(u.AmbientColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(u.AmbientColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(u.AmbientIntensity))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(u.EnvironmentIntensity))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(u.Exposure))
	binary.LittleEndian.PutUint32(buf[24:28], u.LightCount)
	binary.LittleEndian.PutUint32(buf[28:32], 0) // padding
	return buf
}
