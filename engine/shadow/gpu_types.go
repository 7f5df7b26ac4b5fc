package shadow

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUShadowTile is the GPU-aligned record for one allocated shadow atlas
// tile, read by the shading pass to project fragments into the atlas.
// Size: 96 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> view_projection (64 bytes, offset  0)
//	vec4<f32>   uv_offset_scale (16 bytes, offset 64)
//	f32         bias            ( 4 bytes, offset 80)
//	f32         normal_bias     ( 4 bytes, offset 84)
//	f32         softness        ( 4 bytes, offset 88)
//	u32         _pad            ( 4 bytes, offset 92)
type GPUShadowTile struct {
	ViewProjection [16]float32 // view-projection from the light through this tile
	UVOffsetScale  [4]float32  // xy = atlas UV offset, zw = atlas UV scale
	Bias           float32     // constant depth bias
	NormalBias     float32     // world-space normal-offset distance
	Softness       float32     // PCF kernel radius in atlas UV units
	_pad           uint32
}

// Size returns the size of the GPUShadowTile struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (t *GPUShadowTile) Size() int {
	return int(unsafe.Sizeof(*t))
}

// Marshal serializes the GPUShadowTile struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (t *GPUShadowTile) Marshal() []byte {
	buf := make([]byte, 96)
	off := 0
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.ViewProjection[i]))
		off += 4
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.UVOffsetScale[i]))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.Bias))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.NormalBias))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.Softness))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], 0) // padding
	return buf
}
