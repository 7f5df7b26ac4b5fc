package cluster

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUClusterBounds is the GPU-aligned representation of one cluster's
// view-space bounding box in the cluster bounds storage buffer.
// Size: 32 bytes (two vec4, std430 aligned).
type GPUClusterBounds struct {
	Min   [3]float32 // offset  0: view-space AABB minimum
	_pad  float32    // offset 12: padding to vec4 alignment
	Max   [3]float32 // offset 16: view-space AABB maximum
	_pad2 float32    // offset 28: padding to vec4 alignment
}

// Size returns the size of the GPUClusterBounds struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (b *GPUClusterBounds) Size() int {
	return int(unsafe.Sizeof(*b))
}

// Marshal serializes the GPUClusterBounds struct into a byte buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (b *GPUClusterBounds) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(b.Min[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(b.Min[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(b.Min[2]))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // padding
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(b.Max[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(b.Max[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(b.Max[2]))
	binary.LittleEndian.PutUint32(buf[28:32], 0) // padding
	return buf
}

// GPUClusterRange is one entry of the light grid storage buffer: the span of
// the global light index list owned by one cluster.
// Size: 8 bytes.
//
// Layout:
//
//	u32 offset (4 bytes, offset 0)
//	u32 count  (4 bytes, offset 4)
type GPUClusterRange struct {
	Offset uint32
	Count  uint32
}

// Size returns the size of the GPUClusterRange struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (8)
func (r *GPUClusterRange) Size() int {
	return int(unsafe.Sizeof(*r))
}

// Marshal serializes the GPUClusterRange struct into a byte buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer ready for GPU upload
func (r *GPUClusterRange) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], r.Offset)
	binary.LittleEndian.PutUint32(buf[4:8], r.Count)
	return buf
}

// GPUClusterCullUniforms is the GPU-aligned uniform data for the clustered
// light culling compute pass. Contains the inverse projection and view
// matrices needed to rebuild cluster bounds on the GPU, the grid dimensions,
// and the active light count.
// Size: 176 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> inv_proj               (64 bytes, offset   0)
//	mat4x4<f32> view_matrix            (64 bytes, offset  64)
//	u32         cluster_count_x        ( 4 bytes, offset 128)
//	u32         cluster_count_y        ( 4 bytes, offset 132)
//	u32         cluster_count_z        ( 4 bytes, offset 136)
//	u32         max_lights_per_cluster ( 4 bytes, offset 140)
//	u32         screen_width           ( 4 bytes, offset 144)
//	u32         screen_height          ( 4 bytes, offset 148)
//	u32         light_count            ( 4 bytes, offset 152)
//	f32         near                   ( 4 bytes, offset 156)
//	f32         far                    ( 4 bytes, offset 160)
//	u32         _pad × 3               (12 bytes, offset 164)
type GPUClusterCullUniforms struct {
	InvProj             [16]float32 // inverse projection matrix
	ViewMatrix          [16]float32 // camera view matrix
	ClusterCountX       uint32
	ClusterCountY       uint32
	ClusterCountZ       uint32
	MaxLightsPerCluster uint32
	ScreenWidth         uint32
	ScreenHeight        uint32
	LightCount          uint32
	Near                float32
	Far                 float32
	_pad                [3]uint32
}

// Size returns the size of the GPUClusterCullUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (176)
func (u *GPUClusterCullUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUClusterCullUniforms into a 176-byte little-endian
// buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload
func (u *GPUClusterCullUniforms) Marshal() []byte {
	buf := make([]byte, 176)
	off := 0

	// inv_proj (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.InvProj[i]))
		off += 4
	}
	// view_matrix (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.ViewMatrix[i]))
		off += 4
	}
	// cluster counts
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountX)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountY)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountZ)
	off += 4
	// max_lights_per_cluster
	binary.LittleEndian.PutUint32(buf[off:off+4], u.MaxLightsPerCluster)
	off += 4
	// screen_width, screen_height
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ScreenWidth)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ScreenHeight)
	off += 4
	// light_count
	binary.LittleEndian.PutUint32(buf[off:off+4], u.LightCount)
	off += 4
	// near, far
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Near))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Far))
	off += 4
	// _pad
	for range 3 {
		binary.LittleEndian.PutUint32(buf[off:off+4], 0)
		off += 4
	}

	return buf
}
