package shadow

import (
	"errors"
	"fmt"

	"github.com/argon-engine/argon/common"
	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/proxy"
)

const (
	// DefaultResolution is the default atlas texture size in texels.
	DefaultResolution = 4096
	// DefaultTileSize is the default tile size in texels, giving an 8×8 grid
	// of 64 tiles at the default resolution.
	DefaultTileSize = 512

	// DefaultShadowNear is the near plane used for spot and point shadow
	// projections.
	DefaultShadowNear float32 = 0.1
	// DefaultSoftness is the PCF kernel radius in atlas UV units written for
	// every tile.
	DefaultSoftness float32 = 0.0015
)

// ErrAtlasFull is returned when a tile allocation cannot be satisfied.
// Callers must degrade gracefully: the light simply casts no shadow this
// frame.
var ErrAtlasFull = errors.New("shadow: atlas has no free tiles")

// Tile is one fixed-size sub-rectangle of the shadow atlas. UV rect and pixel
// viewport are precomputed at startup; the view-projection and owner are
// filled in while the tile is allocated.
type Tile struct {
	// Index is the tile's position in the atlas, row-major.
	Index int
	// UVOffset is the tile's top-left corner in atlas UV space.
	UVOffset [2]float32
	// UVScale is the tile's extent in atlas UV space.
	UVScale [2]float32
	// Viewport is the tile's pixel rect {x, y, width, height}.
	Viewport [4]uint32
	// ViewProjection projects world space into the tile's shadow map.
	ViewProjection [16]float32
	// Bias is the constant depth bias copied from the owning light.
	Bias float32
	// NormalBias is the normal-offset bias copied from the owning light.
	NormalBias float32
	// Light is the owning light while allocated.
	Light proxy.ProxyHandle
	// CubeFace is the cube face this tile renders for a point light (0-5),
	// or -1 for a spot tile.
	CubeFace int
	// Allocated reports whether the tile is currently owned by a light.
	Allocated bool
}

// ShadowAtlas slices one large shadow map texture into equal tiles and
// assigns them to lights: one tile per spot light, six per point light (one
// per cube face). Tiles move Free → Allocated → Free with no intermediate
// states, and releasing a light returns every tile it owns.
//
// Not safe for concurrent use; allocation and release happen on the render
// thread as part of the per-frame shadow assignment pass.
type ShadowAtlas interface {
	// Resolution returns the atlas texture size in texels.
	//
	// Returns:
	//   - int: the resolution
	Resolution() int

	// TileSize returns the tile size in texels.
	//
	// Returns:
	//   - int: the tile size
	TileSize() int

	// TilesPerSide returns Resolution / TileSize.
	//
	// Returns:
	//   - int: tiles per atlas side
	TilesPerSide() int

	// TotalTiles returns TilesPerSide squared.
	//
	// Returns:
	//   - int: the total tile count
	TotalTiles() int

	// Initialize creates the GPU shadow-data buffer. Must be called once
	// before UploadShadowData.
	//
	// Parameters:
	//   - dev: the device to allocate from
	//
	// Returns:
	//   - error: error if the allocation fails
	Initialize(dev device.Device) error

	// AllocateSpotLightTile claims one free tile for a spot light.
	//
	// Parameters:
	//   - light: the owning light handle
	//
	// Returns:
	//   - int: the claimed tile index
	//   - error: ErrAtlasFull if no tile is free
	AllocateSpotLightTile(light proxy.ProxyHandle) (int, error)

	// AllocatePointLightTiles claims six free tiles for a point light's cube
	// faces. The tiles need not be adjacent. Fails atomically: when fewer
	// than six tiles are free, nothing is allocated.
	//
	// Parameters:
	//   - light: the owning light handle
	//
	// Returns:
	//   - [6]int: the claimed tile indices, face order +X -X +Y -Y +Z -Z
	//   - error: ErrAtlasFull if fewer than six tiles are free
	AllocatePointLightTiles(light proxy.ProxyHandle) ([6]int, error)

	// UpdateSpotLightShadow recomputes the tile's view-projection from the
	// light's position, direction, range, and outer cone (FOV = 2 × outer
	// cone half-angle).
	//
	// Parameters:
	//   - tileIndex: the tile claimed by AllocateSpotLightTile
	//   - l: the owning spot light
	UpdateSpotLightShadow(tileIndex int, l *proxy.LightProxy)

	// UpdatePointLightShadow recomputes all six face view-projections using
	// 90 degree perspective projections along the canonical cube face axes.
	//
	// Parameters:
	//   - tiles: the tiles claimed by AllocatePointLightTiles
	//   - l: the owning point light
	UpdatePointLightShadow(tiles [6]int, l *proxy.LightProxy)

	// ReleaseTile returns every tile owned by the light to the free list and
	// forgets the light. Unknown lights are a no-op.
	//
	// Parameters:
	//   - light: the light whose tiles to release
	ReleaseTile(light proxy.ProxyHandle)

	// LightTiles returns the tile indices currently owned by a light, or nil.
	//
	// Parameters:
	//   - light: the light to look up
	//
	// Returns:
	//   - []int: the owned tile indices
	LightTiles(light proxy.ProxyHandle) []int

	// PackedIndex returns the record position an allocated tile will occupy
	// in the next UploadShadowData. Records are grouped by owning light in
	// allocation order, so one light's tiles always occupy consecutive
	// positions (cube faces in face order) even when its tile indices are
	// scattered by atlas churn. The shadow assignment pass stores the first
	// tile's position on the owning light so GPU records and light shadow
	// indices agree — which requires all allocations and releases for the
	// frame to happen before indices are read.
	//
	// Parameters:
	//   - tileIndex: the tile to look up
	//
	// Returns:
	//   - int: the packed record position, or -1 if the tile is free
	PackedIndex(tileIndex int) int

	// Tile returns a copy of one tile's state.
	//
	// Parameters:
	//   - index: the tile index
	//
	// Returns:
	//   - Tile: the tile state
	Tile(index int) Tile

	// AllocatedTileCount returns the number of tiles currently owned.
	//
	// Returns:
	//   - int: the allocated tile count
	AllocatedTileCount() int

	// FreeTileCount returns the number of unowned tiles.
	//
	// Returns:
	//   - int: the free tile count
	FreeTileCount() int

	// UploadShadowData packs every allocated tile into a flat GPUShadowTile
	// array, grouped by owning light in allocation order, and writes it to
	// the shadow-data buffer. The record position of a tile matches
	// PackedIndex, so a point light's six face records are always
	// consecutive. Panics if the packed data exceeds the buffer capacity;
	// that indicates a CPU/GPU layout mismatch, not a runtime condition.
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadShadowData() error

	// ShadowDataBuffer returns the shadow-data storage buffer for binding.
	//
	// Returns:
	//   - device.Buffer: the buffer, or nil before Initialize
	ShadowDataBuffer() device.Buffer
}

type shadowAtlas struct {
	resolution int
	tileSize   int

	tiles    []Tile
	freeList []int
	// lightTiles maps a light to every tile index it owns, so releasing a
	// point light returns all six faces.
	lightTiles map[proxy.ProxyHandle][]int
	// packOrder lists owning lights in allocation order. Packing walks this
	// list so a light's records stay consecutive even when atlas churn hands
	// it non-contiguous tile indices.
	packOrder []proxy.ProxyHandle

	dataBuffer device.Buffer
}

var _ ShadowAtlas = &shadowAtlas{}

func (a *shadowAtlas) Resolution() int   { return a.resolution }
func (a *shadowAtlas) TileSize() int     { return a.tileSize }
func (a *shadowAtlas) TilesPerSide() int { return a.resolution / a.tileSize }
func (a *shadowAtlas) TotalTiles() int   { return a.TilesPerSide() * a.TilesPerSide() }

func (a *shadowAtlas) Initialize(dev device.Device) error {
	size := uint64(a.TotalTiles()) * uint64((&GPUShadowTile{}).Size())
	buf, err := dev.CreateBuffer("shadow-tile-data", size, device.BufferUsageStorage|device.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("shadow: create shadow data buffer: %w", err)
	}
	a.dataBuffer = buf
	return nil
}

func (a *shadowAtlas) popFree(light proxy.ProxyHandle, cubeFace int) int {
	n := len(a.freeList)
	idx := a.freeList[n-1]
	a.freeList = a.freeList[:n-1]
	t := &a.tiles[idx]
	t.Light = light
	t.CubeFace = cubeFace
	t.Allocated = true
	return idx
}

func (a *shadowAtlas) AllocateSpotLightTile(light proxy.ProxyHandle) (int, error) {
	if len(a.freeList) < 1 {
		return 0, ErrAtlasFull
	}
	if _, owns := a.lightTiles[light]; !owns {
		a.packOrder = append(a.packOrder, light)
	}
	idx := a.popFree(light, -1)
	a.lightTiles[light] = append(a.lightTiles[light], idx)
	return idx, nil
}

func (a *shadowAtlas) AllocatePointLightTiles(light proxy.ProxyHandle) ([6]int, error) {
	var tiles [6]int
	if len(a.freeList) < 6 {
		return tiles, ErrAtlasFull
	}
	if _, owns := a.lightTiles[light]; !owns {
		a.packOrder = append(a.packOrder, light)
	}
	for face := range 6 {
		tiles[face] = a.popFree(light, face)
	}
	a.lightTiles[light] = append(a.lightTiles[light], tiles[:]...)
	return tiles, nil
}

func (a *shadowAtlas) UpdateSpotLightShadow(tileIndex int, l *proxy.LightProxy) {
	t := &a.tiles[tileIndex]
	computeTileVP(t.ViewProjection[:], l.Position, l.Direction, 2*l.OuterConeAngle, l.Range)
	t.Bias = l.ShadowBias
	t.NormalBias = l.ShadowNormalBias
}

// cubeFaceDirs are the canonical cube face view directions, face order
// +X -X +Y -Y +Z -Z.
var cubeFaceDirs = [6][3]float32{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// cubeFaceUps are the matching up vectors for cubeFaceDirs.
var cubeFaceUps = [6][3]float32{
	{0, -1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
	{0, -1, 0}, {0, -1, 0},
}

func (a *shadowAtlas) UpdatePointLightShadow(tiles [6]int, l *proxy.LightProxy) {
	const faceFov = 3.14159265358979 / 2 // 90 degrees
	for face, idx := range tiles {
		t := &a.tiles[idx]
		computeFaceVP(t.ViewProjection[:], l.Position, cubeFaceDirs[face], cubeFaceUps[face], faceFov, l.Range)
		t.Bias = l.ShadowBias
		t.NormalBias = l.ShadowNormalBias
	}
}

// computeTileVP builds a spot shadow view-projection: look-at along the cone
// axis with a perspective FOV covering the full cone.
func computeTileVP(out []float32, position, direction [3]float32, fov, lightRange float32) {
	up := stableUp(direction)
	computeFaceVP(out, position, direction, up, fov, lightRange)
}

func computeFaceVP(out []float32, position, direction, up [3]float32, fov, lightRange float32) {
	var view, projMat [16]float32
	common.LookAt(view[:],
		position[0], position[1], position[2],
		position[0]+direction[0], position[1]+direction[1], position[2]+direction[2],
		up[0], up[1], up[2],
	)
	far := lightRange
	if far <= DefaultShadowNear {
		far = DefaultShadowNear * 2
	}
	common.Perspective(projMat[:], fov, 1, DefaultShadowNear, far)
	common.Mul4(out, projMat[:], view[:])
}

// stableUp picks an up vector that is not parallel to the direction.
func stableUp(dir [3]float32) [3]float32 {
	if dir[1] > 0.99 || dir[1] < -0.99 {
		return [3]float32{1, 0, 0}
	}
	return [3]float32{0, 1, 0}
}

func (a *shadowAtlas) ReleaseTile(light proxy.ProxyHandle) {
	indices, ok := a.lightTiles[light]
	if !ok {
		return
	}
	for _, idx := range indices {
		t := &a.tiles[idx]
		t.Light = proxy.InvalidHandle()
		t.CubeFace = -1
		t.Allocated = false
		a.freeList = append(a.freeList, idx)
	}
	delete(a.lightTiles, light)
	for i, h := range a.packOrder {
		if h == light {
			a.packOrder = append(a.packOrder[:i], a.packOrder[i+1:]...)
			break
		}
	}
}

func (a *shadowAtlas) LightTiles(light proxy.ProxyHandle) []int {
	return a.lightTiles[light]
}

func (a *shadowAtlas) PackedIndex(tileIndex int) int {
	if !a.tiles[tileIndex].Allocated {
		return -1
	}
	rank := 0
	for _, light := range a.packOrder {
		for _, idx := range a.lightTiles[light] {
			if idx == tileIndex {
				return rank
			}
			rank++
		}
	}
	return -1
}

func (a *shadowAtlas) Tile(index int) Tile {
	return a.tiles[index]
}

func (a *shadowAtlas) AllocatedTileCount() int {
	return a.TotalTiles() - len(a.freeList)
}

func (a *shadowAtlas) FreeTileCount() int {
	return len(a.freeList)
}

func (a *shadowAtlas) UploadShadowData() error {
	if a.dataBuffer == nil {
		return errors.New("shadow: Initialize must run before UploadShadowData")
	}

	record := GPUShadowTile{}
	sz := record.Size()
	packed := make([]byte, 0, a.AllocatedTileCount()*sz)
	for _, light := range a.packOrder {
		for _, idx := range a.lightTiles[light] {
			t := &a.tiles[idx]
			record.ViewProjection = t.ViewProjection
			record.UVOffsetScale = [4]float32{t.UVOffset[0], t.UVOffset[1], t.UVScale[0], t.UVScale[1]}
			record.Bias = t.Bias
			record.NormalBias = t.NormalBias
			record.Softness = DefaultSoftness
			packed = append(packed, record.Marshal()...)
		}
	}

	if uint64(len(packed)) > a.dataBuffer.Size() {
		panic(fmt.Sprintf("shadow: packed shadow data (%d bytes) exceeds buffer capacity (%d bytes)", len(packed), a.dataBuffer.Size()))
	}

	mapped, err := a.dataBuffer.Map()
	if err != nil {
		return fmt.Errorf("shadow: map shadow data buffer: %w", err)
	}
	copy(mapped, packed)
	return a.dataBuffer.Unmap()
}

func (a *shadowAtlas) ShadowDataBuffer() device.Buffer {
	return a.dataBuffer
}
