package shadow

import (
	"github.com/argon-engine/argon/engine/proxy"
)

// ShadowAtlasBuilderOption is a functional option for configuring a
// ShadowAtlas. Use the With* functions to create options.
type ShadowAtlasBuilderOption func(a *shadowAtlas)

// WithResolution sets the atlas texture size in texels. Must be a multiple of
// the tile size; values below the tile size are ignored.
//
// Parameters:
//   - resolution: the atlas size in texels
//
// Returns:
//   - ShadowAtlasBuilderOption: option function to apply
func WithResolution(resolution int) ShadowAtlasBuilderOption {
	return func(a *shadowAtlas) {
		if resolution >= a.tileSize {
			a.resolution = resolution
		}
	}
}

// WithTileSize sets the tile size in texels. Values above the atlas
// resolution are ignored.
//
// Parameters:
//   - tileSize: the tile size in texels
//
// Returns:
//   - ShadowAtlasBuilderOption: option function to apply
func WithTileSize(tileSize int) ShadowAtlasBuilderOption {
	return func(a *shadowAtlas) {
		if tileSize > 0 && tileSize <= a.resolution {
			a.tileSize = tileSize
		}
	}
}

// NewShadowAtlas creates an atlas with every tile free. Tile UV rects and
// pixel viewports are computed once here; Initialize must still run to create
// the GPU buffer.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - ShadowAtlas: the new atlas
func NewShadowAtlas(opts ...ShadowAtlasBuilderOption) ShadowAtlas {
	a := &shadowAtlas{
		resolution: DefaultResolution,
		tileSize:   DefaultTileSize,
		lightTiles: make(map[proxy.ProxyHandle][]int),
	}
	for _, opt := range opts {
		opt(a)
	}

	perSide := a.TilesPerSide()
	total := a.TotalTiles()
	uvScale := float32(a.tileSize) / float32(a.resolution)

	a.tiles = make([]Tile, total)
	a.freeList = make([]int, 0, total)
	for i := range total {
		row := i / perSide
		col := i % perSide
		a.tiles[i] = Tile{
			Index:    i,
			UVOffset: [2]float32{float32(col) * uvScale, float32(row) * uvScale},
			UVScale:  [2]float32{uvScale, uvScale},
			Viewport: [4]uint32{
				uint32(col * a.tileSize),
				uint32(row * a.tileSize),
				uint32(a.tileSize),
				uint32(a.tileSize),
			},
			Light:    proxy.InvalidHandle(),
			CubeFace: -1,
		}
	}
	// Filled in reverse so the LIFO free list hands out tile 0 first.
	for i := total - 1; i >= 0; i-- {
		a.freeList = append(a.freeList, i)
	}

	return a
}
