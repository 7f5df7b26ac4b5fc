package lighting

import (
	"github.com/argon-engine/argon/engine/cluster"
	"github.com/argon-engine/argon/engine/proxy"
	"github.com/argon-engine/argon/engine/shadow"
	"github.com/argon-engine/argon/engine/world"
)

// LightingSystemBuilderOption configures a LightingSystem during construction.
type LightingSystemBuilderOption func(*lightingSystem)

// WithClusteringDisabled turns off the cluster grid: Update skips grid
// rebuilds and CPU culling, and Upload skips the cluster buffers. Shadow
// assignment and light packing still run.
//
// Returns:
//   - LightingSystemBuilderOption: the option
func WithClusteringDisabled() LightingSystemBuilderOption {
	return func(s *lightingSystem) {
		s.clusteringDisabled = true
	}
}

// WithGrid injects a pre-built cluster grid instead of the default.
//
// Parameters:
//   - grid: the grid to use
//
// Returns:
//   - LightingSystemBuilderOption: the option
func WithGrid(grid cluster.ClusterGrid) LightingSystemBuilderOption {
	return func(s *lightingSystem) {
		s.grid = grid
	}
}

// WithAtlas injects a pre-built shadow atlas instead of the default.
//
// Parameters:
//   - atlas: the atlas to use
//
// Returns:
//   - LightingSystemBuilderOption: the option
func WithAtlas(atlas shadow.ShadowAtlas) LightingSystemBuilderOption {
	return func(s *lightingSystem) {
		s.atlas = atlas
	}
}

// WithBuffer injects a pre-built light buffer instead of the default.
//
// Parameters:
//   - buffer: the buffer to use
//
// Returns:
//   - LightingSystemBuilderOption: the option
func WithBuffer(buffer LightBuffer) LightingSystemBuilderOption {
	return func(s *lightingSystem) {
		s.buffer = buffer
	}
}

// NewLightingSystem creates a LightingSystem with a default cluster grid,
// shadow atlas, and light buffer unless overridden by options.
//
// Parameters:
//   - opts: optional LightingSystemBuilderOption settings
//
// Returns:
//   - LightingSystem: the configured system
func NewLightingSystem(opts ...LightingSystemBuilderOption) LightingSystem {
	s := &lightingSystem{
		vis:      world.NewVisibilityResolver(),
		shadowed: make(map[proxy.ProxyHandle]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.grid == nil {
		s.grid = cluster.NewClusterGrid()
	}
	if s.atlas == nil {
		s.atlas = shadow.NewShadowAtlas()
	}
	if s.buffer == nil {
		s.buffer = NewLightBuffer()
	}
	return s
}
