package cluster

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/argon-engine/argon/common"
)

// ClusterGridBuilderOption is a functional option for configuring a
// ClusterGrid. Use the With* functions to create options.
type ClusterGridBuilderOption func(g *clusterGrid)

// WithConfig replaces the default 16×9×24 grid configuration. Non-positive
// dimensions fall back to their defaults.
//
// Parameters:
//   - cfg: the grid configuration
//
// Returns:
//   - ClusterGridBuilderOption: option function to apply
func WithConfig(cfg Config) ClusterGridBuilderOption {
	return func(g *clusterGrid) {
		if cfg.ClustersX <= 0 {
			cfg.ClustersX = DefaultClustersX
		}
		if cfg.ClustersY <= 0 {
			cfg.ClustersY = DefaultClustersY
		}
		if cfg.ClustersZ <= 0 {
			cfg.ClustersZ = DefaultClustersZ
		}
		if cfg.MaxLightsPerCluster <= 0 {
			cfg.MaxLightsPerCluster = DefaultMaxLightsPerCluster
		}
		g.config = cfg
	}
}

// WithCullWorkers sets the number of worker goroutines used by the parallel
// CPU culling pass. Defaults to runtime.NumCPU()-1. One task is submitted per
// depth slice, so values above ClustersZ add nothing.
//
// Parameters:
//   - n: the number of cull workers (minimum 1)
//
// Returns:
//   - ClusterGridBuilderOption: option function to apply
func WithCullWorkers(n int) ClusterGridBuilderOption {
	return func(g *clusterGrid) {
		if n < 1 {
			n = 1
		}
		g.cullWorkers = n
	}
}

// NewClusterGrid creates a cluster grid with CPU storage sized to the
// configuration. Initialize must still be called to create the GPU buffers,
// and Update must run before the first culling pass.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - ClusterGrid: the new grid
func NewClusterGrid(opts ...ClusterGridBuilderOption) ClusterGrid {
	g := &clusterGrid{
		config:      DefaultConfig(),
		cullWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range opts {
		opt(g)
	}

	total := g.TotalClusters()
	g.bounds = make([]common.AABB, total)
	g.counts = make([]uint32, total)
	g.lightIndices = make([]uint32, total*g.config.MaxLightsPerCluster)

	// Queue size covers one task per depth slice with headroom for back-to-back
	// culls.
	g.cullPool = worker.NewDynamicWorkerPool(g.cullWorkers, 256, 1*time.Second)

	return g
}
