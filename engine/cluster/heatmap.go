package cluster

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// WriteHeatmap renders the per-cluster light counts of one depth slice as a
// WebP image and writes it to w. Each cluster becomes one cell colored from
// black (no lights) through red to yellow (at MaxLightsPerCluster), upscaled
// so individual cells stay readable. Intended for debugging cluster
// assignment, not for runtime use.
//
// Parameters:
//   - w: destination writer
//   - g: the grid to visualize (after a CullLightsCPU pass)
//   - z: the depth slice to render
//   - cellSize: output pixels per cluster cell (minimum 1)
//
// Returns:
//   - error: error if the slice index is out of range or encoding fails
func WriteHeatmap(w io.Writer, g ClusterGrid, z int, cellSize int) error {
	cfg := g.Config()
	if z < 0 || z >= cfg.ClustersZ {
		return fmt.Errorf("cluster: heatmap slice %d out of range [0, %d)", z, cfg.ClustersZ)
	}
	if cellSize < 1 {
		cellSize = 1
	}

	src := image.NewNRGBA(image.Rect(0, 0, cfg.ClustersX, cfg.ClustersY))
	for y := 0; y < cfg.ClustersY; y++ {
		for x := 0; x < cfg.ClustersX; x++ {
			count := g.ClusterLightCount(x, y, z)
			// Image Y grows downward, cluster Y grows upward.
			src.SetNRGBA(x, cfg.ClustersY-1-y, heatColor(count, cfg.MaxLightsPerCluster))
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, cfg.ClustersX*cellSize, cfg.ClustersY*cellSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if err := nativewebp.Encode(w, dst, nil); err != nil {
		return fmt.Errorf("cluster: encode heatmap: %w", err)
	}
	return nil
}

// heatColor maps a light count to a black → red → yellow ramp.
func heatColor(count, maxCount int) color.NRGBA {
	if count <= 0 {
		return color.NRGBA{A: 255}
	}
	t := float64(count) / float64(maxCount)
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		// black → red
		return color.NRGBA{R: uint8(255 * t * 2), A: 255}
	}
	// red → yellow
	return color.NRGBA{R: 255, G: uint8(255 * (t - 0.5) * 2), A: 255}
}
