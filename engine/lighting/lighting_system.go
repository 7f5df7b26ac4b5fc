package lighting

import (
	"errors"
	"fmt"

	"github.com/argon-engine/argon/engine/cluster"
	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/proxy"
	"github.com/argon-engine/argon/engine/shadow"
	"github.com/argon-engine/argon/engine/world"
)

// FrameStats summarizes one LightingSystem.Update.
type FrameStats struct {
	// Lights is the packed light count.
	Lights int
	// ShadowTiles is the number of atlas tiles held after shadow assignment.
	ShadowTiles int
	// GridRebuilt reports whether the cluster grid rebuilt its bounds.
	GridRebuilt bool
	// Cull holds the CPU culling statistics (zero when clustering is
	// disabled).
	Cull cluster.CullStats
}

// LightingSystem is the per-frame lighting coordinator. Update runs the CPU
// side in a fixed order: visibility resolution, cluster grid rebuild on view
// change, shadow tile assignment, light packing, and CPU cluster culling.
// Upload then writes everything to the frame's GPU buffer slot.
//
// The caller owns the call order per frame: sync world transforms and camera
// matrices first, then Update, then Upload for the frame index about to be
// recorded.
type LightingSystem interface {
	// Initialize creates the GPU resources of the grid, atlas, and light
	// buffer. Must be called once before Upload.
	//
	// Parameters:
	//   - dev: the device to allocate from
	//
	// Returns:
	//   - error: error if any allocation fails
	Initialize(dev device.Device) error

	// Update runs the CPU lighting pass for one frame. With no valid main
	// camera it clears the packed state and returns zero stats.
	//
	// Parameters:
	//   - w: the world to light
	//   - screenWidth: viewport width in pixels
	//   - screenHeight: viewport height in pixels
	//
	// Returns:
	//   - FrameStats: statistics for the pass
	Update(w world.RenderWorld, screenWidth, screenHeight int) FrameStats

	// Upload writes the shadow data, cluster buffers, and light data for the
	// given frame slot. Must follow Update within the same frame.
	//
	// Parameters:
	//   - frameIndex: the frame slot to write
	//
	// Returns:
	//   - error: error if any upload fails
	Upload(frameIndex int) error

	// SetAmbient sets the ambient color and intensity.
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

	// Grid returns the cluster grid for buffer binding.
	//
	// Returns:
	//   - cluster.ClusterGrid: the grid
	Grid() cluster.ClusterGrid

	// Atlas returns the shadow atlas for tile rendering and binding.
	//
	// Returns:
	//   - shadow.ShadowAtlas: the atlas
	Atlas() shadow.ShadowAtlas

	// Buffer returns the light buffer for binding.
	//
	// Returns:
	//   - LightBuffer: the light buffer
	Buffer() LightBuffer

	// Visibility returns the resolver holding the last frame's visible sets.
	//
	// Returns:
	//   - world.VisibilityResolver: the resolver
	Visibility() world.VisibilityResolver
}

type lightingSystem struct {
	grid   cluster.ClusterGrid
	atlas  shadow.ShadowAtlas
	buffer LightBuffer
	vis    world.VisibilityResolver

	clusteringDisabled bool

	// shadowed tracks which lights currently hold atlas tiles so stale
	// holders are released when they stop casting or leave the frustum.
	shadowed map[proxy.ProxyHandle]bool

	// Per-frame state consumed by Upload; valid only between an Update and
	// the Upload that follows it.
	frameCam    *proxy.CameraProxy
	gridDirty   bool
	boundsDirty bool
}

var _ LightingSystem = &lightingSystem{}

func (s *lightingSystem) Initialize(dev device.Device) error {
	if err := s.grid.Initialize(dev); err != nil {
		return err
	}
	if err := s.atlas.Initialize(dev); err != nil {
		return err
	}
	return s.buffer.Initialize(dev)
}

func (s *lightingSystem) Update(w world.RenderWorld, screenWidth, screenHeight int) FrameStats {
	s.vis.Resolve(w)

	cam, ok := w.MainCameraProxy()
	if !ok {
		s.frameCam = nil
		return FrameStats{}
	}
	s.frameCam = cam

	stats := FrameStats{}
	if !s.clusteringDisabled {
		stats.GridRebuilt = s.grid.Update(screenWidth, screenHeight, cam.Near, cam.Far, cam.InverseProjection)
		if stats.GridRebuilt {
			s.boundsDirty = true
		}
	}

	stats.ShadowTiles = s.updateShadows(w)
	stats.Lights = s.buffer.Update(w, s.vis)

	if !s.clusteringDisabled {
		stats.Cull = s.grid.CullLightsCPU(w, s.vis)
		s.gridDirty = true
	}
	return stats
}

// updateShadows assigns atlas tiles to visible shadow-casting spot and point
// lights and writes each light's shadow index. Releases run before
// allocations so tiles freed by departing lights are reusable in the same
// frame, and indices are assigned only after all allocation churn so the
// packed record positions are final.
func (s *lightingSystem) updateShadows(w world.RenderWorld) int {
	want := make(map[proxy.ProxyHandle]*proxy.LightProxy)
	for _, h := range s.vis.VisibleLights() {
		l, ok := w.Light(h)
		if !ok {
			continue
		}
		if !l.CastsShadows || (l.Type != proxy.LightTypeSpot && l.Type != proxy.LightTypePoint) {
			l.ShadowIndex = proxy.NoShadow
			continue
		}
		want[h] = l
	}

	for h := range s.shadowed {
		if _, keep := want[h]; keep {
			continue
		}
		s.atlas.ReleaseTile(h)
		delete(s.shadowed, h)
		if l, ok := w.Light(h); ok {
			l.ShadowIndex = proxy.NoShadow
		}
	}

	// Allocate in visibility order so tile assignment is deterministic.
	for _, h := range s.vis.VisibleLights() {
		l, wanted := want[h]
		if !wanted || s.shadowed[h] {
			continue
		}
		var err error
		if l.Type == proxy.LightTypeSpot {
			_, err = s.atlas.AllocateSpotLightTile(h)
		} else {
			_, err = s.atlas.AllocatePointLightTiles(h)
		}
		if err != nil {
			// Atlas exhaustion degrades to "no shadow this frame".
			l.ShadowIndex = proxy.NoShadow
			continue
		}
		s.shadowed[h] = true
	}

	tileCount := 0
	for h, l := range want {
		tiles := s.atlas.LightTiles(h)
		if len(tiles) == 0 {
			continue
		}
		if l.Type == proxy.LightTypeSpot {
			s.atlas.UpdateSpotLightShadow(tiles[0], l)
		} else {
			var faces [6]int
			copy(faces[:], tiles)
			s.atlas.UpdatePointLightShadow(faces, l)
		}
		l.ShadowIndex = int32(s.atlas.PackedIndex(tiles[0]))
		tileCount += len(tiles)
	}
	return tileCount
}

func (s *lightingSystem) Upload(frameIndex int) error {
	if s.frameCam == nil {
		return errors.New("lighting: Upload requires a preceding Update with a main camera")
	}

	if err := s.atlas.UploadShadowData(); err != nil {
		return fmt.Errorf("lighting: upload shadow data: %w", err)
	}

	if !s.clusteringDisabled {
		if s.boundsDirty {
			if err := s.grid.UploadClusterBounds(); err != nil {
				return fmt.Errorf("lighting: upload cluster bounds: %w", err)
			}
			s.boundsDirty = false
		}
		if s.gridDirty {
			if err := s.grid.UploadLightGrid(); err != nil {
				return fmt.Errorf("lighting: upload light grid: %w", err)
			}
			if err := s.grid.UploadCullUniforms(s.frameCam, s.buffer.LightCount()); err != nil {
				return fmt.Errorf("lighting: upload cull uniforms: %w", err)
			}
			s.gridDirty = false
		}
	}

	if err := s.buffer.UploadLightData(frameIndex); err != nil {
		return fmt.Errorf("lighting: upload light data: %w", err)
	}
	if err := s.buffer.UploadUniforms(frameIndex); err != nil {
		return fmt.Errorf("lighting: upload uniforms: %w", err)
	}
	return nil
}

func (s *lightingSystem) SetAmbient(color [3]float32, intensity float32) {
	s.buffer.SetAmbient(color, intensity)
}

func (s *lightingSystem) SetEnvironmentIntensity(intensity float32) {
	s.buffer.SetEnvironmentIntensity(intensity)
}

func (s *lightingSystem) SetExposure(exposure float32) {
	s.buffer.SetExposure(exposure)
}

func (s *lightingSystem) Grid() cluster.ClusterGrid            { return s.grid }
func (s *lightingSystem) Atlas() shadow.ShadowAtlas            { return s.atlas }
func (s *lightingSystem) Buffer() LightBuffer                  { return s.buffer }
func (s *lightingSystem) Visibility() world.VisibilityResolver { return s.vis }
