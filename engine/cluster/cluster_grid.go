package cluster

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/argon-engine/argon/common"
	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/proxy"
	"github.com/argon-engine/argon/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultClustersX is the default cluster count along screen X.
	DefaultClustersX = 16
	// DefaultClustersY is the default cluster count along screen Y.
	DefaultClustersY = 9
	// DefaultClustersZ is the default depth slice count.
	DefaultClustersZ = 24
	// DefaultMaxLightsPerCluster is the default light index capacity per
	// cluster. Lights beyond the budget are silently dropped.
	DefaultMaxLightsPerCluster = 128
)

// ErrGPUCullNotWired is returned by CullLights while the compute dispatch is
// left to the rendering backend; the CPU path (CullLightsCPU) is the
// functional reference.
var ErrGPUCullNotWired = errors.New("cluster: GPU light culling is not wired to a compute pipeline")

// Config fixes the cluster grid dimensions. The grid divides the camera
// frustum into ClustersX × ClustersY uniform screen tiles and ClustersZ
// logarithmic depth slices.
type Config struct {
	ClustersX           int
	ClustersY           int
	ClustersZ           int
	MaxLightsPerCluster int
}

// DefaultConfig returns the default 16×9×24 grid configuration.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		ClustersX:           DefaultClustersX,
		ClustersY:           DefaultClustersY,
		ClustersZ:           DefaultClustersZ,
		MaxLightsPerCluster: DefaultMaxLightsPerCluster,
	}
}

// CullStats summarizes one CPU culling pass.
type CullStats struct {
	// VisibleLights is the number of lights that entered the pass.
	VisibleLights int
	// TotalAssignments is the number of light-cluster pairs produced.
	TotalAssignments int
	// MaxPerCluster is the largest light count in any single cluster.
	MaxPerCluster int
	// OverflowClusters counts clusters that hit MaxLightsPerCluster and
	// dropped at least one light.
	OverflowClusters int
}

// ClusterGrid subdivides the camera frustum into view-space cluster AABBs and
// assigns lights to them. The CPU path fills a packed light index list plus a
// per-cluster offset/count grid; the GPU buffers mirror that data for the
// shading pass.
//
// The rebuild policy is the correctness contract: cluster bounds depend on
// screen size, near/far, and the projection, and Update must run before any
// culling call in a frame where one of those could have changed. Update is a
// no-op when nothing changed, so calling it every frame is cheap.
type ClusterGrid interface {
	// Config returns the grid configuration.
	//
	// Returns:
	//   - Config: the configuration
	Config() Config

	// TotalClusters returns ClustersX * ClustersY * ClustersZ.
	//
	// Returns:
	//   - int: the total cluster count
	TotalClusters() int

	// Initialize creates the GPU-side buffers: cluster bounds, light grid,
	// light index list, and cull uniforms. Must be called once before any
	// Upload* call.
	//
	// Parameters:
	//   - dev: the device to allocate from
	//
	// Returns:
	//   - error: error if any buffer allocation fails
	Initialize(dev device.Device) error

	// Update rebuilds every cluster AABB from the current view parameters.
	// When screen size, near/far, and the inverse projection all match the
	// previous call, nothing is rebuilt.
	//
	// Parameters:
	//   - screenWidth: viewport width in pixels
	//   - screenHeight: viewport height in pixels
	//   - near: camera near plane distance
	//   - far: camera far plane distance
	//   - invProjection: inverse of the camera projection matrix
	//
	// Returns:
	//   - bool: true if the bounds were rebuilt
	Update(screenWidth, screenHeight int, near, far float32, invProjection [16]float32) bool

	// ClusterBounds returns the view-space AABB of one cluster. Only valid
	// after Update has run at least once.
	//
	// Parameters:
	//   - x, y, z: cluster coordinates
	//
	// Returns:
	//   - common.AABB: the cluster's view-space bounds
	ClusterBounds(x, y, z int) common.AABB

	// CullLightsCPU assigns every visibility-resolved light to the clusters
	// its bounding sphere touches. Spheres are tested in view space against
	// the cluster AABBs; directional lights carry an infinite sphere and are
	// written to every cluster without the geometric test. Depth slices are
	// processed in parallel.
	//
	// Parameters:
	//   - w: the world owning the lights and main camera
	//   - vis: the resolver holding this frame's visible light set
	//
	// Returns:
	//   - CullStats: aggregate statistics for the pass
	CullLightsCPU(w world.RenderWorld, vis world.VisibilityResolver) CullStats

	// CullLights records the GPU culling dispatch. The compute pipeline is
	// owned by the rendering backend and is not wired here; the call always
	// returns ErrGPUCullNotWired.
	//
	// Parameters:
	//   - pass: the compute pass to record into
	//
	// Returns:
	//   - error: ErrGPUCullNotWired
	CullLights(pass *wgpu.ComputePassEncoder) error

	// ClusterLightCount returns the number of lights assigned to one cluster
	// by the last CullLightsCPU pass.
	//
	// Parameters:
	//   - x, y, z: cluster coordinates
	//
	// Returns:
	//   - int: the assigned light count
	ClusterLightCount(x, y, z int) int

	// ClusterLights returns the packed light indices assigned to one cluster
	// by the last CullLightsCPU pass. The indices refer to positions in the
	// visible light list passed to the cull, and the returned slice aliases
	// internal storage valid until the next cull.
	//
	// Parameters:
	//   - x, y, z: cluster coordinates
	//
	// Returns:
	//   - []uint32: the assigned light indices
	ClusterLights(x, y, z int) []uint32

	// UploadClusterBounds writes the cluster AABBs to the bounds buffer.
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadClusterBounds() error

	// UploadLightGrid writes the per-cluster ranges and the packed light
	// index list produced by the last CullLightsCPU pass.
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadLightGrid() error

	// UploadCullUniforms writes the cull uniform block for the given camera
	// and light count.
	//
	// Parameters:
	//   - cam: the camera whose matrices feed the uniforms
	//   - lightCount: the active light count
	//
	// Returns:
	//   - error: error if the upload fails or Initialize has not run
	UploadCullUniforms(cam *proxy.CameraProxy, lightCount int) error

	// BoundsBuffer returns the cluster bounds storage buffer for binding.
	//
	// Returns:
	//   - device.Buffer: the bounds buffer, or nil before Initialize
	BoundsBuffer() device.Buffer

	// LightGridBuffer returns the per-cluster range storage buffer.
	//
	// Returns:
	//   - device.Buffer: the grid buffer, or nil before Initialize
	LightGridBuffer() device.Buffer

	// LightIndexBuffer returns the packed light index storage buffer.
	//
	// Returns:
	//   - device.Buffer: the index buffer, or nil before Initialize
	LightIndexBuffer() device.Buffer

	// UniformBuffer returns the cull uniform buffer.
	//
	// Returns:
	//   - device.Buffer: the uniform buffer, or nil before Initialize
	UniformBuffer() device.Buffer
}

type clusterGrid struct {
	config Config

	bounds []common.AABB

	// Packed CPU culling output: cluster c owns
	// lightIndices[c*maxLightsPerCluster : c*maxLightsPerCluster+counts[c]].
	lightIndices []uint32
	counts       []uint32

	lastWidth   int
	lastHeight  int
	lastNear    float32
	lastFar     float32
	lastInvProj [16]float32
	built       bool

	boundsBuffer  device.Buffer
	gridBuffer    device.Buffer
	indexBuffer   device.Buffer
	uniformBuffer device.Buffer

	cullWorkers int
	cullPool    worker.DynamicWorkerPool
}

var _ ClusterGrid = &clusterGrid{}

func (g *clusterGrid) Config() Config {
	return g.config
}

func (g *clusterGrid) TotalClusters() int {
	return g.config.ClustersX * g.config.ClustersY * g.config.ClustersZ
}

func (g *clusterGrid) clusterIndex(x, y, z int) int {
	return (z*g.config.ClustersY+y)*g.config.ClustersX + x
}

func (g *clusterGrid) Initialize(dev device.Device) error {
	total := uint64(g.TotalClusters())

	var err error
	g.boundsBuffer, err = dev.CreateBuffer("cluster-bounds", total*uint64((&GPUClusterBounds{}).Size()), device.BufferUsageStorage|device.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("cluster: create bounds buffer: %w", err)
	}
	g.gridBuffer, err = dev.CreateBuffer("cluster-light-grid", total*uint64((&GPUClusterRange{}).Size()), device.BufferUsageStorage|device.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("cluster: create light grid buffer: %w", err)
	}
	g.indexBuffer, err = dev.CreateBuffer("cluster-light-indices", total*uint64(g.config.MaxLightsPerCluster)*4, device.BufferUsageStorage|device.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("cluster: create light index buffer: %w", err)
	}
	g.uniformBuffer, err = dev.CreateBuffer("cluster-cull-uniforms", uint64((&GPUClusterCullUniforms{}).Size()), device.BufferUsageUniform|device.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("cluster: create cull uniform buffer: %w", err)
	}
	return nil
}

func (g *clusterGrid) Update(screenWidth, screenHeight int, near, far float32, invProjection [16]float32) bool {
	if g.built &&
		screenWidth == g.lastWidth && screenHeight == g.lastHeight &&
		near == g.lastNear && far == g.lastFar &&
		invProjection == g.lastInvProj {
		return false
	}
	g.lastWidth = screenWidth
	g.lastHeight = screenHeight
	g.lastNear = near
	g.lastFar = far
	g.lastInvProj = invProjection
	g.built = true

	g.rebuildBounds(near, far, invProjection)
	return true
}

// rebuildBounds recomputes every cluster AABB. X/Y are a uniform screen-space
// grid; Z uses a logarithmic split so near clusters stay thin where depth
// precision matters:
//
//	sliceZ(i) = near * (far/near)^(i/clustersZ)
//
// Each cluster's screen rect is unprojected on both the near and far planes
// and the corner edges are interpolated to the slice's depth bounds. The
// near-to-far corner segment is a straight line in view space for both
// perspective and orthographic projections, so no per-slice NDC depths are
// needed.
func (g *clusterGrid) rebuildBounds(near, far float32, invProj [16]float32) {
	cx, cy, cz := g.config.ClustersX, g.config.ClustersY, g.config.ClustersZ
	logFarNear := math.Log(float64(far) / float64(near))

	sliceDepth := func(i int) float32 {
		return near * float32(math.Exp(logFarNear*float64(i)/float64(cz)))
	}

	for z := 0; z < cz; z++ {
		zNear := sliceDepth(z)
		zFar := sliceDepth(z + 1)
		for y := 0; y < cy; y++ {
			// NDC Y grows upward; cluster y=0 is the bottom row.
			ndcY0 := 2*float32(y)/float32(cy) - 1
			ndcY1 := 2*float32(y+1)/float32(cy) - 1
			for x := 0; x < cx; x++ {
				ndcX0 := 2*float32(x)/float32(cx) - 1
				ndcX1 := 2*float32(x+1)/float32(cx) - 1

				box := common.AABB{
					Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
					Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
				}
				for _, nx := range [2]float32{ndcX0, ndcX1} {
					for _, ny := range [2]float32{ndcY0, ndcY1} {
						// Near and far planes map to NDC depth 0 and 1 in
						// WebGPU clip space. The segment between the two
						// unprojected corners is the cluster edge in view
						// space; interpolating along it lands on each depth
						// bound for perspective and orthographic projections
						// alike. View-space Z is negative in front of the
						// camera.
						nxv, nyv, nzv := common.TransformPoint(invProj[:], nx, ny, 0)
						fxv, fyv, fzv := common.TransformPoint(invProj[:], nx, ny, 1)
						for _, depth := range [2]float32{zNear, zFar} {
							t := (-depth - nzv) / (fzv - nzv)
							box = box.Expand(nxv+t*(fxv-nxv), nyv+t*(fyv-nyv), nzv+t*(fzv-nzv))
						}
					}
				}
				g.bounds[g.clusterIndex(x, y, z)] = box
			}
		}
	}
}

func (g *clusterGrid) ClusterBounds(x, y, z int) common.AABB {
	return g.bounds[g.clusterIndex(x, y, z)]
}

func (g *clusterGrid) CullLightsCPU(w world.RenderWorld, vis world.VisibilityResolver) CullStats {
	for i := range g.counts {
		g.counts[i] = 0
	}

	cam, ok := w.MainCameraProxy()
	if !ok {
		return CullStats{}
	}

	// Resolve handles up front and move light spheres into view space, where
	// the cluster bounds live. Stale handles dropped here simply shrink the
	// visible set.
	handles := vis.VisibleLights()
	lights := make([]viewLight, 0, len(handles))
	for _, h := range handles {
		l, ok := w.Light(h)
		if !ok {
			continue
		}
		s := l.GetBoundingSphere()
		vl := viewLight{radius: s.Radius, directional: s.IsInfinite()}
		if !vl.directional {
			vx, vy, vz := common.TransformPoint(cam.ViewMatrix[:], s.Center[0], s.Center[1], s.Center[2])
			vl.center = [3]float32{vx, vy, vz}
		}
		lights = append(lights, vl)
	}

	// One task per depth slice; slices touch disjoint count/index ranges so
	// no locking is needed beyond the completion barrier.
	sliceStats := make([]CullStats, g.config.ClustersZ)
	var wg sync.WaitGroup
	for z := 0; z < g.config.ClustersZ; z++ {
		wg.Add(1)
		zCap := z
		g.cullPool.SubmitTask(worker.Task{
			ID: zCap,
			Do: func() (any, error) {
				defer wg.Done()
				g.cullSlice(zCap, lights, &sliceStats[zCap])
				return nil, nil
			},
		})
	}
	wg.Wait()

	stats := CullStats{VisibleLights: len(lights)}
	for _, s := range sliceStats {
		stats.TotalAssignments += s.TotalAssignments
		stats.OverflowClusters += s.OverflowClusters
		if s.MaxPerCluster > stats.MaxPerCluster {
			stats.MaxPerCluster = s.MaxPerCluster
		}
	}
	return stats
}

// viewLight is a light sphere moved into view space for cluster testing.
type viewLight struct {
	center      [3]float32
	radius      float32
	directional bool
}

// cullSlice assigns lights to every cluster of one depth slice.
func (g *clusterGrid) cullSlice(z int, lights []viewLight, stats *CullStats) {
	maxPer := g.config.MaxLightsPerCluster
	for y := 0; y < g.config.ClustersY; y++ {
		for x := 0; x < g.config.ClustersX; x++ {
			c := g.clusterIndex(x, y, z)
			box := g.bounds[c]
			base := c * maxPer
			count := 0
			overflowed := false
			for li, l := range lights {
				if !l.directional && !box.IntersectsSphere(common.Sphere{Center: l.center, Radius: l.radius}) {
					continue
				}
				if count >= maxPer {
					overflowed = true
					break
				}
				g.lightIndices[base+count] = uint32(li)
				count++
			}
			g.counts[c] = uint32(count)
			stats.TotalAssignments += count
			if count > stats.MaxPerCluster {
				stats.MaxPerCluster = count
			}
			if overflowed {
				stats.OverflowClusters++
			}
		}
	}
}

func (g *clusterGrid) CullLights(pass *wgpu.ComputePassEncoder) error {
	// The compute pipeline, bind groups, and dispatch geometry belong to the
	// rendering backend; this core only owns the buffers it would bind.
	_ = pass
	return ErrGPUCullNotWired
}

func (g *clusterGrid) ClusterLightCount(x, y, z int) int {
	return int(g.counts[g.clusterIndex(x, y, z)])
}

func (g *clusterGrid) ClusterLights(x, y, z int) []uint32 {
	c := g.clusterIndex(x, y, z)
	base := c * g.config.MaxLightsPerCluster
	return g.lightIndices[base : base+int(g.counts[c])]
}

func (g *clusterGrid) UploadClusterBounds() error {
	if g.boundsBuffer == nil {
		return errors.New("cluster: Initialize must run before uploads")
	}
	mapped, err := g.boundsBuffer.Map()
	if err != nil {
		return fmt.Errorf("cluster: map bounds buffer: %w", err)
	}
	entry := GPUClusterBounds{}
	sz := entry.Size()
	for i, b := range g.bounds {
		entry.Min = b.Min
		entry.Max = b.Max
		copy(mapped[i*sz:(i+1)*sz], entry.Marshal())
	}
	return g.boundsBuffer.Unmap()
}

func (g *clusterGrid) UploadLightGrid() error {
	if g.gridBuffer == nil || g.indexBuffer == nil {
		return errors.New("cluster: Initialize must run before uploads")
	}

	mapped, err := g.gridBuffer.Map()
	if err != nil {
		return fmt.Errorf("cluster: map light grid buffer: %w", err)
	}
	r := GPUClusterRange{}
	sz := r.Size()
	maxPer := uint32(g.config.MaxLightsPerCluster)
	for i, count := range g.counts {
		r.Offset = uint32(i) * maxPer
		r.Count = count
		copy(mapped[i*sz:(i+1)*sz], r.Marshal())
	}
	if err := g.gridBuffer.Unmap(); err != nil {
		return err
	}

	mapped, err = g.indexBuffer.Map()
	if err != nil {
		return fmt.Errorf("cluster: map light index buffer: %w", err)
	}
	copy(mapped, common.SliceToBytes(g.lightIndices))
	return g.indexBuffer.Unmap()
}

func (g *clusterGrid) UploadCullUniforms(cam *proxy.CameraProxy, lightCount int) error {
	if g.uniformBuffer == nil {
		return errors.New("cluster: Initialize must run before uploads")
	}
	u := GPUClusterCullUniforms{
		InvProj:             cam.InverseProjection,
		ViewMatrix:          cam.ViewMatrix,
		ClusterCountX:       uint32(g.config.ClustersX),
		ClusterCountY:       uint32(g.config.ClustersY),
		ClusterCountZ:       uint32(g.config.ClustersZ),
		MaxLightsPerCluster: uint32(g.config.MaxLightsPerCluster),
		ScreenWidth:         uint32(g.lastWidth),
		ScreenHeight:        uint32(g.lastHeight),
		LightCount:          uint32(lightCount),
		Near:                g.lastNear,
		Far:                 g.lastFar,
	}
	mapped, err := g.uniformBuffer.Map()
	if err != nil {
		return fmt.Errorf("cluster: map cull uniform buffer: %w", err)
	}
	copy(mapped, u.Marshal())
	return g.uniformBuffer.Unmap()
}

func (g *clusterGrid) BoundsBuffer() device.Buffer     { return g.boundsBuffer }
func (g *clusterGrid) LightGridBuffer() device.Buffer  { return g.gridBuffer }
func (g *clusterGrid) LightIndexBuffer() device.Buffer { return g.indexBuffer }
func (g *clusterGrid) UniformBuffer() device.Buffer    { return g.uniformBuffer }
