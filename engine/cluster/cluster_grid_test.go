package cluster

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/world"
)

// newTestScene builds a world with a main camera at the origin looking down
// -Z and a grid updated to that camera's projection.
func newTestScene(t *testing.T, near, far float32, opts ...ClusterGridBuilderOption) (world.RenderWorld, ClusterGrid) {
	t.Helper()
	w := world.NewRenderWorld()
	cam := w.CreateCameraProxy(world.WithPerspective(60, 1920.0/1080.0, near, far))
	w.SetMainCamera(cam)
	c, _ := w.Camera(cam)
	c.UpdateMatrices(false)

	g := NewClusterGrid(opts...)
	if !g.Update(1920, 1080, near, far, c.InverseProjection) {
		t.Fatal("first Update must rebuild")
	}
	return w, g
}

func TestClusterGrid_UpdateChangeDetection(t *testing.T) {
	_, g := newTestScene(t, 0.1, 100)

	c := world.NewRenderWorld()
	camH := c.CreateCameraProxy(world.WithPerspective(60, 1920.0/1080.0, 0.1, 100))
	cam, _ := c.Camera(camH)
	cam.UpdateMatrices(false)

	if g.Update(1920, 1080, 0.1, 100, cam.InverseProjection) {
		t.Error("unchanged parameters must be a no-op")
	}
	if !g.Update(1920, 1080, 0.1, 200, cam.InverseProjection) {
		t.Error("changed far plane must rebuild")
	}
	if !g.Update(1280, 720, 0.1, 200, cam.InverseProjection) {
		t.Error("changed screen size must rebuild")
	}
}

func TestClusterGrid_ZSliceCoverage(t *testing.T) {
	const near, far = 0.1, 100.0
	_, g := newTestScene(t, near, far)
	cfg := g.Config()

	const eps = 1e-3

	// Slice 0 must start at -near and the last slice must end at -far.
	first := g.ClusterBounds(0, 0, 0)
	if math.Abs(float64(first.Max[2]+near)) > eps {
		t.Errorf("slice 0 near bound = %v, want %v", first.Max[2], -near)
	}
	last := g.ClusterBounds(0, 0, cfg.ClustersZ-1)
	if math.Abs(float64(last.Min[2]+far)) > eps*far {
		t.Errorf("last slice far bound = %v, want %v", last.Min[2], -far)
	}

	// Adjacent slices must share their boundary depth exactly: no gaps, no
	// overlap beyond the shared plane.
	for z := 0; z < cfg.ClustersZ-1; z++ {
		a := g.ClusterBounds(4, 4, z)
		b := g.ClusterBounds(4, 4, z+1)
		if math.Abs(float64(a.Min[2]-b.Max[2])) > eps*math.Abs(float64(a.Min[2])) {
			t.Fatalf("gap between slice %d (min z %v) and slice %d (max z %v)", z, a.Min[2], z+1, b.Max[2])
		}
	}

	// Logarithmic split: near slices must be thinner than far slices.
	nearDepth := first.Max[2] - first.Min[2]
	farDepth := last.Max[2] - last.Min[2]
	if nearDepth >= farDepth {
		t.Errorf("near slice depth %v must be smaller than far slice depth %v", nearDepth, farDepth)
	}
}

// sliceForDepth returns the Z slice whose logarithmic depth range contains
// the given view depth.
func sliceForDepth(cfg Config, near, far, depth float64) int {
	return int(math.Floor(float64(cfg.ClustersZ) * math.Log(depth/near) / math.Log(far/near)))
}

func TestClusterGrid_CullLightsCPU(t *testing.T) {
	const near, far = 0.1, 1000.0
	w, g := newTestScene(t, near, far)
	cfg := g.Config()

	w.CreatePointLight([3]float32{0, 0, -5}, [3]float32{1, 1, 1}, 1, 10)

	vis := world.NewVisibilityResolver()
	vis.Resolve(w)
	stats := g.CullLightsCPU(w, vis)

	if stats.VisibleLights != 1 {
		t.Fatalf("VisibleLights = %d, want 1", stats.VisibleLights)
	}
	if stats.TotalAssignments == 0 {
		t.Fatal("point light in the frustum must land in at least one cluster")
	}

	centerX, centerY := cfg.ClustersX/2, cfg.ClustersY/2
	nearSlice := sliceForDepth(cfg, near, far, 5)
	if g.ClusterLightCount(centerX, centerY, nearSlice) == 0 {
		t.Errorf("light must be present in center cluster at slice %d (depth 5)", nearSlice)
	}

	farSlice := sliceForDepth(cfg, near, far, 500)
	if g.ClusterLightCount(centerX, centerY, farSlice) != 0 {
		t.Errorf("light must be absent from center cluster at slice %d (depth 500)", farSlice)
	}

	if got := g.ClusterLights(centerX, centerY, nearSlice); len(got) == 0 || got[0] != 0 {
		t.Errorf("ClusterLights() = %v, want [0]", got)
	}
}

func TestClusterGrid_DirectionalLightHitsEveryCluster(t *testing.T) {
	w, g := newTestScene(t, 0.1, 100)
	cfg := g.Config()

	w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)

	vis := world.NewVisibilityResolver()
	vis.Resolve(w)
	stats := g.CullLightsCPU(w, vis)

	if stats.TotalAssignments != g.TotalClusters() {
		t.Fatalf("TotalAssignments = %d, want %d", stats.TotalAssignments, g.TotalClusters())
	}
	if g.ClusterLightCount(0, 0, 0) != 1 || g.ClusterLightCount(cfg.ClustersX-1, cfg.ClustersY-1, cfg.ClustersZ-1) != 1 {
		t.Fatal("directional light missing from a corner cluster")
	}
}

func TestClusterGrid_PerClusterOverflow(t *testing.T) {
	w, g := newTestScene(t, 0.1, 100, WithConfig(Config{
		ClustersX:           4,
		ClustersY:           4,
		ClustersZ:           4,
		MaxLightsPerCluster: 2,
	}))

	for range 3 {
		w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)
	}

	vis := world.NewVisibilityResolver()
	vis.Resolve(w)
	stats := g.CullLightsCPU(w, vis)

	if stats.MaxPerCluster != 2 {
		t.Errorf("MaxPerCluster = %d, want capacity 2", stats.MaxPerCluster)
	}
	if stats.OverflowClusters != g.TotalClusters() {
		t.Errorf("OverflowClusters = %d, want %d", stats.OverflowClusters, g.TotalClusters())
	}
	if g.ClusterLightCount(0, 0, 0) != 2 {
		t.Errorf("cluster count = %d, want clamped 2", g.ClusterLightCount(0, 0, 0))
	}
}

func TestClusterGrid_CullWithoutCamera(t *testing.T) {
	w := world.NewRenderWorld()
	w.CreatePointLight([3]float32{}, [3]float32{1, 1, 1}, 1, 5)

	g := NewClusterGrid()
	vis := world.NewVisibilityResolver()
	vis.Resolve(w)

	if stats := g.CullLightsCPU(w, vis); stats.TotalAssignments != 0 {
		t.Fatal("culling without a main camera must assign nothing")
	}
}

func TestClusterGrid_GPUCullIsStubbed(t *testing.T) {
	g := NewClusterGrid()
	if err := g.CullLights(nil); err != ErrGPUCullNotWired {
		t.Fatalf("CullLights() = %v, want ErrGPUCullNotWired", err)
	}
}

func TestClusterGrid_Uploads(t *testing.T) {
	w, g := newTestScene(t, 0.1, 100, WithConfig(Config{
		ClustersX:           4,
		ClustersY:           2,
		ClustersZ:           2,
		MaxLightsPerCluster: 8,
	}))

	dev := device.NewHeadlessDevice()
	if err := g.Initialize(dev); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	if err := g.UploadClusterBounds(); err != nil {
		t.Fatalf("UploadClusterBounds() = %v", err)
	}
	raw := device.HeadlessBytes(g.BoundsBuffer())
	if len(raw) != g.TotalClusters()*32 {
		t.Fatalf("bounds buffer = %d bytes, want %d", len(raw), g.TotalClusters()*32)
	}
	// First record must match the first cluster's bounds.
	b := g.ClusterBounds(0, 0, 0)
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4])); got != b.Min[0] {
		t.Errorf("uploaded min X = %v, want %v", got, b.Min[0])
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[16:20])); got != b.Max[0] {
		t.Errorf("uploaded max X = %v, want %v", got, b.Max[0])
	}

	w.CreateDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1)
	vis := world.NewVisibilityResolver()
	vis.Resolve(w)
	g.CullLightsCPU(w, vis)

	if err := g.UploadLightGrid(); err != nil {
		t.Fatalf("UploadLightGrid() = %v", err)
	}
	grid := device.HeadlessBytes(g.LightGridBuffer())
	// Cluster 1's range: offset = 1 * MaxLightsPerCluster, count = 1.
	if got := binary.LittleEndian.Uint32(grid[8:12]); got != 8 {
		t.Errorf("cluster 1 offset = %d, want 8", got)
	}
	if got := binary.LittleEndian.Uint32(grid[12:16]); got != 1 {
		t.Errorf("cluster 1 count = %d, want 1", got)
	}

	cam, _ := w.MainCameraProxy()
	if err := g.UploadCullUniforms(cam, 1); err != nil {
		t.Fatalf("UploadCullUniforms() = %v", err)
	}
	uni := device.HeadlessBytes(g.UniformBuffer())
	if len(uni) != 176 {
		t.Fatalf("uniform buffer = %d bytes, want 176", len(uni))
	}
	if got := binary.LittleEndian.Uint32(uni[128:132]); got != 4 {
		t.Errorf("cluster_count_x = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(uni[152:156]); got != 1 {
		t.Errorf("light_count = %d, want 1", got)
	}

	if err := g.UploadCullUniforms(cam, 1); err != nil {
		t.Fatalf("second upload must reuse the buffer: %v", err)
	}
}

func TestClusterGrid_UploadBeforeInitialize(t *testing.T) {
	g := NewClusterGrid()
	if err := g.UploadClusterBounds(); err == nil {
		t.Fatal("upload before Initialize must fail")
	}
	if err := g.UploadLightGrid(); err == nil {
		t.Fatal("upload before Initialize must fail")
	}
}

func TestClusterGrid_BoundsMatchFrustum(t *testing.T) {
	// The union of all clusters in one slice must reach the frustum side
	// planes: at depth d, a symmetric perspective frustum spans
	// ±d·tan(fov/2)·aspect in X.
	const near, far = 0.1, 100.0
	_, g := newTestScene(t, near, far)
	cfg := g.Config()

	union := g.ClusterBounds(0, 0, 0)
	for x := 0; x < cfg.ClustersX; x++ {
		for y := 0; y < cfg.ClustersY; y++ {
			union = union.Union(g.ClusterBounds(x, y, 0))
		}
	}
	depth := float64(-union.Min[2])
	wantHalfX := depth * math.Tan(math.Pi/6) * 1920.0 / 1080.0
	if math.Abs(float64(union.Max[0])-wantHalfX) > wantHalfX*0.01 {
		t.Errorf("slice 0 half-width = %v, want about %v", union.Max[0], wantHalfX)
	}
	if math.Abs(float64(union.Min[0])+wantHalfX) > wantHalfX*0.01 {
		t.Errorf("slice 0 negative half-width = %v, want about %v", union.Min[0], -wantHalfX)
	}
}

func TestClusterGrid_OrthographicBounds(t *testing.T) {
	// An orthographic view volume has constant XY extents at every depth.
	// Bounds must stay inside ±halfHeight regardless of slice.
	const halfHeight, near, far = 10.0, 0.1, 100.0
	w := world.NewRenderWorld()
	camH := w.CreateCameraProxy(world.WithOrthographic(halfHeight, 1, near, far))
	w.SetMainCamera(camH)
	c, _ := w.Camera(camH)
	c.UpdateMatrices(false)

	g := NewClusterGrid()
	if !g.Update(1024, 1024, near, far, c.InverseProjection) {
		t.Fatal("first Update must rebuild")
	}
	cfg := g.Config()

	const eps = 1e-3
	union := g.ClusterBounds(0, 0, 0)
	for x := 0; x < cfg.ClustersX; x++ {
		for y := 0; y < cfg.ClustersY; y++ {
			for z := 0; z < cfg.ClustersZ; z++ {
				b := g.ClusterBounds(x, y, z)
				if b.Min[0] < -halfHeight-eps || b.Max[0] > halfHeight+eps {
					t.Fatalf("cluster (%d,%d,%d) X span [%v, %v] exceeds ortho half-width %v", x, y, z, b.Min[0], b.Max[0], halfHeight)
				}
				if b.Min[1] < -halfHeight-eps || b.Max[1] > halfHeight+eps {
					t.Fatalf("cluster (%d,%d,%d) Y span [%v, %v] exceeds ortho half-height %v", x, y, z, b.Min[1], b.Max[1], halfHeight)
				}
				if b.Min[2] < -far-eps || b.Max[2] > -near+eps {
					t.Fatalf("cluster (%d,%d,%d) Z span [%v, %v] outside [%v, %v]", x, y, z, b.Min[2], b.Max[2], -far, -near)
				}
				union = union.Union(b)
			}
		}
	}

	// The clusters together must still cover the full volume cross-section.
	if math.Abs(float64(union.Max[0])-halfHeight) > eps || math.Abs(float64(union.Min[0])+halfHeight) > eps {
		t.Errorf("union X span [%v, %v], want [%v, %v]", union.Min[0], union.Max[0], -halfHeight, halfHeight)
	}
	if math.Abs(float64(union.Max[1])-halfHeight) > eps || math.Abs(float64(union.Min[1])+halfHeight) > eps {
		t.Errorf("union Y span [%v, %v], want [%v, %v]", union.Min[1], union.Max[1], -halfHeight, halfHeight)
	}
}
