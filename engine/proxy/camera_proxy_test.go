package proxy

import (
	"math"
	"testing"

	"github.com/argon-engine/argon/common"
)

func newTestCamera() CameraProxy {
	c := CameraProxy{
		Position:   [3]float32{0, 0, 0},
		Projection: ProjectionPerspective,
		FovY:       float32(math.Pi / 3),
		Aspect:     16.0 / 9.0,
		Near:       0.1,
		Far:        100,
	}
	c.SetBasis([3]float32{0, 0, -1}, [3]float32{0, 1, 0})
	return c
}

func TestCameraProxy_UpdateMatrices(t *testing.T) {
	c := newTestCamera()
	c.UpdateMatrices(false)

	// A point straight ahead must land at NDC center with z in (0, 1).
	x, y, z := common.TransformPoint(c.ViewProjection[:], 0, 0, -10)
	if math.Abs(float64(x)) > 1e-5 || math.Abs(float64(y)) > 1e-5 {
		t.Fatalf("point ahead should project to center, got (%v, %v)", x, y)
	}
	if z <= 0 || z >= 1 {
		t.Fatalf("depth should be in (0,1), got %v", z)
	}

	// Round trip through the inverse projection.
	var vx, vy, vz float32 = 3, -2, -10
	cx, cy, cz := common.TransformPoint(c.ProjectionMatrix[:], vx, vy, vz)
	rx, ry, rz := common.TransformPoint(c.InverseProjection[:], cx, cy, cz)
	if math.Abs(float64(rx-vx)) > 1e-3 || math.Abs(float64(ry-vy)) > 1e-3 || math.Abs(float64(rz-vz)) > 1e-3 {
		t.Fatalf("inverse projection round trip: (%v,%v,%v) -> (%v,%v,%v)", vx, vy, vz, rx, ry, rz)
	}
}

func TestCameraProxy_MatricesAreStaleUntilUpdate(t *testing.T) {
	c := newTestCamera()
	c.UpdateMatrices(false)
	before := c.ViewProjection

	// Mutating the basis must not touch the matrices (pull, not push).
	c.Position = [3]float32{50, 0, 0}
	if c.ViewProjection != before {
		t.Fatal("field mutation recomputed matrices")
	}

	c.UpdateMatrices(false)
	if c.ViewProjection == before {
		t.Fatal("UpdateMatrices did not pick up the new position")
	}
	if c.PrevViewProjection != before {
		t.Fatal("PrevViewProjection should hold the prior frame's matrix")
	}
}

func TestCameraProxy_VisibilityAfterMove(t *testing.T) {
	c := newTestCamera()
	c.UpdateMatrices(false)

	box := common.AABB{Min: [3]float32{-1, -1, -11}, Max: [3]float32{1, 1, -9}}
	if !c.IsVisibleAABB(box) {
		t.Fatal("box ahead should be visible")
	}

	// Turn the camera around; the same box falls behind it.
	c.SetBasis([3]float32{0, 0, 1}, [3]float32{0, 1, 0})
	c.UpdateMatrices(false)
	if c.IsVisibleAABB(box) {
		t.Fatal("box behind the turned camera should be culled")
	}
}

func TestCameraProxy_FlipY(t *testing.T) {
	c := newTestCamera()
	c.UpdateMatrices(false)
	_, yUp, _ := common.TransformPoint(c.ViewProjection[:], 0, 2, -10)

	c.UpdateMatrices(true)
	_, yDown, _ := common.TransformPoint(c.ViewProjection[:], 0, 2, -10)

	if math.Abs(float64(yUp+yDown)) > 1e-5 {
		t.Fatalf("flipY should negate projected Y: %v vs %v", yUp, yDown)
	}
}

func TestCameraProxy_JitterShiftsClipSpace(t *testing.T) {
	c := newTestCamera()
	c.UpdateMatrices(false)
	x0, _, _ := common.TransformPoint(c.ViewProjection[:], 0, 0, -10)

	const jx = 0.001
	c.SetJitter(jx, 0)
	c.UpdateMatrices(false)
	x1, _, _ := common.TransformPoint(c.ViewProjection[:], 0, 0, -10)

	// The clip-space offset rides the Z column, so after the perspective
	// divide the NDC shift equals -jitter for points in front of the camera.
	if math.Abs(float64((x1-x0)+jx)) > 1e-5 {
		t.Fatalf("jitter NDC shift = %v, want %v", x1-x0, -jx)
	}
}

func TestCameraProxy_AdvanceJitter(t *testing.T) {
	c := newTestCamera()
	for i := 1; i <= 9; i++ {
		c.AdvanceJitter(8)
		if want := uint32(i % 8); c.JitterIndex != want {
			t.Fatalf("after %d advances index = %d, want %d", i, c.JitterIndex, want)
		}
	}
	c.AdvanceJitter(0)
	if c.JitterIndex != 0 {
		t.Fatal("zero sample count should reset the index")
	}
}

func TestCameraProxy_Orthographic(t *testing.T) {
	c := newTestCamera()
	c.Projection = ProjectionOrthographic
	c.OrthoSize = 5
	c.Aspect = 2
	c.UpdateMatrices(false)

	// Top edge of the volume maps to y=1 regardless of depth.
	_, y, _ := common.TransformPoint(c.ViewProjection[:], 0, 5, -50)
	if math.Abs(float64(y-1)) > 1e-5 {
		t.Fatalf("ortho top edge should map to y=1, got %v", y)
	}
	// Right edge honors the aspect-scaled half-width.
	x, _, _ := common.TransformPoint(c.ViewProjection[:], 10, 0, -50)
	if math.Abs(float64(x-1)) > 1e-5 {
		t.Fatalf("ortho right edge should map to x=1, got %v", x)
	}
}
