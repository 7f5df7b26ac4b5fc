package proxy

import (
	"math"
	"testing"

	"github.com/argon-engine/argon/common"
)

func TestLightProxy_BoundingSphere(t *testing.T) {
	t.Run("directional is infinite", func(t *testing.T) {
		l := LightProxy{Type: LightTypeDirectional, Direction: [3]float32{0, -1, 0}}
		if !l.GetBoundingSphere().IsInfinite() {
			t.Fatal("directional light sphere must be infinite")
		}
	})

	t.Run("point uses range", func(t *testing.T) {
		l := LightProxy{Type: LightTypePoint, Position: [3]float32{1, 2, 3}, Range: 7}
		s := l.GetBoundingSphere()
		if s.Center != [3]float32{1, 2, 3} || s.Radius != 7 {
			t.Fatalf("point sphere = %+v", s)
		}
	})

	t.Run("narrow spot encloses cone", func(t *testing.T) {
		l := LightProxy{
			Type:      LightTypeSpot,
			Position:  [3]float32{0, 0, 0},
			Direction: [3]float32{0, 0, -1},
			Range:     10,
		}
		l.SetSpotCone(20, 30)
		s := l.GetBoundingSphere()

		// The cone tip and the far cap rim must both be inside the sphere.
		if !sphereContains(s, [3]float32{0, 0, 0}) {
			t.Fatal("sphere must contain the cone tip")
		}
		capZ := -10 * float32(math.Cos(float64(l.OuterConeAngle)))
		capR := 10 * float32(math.Sin(float64(l.OuterConeAngle)))
		if !sphereContains(s, [3]float32{capR, 0, capZ}) {
			t.Fatal("sphere must contain the cone cap rim")
		}
	})

	t.Run("wide spot encloses cone", func(t *testing.T) {
		l := LightProxy{
			Type:      LightTypeSpot,
			Position:  [3]float32{0, 0, 0},
			Direction: [3]float32{0, 0, -1},
			Range:     10,
		}
		l.SetSpotCone(50, 60)
		s := l.GetBoundingSphere()

		if !sphereContains(s, [3]float32{0, 0, 0}) {
			t.Fatal("sphere must contain the cone tip")
		}
		capZ := -10 * float32(math.Cos(float64(l.OuterConeAngle)))
		capR := 10 * float32(math.Sin(float64(l.OuterConeAngle)))
		if !sphereContains(s, [3]float32{0, capR, capZ}) {
			t.Fatal("sphere must contain the cone cap rim")
		}
	})

	t.Run("area adds half diagonal", func(t *testing.T) {
		l := LightProxy{
			Type:     LightTypeArea,
			Position: [3]float32{0, 0, 0},
			Range:    5,
			AreaSize: [2]float32{3, 4},
		}
		s := l.GetBoundingSphere()
		if s.Radius != 5+2.5 {
			t.Fatalf("area sphere radius = %v, want 7.5", s.Radius)
		}
	})
}

func TestLightProxy_SpotCone(t *testing.T) {
	l := LightProxy{Type: LightTypeSpot}
	l.SetSpotCone(30, 45)

	if got, want := l.CosInnerCone(), float32(math.Cos(math.Pi/6)); !nearlyEqual(got, want) {
		t.Errorf("CosInnerCone() = %v, want %v", got, want)
	}
	if got, want := l.CosOuterCone(), float32(math.Cos(math.Pi/4)); !nearlyEqual(got, want) {
		t.Errorf("CosOuterCone() = %v, want %v", got, want)
	}
}

func TestLightProxy_SetDirection(t *testing.T) {
	l := LightProxy{}
	l.SetDirection(0, 0, -4)
	if !nearlyEqual(l.Direction[2], -1) {
		t.Fatalf("SetDirection must normalize, got %v", l.Direction)
	}

	// A zero vector must not produce NaNs.
	l.SetDirection(0, 0, 0)
	for _, c := range l.Direction {
		if math.IsNaN(float64(c)) {
			t.Fatal("SetDirection(0,0,0) produced NaN")
		}
	}
}

func nearlyEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func sphereContains(s common.Sphere, p [3]float32) bool {
	dx := float64(p[0] - s.Center[0])
	dy := float64(p[1] - s.Center[1])
	dz := float64(p[2] - s.Center[2])
	// Small epsilon absorbs float32 rounding in the sphere construction.
	return math.Sqrt(dx*dx+dy*dy+dz*dz) <= float64(s.Radius)+1e-4
}
