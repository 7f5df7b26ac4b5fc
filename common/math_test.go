package common

import (
	"math"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
)

const matEps = 1e-5

func matsClose(t *testing.T, got [16]float32, want mgl.Mat4) {
	t.Helper()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(got[i]-want[i])) > matEps {
			t.Fatalf("matrix mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestLookAt_MatchesMathgl(t *testing.T) {
	tests := []struct {
		name            string
		eye, center, up [3]float32
	}{
		{"origin down -Z", [3]float32{0, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{"offset eye", [3]float32{3, 4, 5}, [3]float32{0, 1, 0}, [3]float32{0, 1, 0}},
		{"tilted up", [3]float32{-2, 0.5, 7}, [3]float32{1, 1, 1}, [3]float32{0.1, 0.9, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [16]float32
			LookAt(got[:],
				tt.eye[0], tt.eye[1], tt.eye[2],
				tt.center[0], tt.center[1], tt.center[2],
				tt.up[0], tt.up[1], tt.up[2],
			)
			want := mgl.LookAtV(
				mgl.Vec3{tt.eye[0], tt.eye[1], tt.eye[2]},
				mgl.Vec3{tt.center[0], tt.center[1], tt.center[2]},
				mgl.Vec3{tt.up[0], tt.up[1], tt.up[2]},
			)
			matsClose(t, got, want)
		})
	}
}

func TestMul4_MatchesMathgl(t *testing.T) {
	a := mgl.Translate3D(1, 2, 3).Mul4(mgl.HomogRotate3DY(0.7))
	b := mgl.Scale3D(2, 0.5, 4).Mul4(mgl.HomogRotate3DX(-1.1))

	var got [16]float32
	Mul4(got[:], a[:], b[:])

	matsClose(t, got, a.Mul4(b))
}

func TestInvert4_MatchesMathgl(t *testing.T) {
	m := mgl.Translate3D(5, -3, 2).
		Mul4(mgl.HomogRotate3DZ(0.4)).
		Mul4(mgl.Scale3D(1.5, 2, 0.75))

	var got [16]float32
	if !Invert4(got[:], m[:]) {
		t.Fatal("Invert4 reported singular for an invertible matrix")
	}
	matsClose(t, got, m.Inv())
}

func TestInvert4_Singular(t *testing.T) {
	var zero [16]float32
	out := [16]float32{42}
	if Invert4(out[:], zero[:]) {
		t.Fatal("Invert4 inverted a singular matrix")
	}
	if out[0] != 42 {
		t.Fatal("Invert4 modified the output for a singular input")
	}
}

func TestTranspose4_MatchesMathgl(t *testing.T) {
	m := mgl.Translate3D(1, 2, 3).Mul4(mgl.HomogRotate3DY(0.3))
	var got [16]float32
	Transpose4(got[:], m[:])
	matsClose(t, got, m.Transpose())

	// In-place transpose must also work.
	inPlace := [16]float32(m)
	Transpose4(inPlace[:], inPlace[:])
	matsClose(t, inPlace, m.Transpose())
}

func TestPerspective_ClipRange(t *testing.T) {
	// mathgl's Perspective targets GL clip space (Z in [-1, 1]), so the WebGPU
	// projection is verified by its mapping properties instead.
	var p [16]float32
	near, far := float32(0.1), float32(100.0)
	Perspective(p[:], float32(math.Pi/3), 16.0/9.0, near, far)

	_, _, zNear := TransformPoint(p[:], 0, 0, -near)
	if math.Abs(float64(zNear)) > 1e-5 {
		t.Fatalf("near plane should map to NDC z=0, got %v", zNear)
	}

	_, _, zFar := TransformPoint(p[:], 0, 0, -far)
	if math.Abs(float64(zFar-1)) > 1e-4 {
		t.Fatalf("far plane should map to NDC z=1, got %v", zFar)
	}

	// A point on the top edge of the view volume at the near plane lands at y=+1.
	halfFovTan := float32(math.Tan(math.Pi / 6))
	_, y, _ := TransformPoint(p[:], 0, near*halfFovTan, -near)
	if math.Abs(float64(y-1)) > 1e-4 {
		t.Fatalf("top edge should map to NDC y=1, got %v", y)
	}
}

func TestOrtho_ClipRange(t *testing.T) {
	var p [16]float32
	Ortho(p[:], -10, 10, -5, 5, 0.5, 50)

	x, y, z := TransformPoint(p[:], 10, 5, -0.5)
	if math.Abs(float64(x-1)) > 1e-5 || math.Abs(float64(y-1)) > 1e-5 || math.Abs(float64(z)) > 1e-5 {
		t.Fatalf("near top-right corner should map to (1,1,0), got (%v,%v,%v)", x, y, z)
	}

	_, _, zFar := TransformPoint(p[:], 0, 0, -50)
	if math.Abs(float64(zFar-1)) > 1e-5 {
		t.Fatalf("far plane should map to NDC z=1, got %v", zFar)
	}
}

func TestNormalMatrix(t *testing.T) {
	// For a pure rotation the normal matrix equals the rotation itself.
	r := mgl.HomogRotate3DY(0.9)
	var nm [16]float32
	NormalMatrix(nm[:], r[:])
	matsClose(t, nm, r)

	// For a non-uniform scale it must differ from the world matrix.
	s := mgl.Scale3D(2, 1, 1)
	NormalMatrix(nm[:], s[:])
	if math.Abs(float64(nm[0]-0.5)) > matEps {
		t.Fatalf("normal matrix of scale(2,1,1) should have 0.5 at [0], got %v", nm[0])
	}
}

func TestVectorHelpers(t *testing.T) {
	n := Normalize3(3, 0, 4)
	if math.Abs(float64(n[0]-0.6)) > matEps || math.Abs(float64(n[2]-0.8)) > matEps {
		t.Fatalf("Normalize3(3,0,4) = %v", n)
	}

	c := Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0})
	if c != [3]float32{0, 0, 1} {
		t.Fatalf("Cross3(x,y) = %v, want z", c)
	}

	if d := Dot3([3]float32{1, 2, 3}, [3]float32{4, -5, 6}); d != 12 {
		t.Fatalf("Dot3 = %v, want 12", d)
	}
}
