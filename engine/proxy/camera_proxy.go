package proxy

import (
	"github.com/argon-engine/argon/common"
)

// ProjectionType selects how a CameraProxy builds its projection matrix.
type ProjectionType int

const (
	// ProjectionPerspective is a perspective projection from FovY/Aspect.
	ProjectionPerspective ProjectionType = iota
	// ProjectionOrthographic is an orthographic projection from OrthoSize/Aspect.
	ProjectionOrthographic
)

// CameraProxy is the render-side camera state. The owning layer maintains the
// orthonormal Position/Forward/Up/Right basis and the projection parameters;
// matrices and frustum planes are derived data and are only valid after
// UpdateMatrices runs following any basis or projection change — mutating a
// field never triggers recomputation (pull, not push).
type CameraProxy struct {
	Position [3]float32
	Forward  [3]float32
	Up       [3]float32
	Right    [3]float32

	Projection ProjectionType
	FovY       float32 // vertical field of view in radians (perspective)
	OrthoSize  float32 // vertical half-extent in world units (orthographic)
	Aspect     float32
	Near       float32
	Far        float32

	// Jitter is a sub-pixel offset in NDC units applied as a clip-space
	// translation for temporal antialiasing. The sequence itself (e.g.
	// Halton) is supplied by the caller via SetJitter.
	Jitter      [2]float32
	JitterIndex uint32

	ViewMatrix         [16]float32
	ProjectionMatrix   [16]float32
	ViewProjection     [16]float32
	PrevViewProjection [16]float32
	InverseView        [16]float32
	InverseProjection  [16]float32
	Frustum            common.Frustum

	Priority     int32
	IsMainCamera bool
}

// UpdateMatrices rebuilds the view, projection, combined, and inverse matrices
// and re-extracts the frustum planes. The previous view-projection is rotated
// into PrevViewProjection first, for motion vectors. Call once per frame after
// the owner has synced the basis and projection parameters.
//
// Parameters:
//   - flipY: negate the projection's Y scale for backends whose surface
//     coordinates grow downward
func (c *CameraProxy) UpdateMatrices(flipY bool) {
	c.PrevViewProjection = c.ViewProjection

	target := [3]float32{
		c.Position[0] + c.Forward[0],
		c.Position[1] + c.Forward[1],
		c.Position[2] + c.Forward[2],
	}
	common.LookAt(c.ViewMatrix[:],
		c.Position[0], c.Position[1], c.Position[2],
		target[0], target[1], target[2],
		c.Up[0], c.Up[1], c.Up[2],
	)

	switch c.Projection {
	case ProjectionOrthographic:
		halfH := c.OrthoSize
		halfW := c.OrthoSize * c.Aspect
		common.Ortho(c.ProjectionMatrix[:], -halfW, halfW, -halfH, halfH, c.Near, c.Far)
	default:
		common.Perspective(c.ProjectionMatrix[:], c.FovY, c.Aspect, c.Near, c.Far)
	}

	if flipY {
		c.ProjectionMatrix[5] = -c.ProjectionMatrix[5]
	}

	// TAA jitter: a clip-space translation. For a perspective projection the
	// offset rides the Z column so it scales with w; orthographic uses the
	// translation column directly.
	if c.Jitter[0] != 0 || c.Jitter[1] != 0 {
		if c.Projection == ProjectionPerspective {
			c.ProjectionMatrix[8] += c.Jitter[0]
			c.ProjectionMatrix[9] += c.Jitter[1]
		} else {
			c.ProjectionMatrix[12] += c.Jitter[0]
			c.ProjectionMatrix[13] += c.Jitter[1]
		}
	}

	common.Mul4(c.ViewProjection[:], c.ProjectionMatrix[:], c.ViewMatrix[:])
	common.Invert4(c.InverseView[:], c.ViewMatrix[:])
	common.Invert4(c.InverseProjection[:], c.ProjectionMatrix[:])

	c.Frustum = common.ExtractFrustumFromMatrix(c.ViewProjection[:])
}

// SetBasis sets the camera's orientation from a forward and up vector,
// normalizing both and deriving the right vector. Matrices stay stale until
// UpdateMatrices.
//
// Parameters:
//   - forward: view direction (normalized internally)
//   - up: approximate up vector (re-orthogonalized internally)
func (c *CameraProxy) SetBasis(forward, up [3]float32) {
	f := common.Normalize3(forward[0], forward[1], forward[2])
	r := common.Cross3(f, up)
	r = common.Normalize3(r[0], r[1], r[2])
	u := common.Cross3(r, f)

	c.Forward = f
	c.Right = r
	c.Up = u
}

// IsVisibleAABB tests a world-space box against the camera frustum using the
// positive-vertex test with per-plane early-out. Valid only after
// UpdateMatrices.
//
// Parameters:
//   - box: the world-space box
//
// Returns:
//   - bool: true if at least partially inside the frustum
func (c *CameraProxy) IsVisibleAABB(box common.AABB) bool {
	return c.Frustum.IntersectsAABB(box)
}

// IsVisibleSphere tests a world-space sphere against the camera frustum with
// per-plane early-out. Valid only after UpdateMatrices.
//
// Parameters:
//   - s: the sphere
//
// Returns:
//   - bool: true if at least partially inside the frustum
func (c *CameraProxy) IsVisibleSphere(s common.Sphere) bool {
	return c.Frustum.IntersectsSphere(s)
}

// SetJitter sets the current sub-pixel jitter offset in NDC units
// (typically 2*sampleOffset/screenSize).
//
// Parameters:
//   - x, y: the jitter offset
func (c *CameraProxy) SetJitter(x, y float32) {
	c.Jitter = [2]float32{x, y}
}

// AdvanceJitter cycles the jitter sample index modulo the caller's sequence
// length. The jitter value itself is supplied externally via SetJitter.
//
// Parameters:
//   - sampleCount: length of the jitter sequence (values <= 0 reset the index)
func (c *CameraProxy) AdvanceJitter(sampleCount uint32) {
	if sampleCount == 0 {
		c.JitterIndex = 0
		return
	}
	c.JitterIndex = (c.JitterIndex + 1) % sampleCount
}
