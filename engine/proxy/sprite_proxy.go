package proxy

// TextureHandle references a GPU texture owned by the rendering backend.
// Opaque to this core.
type TextureHandle uint32

// SpriteProxy is the render-side state of one camera-facing sprite.
type SpriteProxy struct {
	Position [3]float32
	Size     [2]float32
	Rotation float32 // roll around the view axis, radians
	Color    [4]float32
	UVRect   [4]float32 // u0, v0, u1, v1

	Texture   TextureHandle
	Visible   bool
	LayerMask uint32
	SortKey   uint64
}

// TrailEmitterProxy is the render-side state of one ribbon-trail emitter. The
// point history is owned by the particle/trail system; the proxy carries only
// what the renderer needs to build and shade the ribbon.
type TrailEmitterProxy struct {
	Position [3]float32
	Width    float32
	Color    [4]float32
	FadeTime float32 // seconds until a trail point fully fades

	Texture   TextureHandle
	MaxPoints uint32
	Visible   bool
	LayerMask uint32
}
