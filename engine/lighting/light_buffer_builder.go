package lighting

// LightBufferBuilderOption is a functional option for configuring a
// LightBuffer. Use the With* functions to create options.
type LightBufferBuilderOption func(b *lightBuffer)

// WithMaxLights sets the packed light capacity. Lights beyond the capacity
// are silently dropped at Update time. Defaults to 256.
//
// Parameters:
//   - n: the capacity (minimum 1)
//
// Returns:
//   - LightBufferBuilderOption: option function to apply
func WithMaxLights(n int) LightBufferBuilderOption {
	return func(b *lightBuffer) {
		if n < 1 {
			n = 1
		}
		b.maxLights = n
	}
}

// WithFramesInFlight sets the number of per-frame buffer slots. Defaults
// to 3.
//
// Parameters:
//   - n: the slot count (minimum 1)
//
// Returns:
//   - LightBufferBuilderOption: option function to apply
func WithFramesInFlight(n int) LightBufferBuilderOption {
	return func(b *lightBuffer) {
		if n < 1 {
			n = 1
		}
		b.framesInFlight = n
	}
}

// NewLightBuffer creates a light buffer with empty packed storage and
// defaults for the uniform block (no ambient, exposure 1). Initialize must
// still run to create the GPU buffers.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - LightBuffer: the new light buffer
func NewLightBuffer(opts ...LightBufferBuilderOption) LightBuffer {
	b := &lightBuffer{
		maxLights:      DefaultMaxLights,
		framesInFlight: DefaultFramesInFlight,
		exposure:       1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.packed = make([]GPULight, b.maxLights)
	return b
}
