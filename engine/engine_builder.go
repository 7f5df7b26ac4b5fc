package engine

import (
	"time"

	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/lighting"
	"github.com/argon-engine/argon/engine/window"
	"github.com/argon-engine/argon/engine/world"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the
// engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithEngineWindow sets a pre-configured window for the engine to drive.
// Without one the engine runs headless against the configured viewport.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEngineWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the GPU device the engine allocates lighting buffers from.
// Without one Initialize falls back to a headless in-memory device.
//
// Parameters:
//   - d: the device to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d device.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithWorld sets a pre-populated render world instead of the default empty
// one.
//
// Parameters:
//   - w: the world to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorld(w world.RenderWorld) EngineBuilderOption {
	return func(e *engine) {
		e.world = w
	}
}

// WithLightingSystem sets a pre-configured lighting system instead of the
// default one.
//
// Parameters:
//   - s: the lighting system to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLightingSystem(s lighting.LightingSystem) EngineBuilderOption {
	return func(e *engine) {
		e.lighting = s
	}
}

// WithViewport sets the viewport size used when running headless.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewport(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.viewportWidth = width
		e.viewportHeight = height
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per
// second. Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
