package engine

import (
	"log"
	"sync"
	"time"

	"github.com/argon-engine/argon/engine/device"
	"github.com/argon-engine/argon/engine/lighting"
	"github.com/argon-engine/argon/engine/profiler"
	"github.com/argon-engine/argon/engine/window"
	"github.com/argon-engine/argon/engine/world"
)

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads around one RenderWorld
// and its LightingSystem.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window
	device device.Device

	world    world.RenderWorld
	lighting lighting.LightingSystem

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, frameIndex int)

	// Viewport used when running without a window (headless).
	viewportWidth  int
	viewportHeight int

	frameIndex  int
	initialized bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point. It owns the frame lifecycle: each render
// frame syncs the main camera, runs the lighting system's CPU pass, uploads
// the frame's GPU buffers, and invokes the render callback with the frame
// slot to record.
type Engine interface {
	// Window returns the underlying window, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// World returns the render world the engine drives.
	//
	// Returns:
	//   - world.RenderWorld: the world
	World() world.RenderWorld

	// Lighting returns the lighting system for buffer binding and tuning.
	//
	// Returns:
	//   - lighting.LightingSystem: the lighting system
	Lighting() lighting.LightingSystem

	// Device returns the GPU device the engine allocates from.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Initialize creates the lighting system's GPU resources on the
	// configured device. Without a device a headless one is used. Must be
	// called before Run for uploads to happen.
	//
	// Returns:
	//   - error: error if GPU resource creation fails
	Initialize() error

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic: moving lights, animating transforms, input.
	//
	// The tick callback runs on its own goroutine, concurrently with the
	// render loop. Callbacks that mutate world state the render pass reads
	// (proxy transforms, light parameters) must synchronize those writes
	// themselves, or move them into the render callback.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame
	// after the lighting pass has updated and uploaded the frame's buffers.
	// Use this to record GPU work against the given frame slot.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and the frame slot just uploaded
	SetRenderCallback(callback func(deltaTime float32, frameIndex int))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames
	// per second. Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// FrameIndex returns the frame slot the next render frame will use.
	//
	// Returns:
	//   - int: the frame slot
	FrameIndex() int

	// Run starts the main engine loop. Blocks until the window closes, or
	// until Quit when headless.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A default RenderWorld and LightingSystem are created unless injected.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		viewportWidth:   1280,
		viewportHeight:  720,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.world == nil {
		e.world = world.NewRenderWorld()
	}
	if e.lighting == nil {
		e.lighting = lighting.NewLightingSystem()
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			// The lighting system picks up the new size on the next Update;
			// only the camera aspect needs an explicit poke.
			if cam, ok := e.world.MainCameraProxy(); ok {
				cam.Aspect = float32(width) / float32(height)
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) World() world.RenderWorld {
	return e.world
}

func (e *engine) Lighting() lighting.LightingSystem {
	return e.lighting
}

func (e *engine) Device() device.Device {
	return e.device
}

func (e *engine) Initialize() error {
	if e.device == nil {
		e.device = device.NewHeadlessDevice()
	}
	if err := e.lighting.Initialize(e.device); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the tick, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.running = true
	e.wg.Add(3)
	go e.handleTick()
	go e.handleRender()
	go e.handleQuit()
}

// handleTick runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for
// dynamic rate changes via tickRateChannel. Exits when the quit channel is
// closed.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own
// goroutine. Each frame follows a fixed order: main camera matrix update,
// lighting CPU pass (visibility, grid rebuild on view change, shadow tile
// assignment, light packing, cluster culling), GPU uploads for the current
// frame slot, then the render callback. Recovers from panics to avoid
// crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			width, height := e.viewportWidth, e.viewportHeight
			if e.window != nil {
				width, height = e.window.Width(), e.window.Height()
			}

			if cam, ok := e.world.MainCameraProxy(); ok {
				cam.UpdateMatrices(false)
			}

			stats := e.lighting.Update(e.world, width, height)

			if e.initialized {
				if err := e.lighting.Upload(e.frameIndex); err != nil {
					log.Printf("frame %d upload failed: %v", e.frameIndex, err)
					e.signalQuit()
					return
				}
			}

			if e.renderCallback != nil {
				e.renderCallback(dt, e.frameIndex)
			}

			e.frameIndex = (e.frameIndex + 1) % e.lighting.Buffer().FramesInFlight()

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Observe(stats.Lights, stats.ShadowTiles, stats.Cull.TotalAssignments)
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the
// WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send; if a rate update is already pending, replace it.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick. The
// callback runs concurrently with the render loop; see the interface doc
// for the synchronization requirements.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32, frameIndex int)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) FrameIndex() int {
	return e.frameIndex
}
