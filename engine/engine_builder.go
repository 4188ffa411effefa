package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/Carmen-Shannon/orbitview/engine/renderer"
	"github.com/Carmen-Shannon/orbitview/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine reads input and framebuffer size from.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the draw target and slot storage.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithCamera sets the camera. Its state at construction is what the reset key restores.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - interval: how often stats are logged, non-positive keeps one second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		if interval > 0 {
			e.profilerInterval = interval
		}
	}
}

// WithFrame sets the ring depth and the vertex count of the per-frame draw.
// slots must match the renderer's ring.
//
// Parameters:
//   - slots: number of frame slots
//   - vertexCount: vertices per draw
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrame(slots int, vertexCount uint32) EngineBuilderOption {
	return func(e *engine) {
		e.slots = slots
		e.vertexCount = vertexCount
	}
}

// WithGestureTuning sets the drag sensitivity and the per-step scroll zoom factor.
//
// Parameters:
//   - sensitivity: radians per dragged pixel
//   - scrollZoomBase: distance factor per scroll step
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGestureTuning(sensitivity, scrollZoomBase float32) EngineBuilderOption {
	return func(e *engine) {
		e.sensitivity = sensitivity
		e.scrollZoomBase = scrollZoomBase
	}
}

// WithKeyBindingSteps sets how far arrow keys rotate and +/- keys zoom.
//
// Parameters:
//   - rotate: radians per arrow press
//   - zoom: distance factor per +/- press
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBindingSteps(rotate, zoom float32) EngineBuilderOption {
	return func(e *engine) {
		e.keyRotateStep = rotate
		e.keyZoomFactor = zoom
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap.
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}
