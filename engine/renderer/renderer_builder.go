package renderer

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSlots sets how many frame slots the uniform ring holds. It must match the frame pipeline.
//
// Parameters:
//   - slots: the ring depth
//
// Returns:
//   - RendererBuilderOption: a function that applies the slot count to a renderer
func WithSlots(slots int) RendererBuilderOption {
	return func(r *renderer) {
		r.slots = slots
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithShaderBody replaces the built-in full-screen shader. The FrameUniform struct and the
// `frame` binding are prepended, so the body only declares vs_main and fs_main.
//
// Parameters:
//   - body: WGSL source of the entry points
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader to a renderer
func WithShaderBody(body string) RendererBuilderOption {
	return func(r *renderer) {
		if body != "" {
			r.shaderBody = body
		}
	}
}

// WithClearColor sets the color the render pass clears to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color to a renderer
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithPipelineCacheSize sets how many specialized pipelines stay alive.
//
// Parameters:
//   - size: cache capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the cache size to a renderer
func WithPipelineCacheSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		r.cacheSize = size
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
