package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/orbitview/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/orbitview/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("present-mode(%d)", int(m))
	}
}

// ParsePresentMode parses "vsync" or "uncapped", case-insensitively.
//
// Parameters:
//   - s: the present mode name
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: an error for an unknown name
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vsync", "fifo":
		return PresentModeVSync, nil
	case "uncapped", "immediate":
		return PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", s)
	}
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

type wgpuRendererBackend interface {
	// ConfigureSurface (re)configures the swapchain for a new size.
	//
	// Parameters:
	//   - width, height: the surface size in pixels, both > 0
	//
	// Returns:
	//   - error: an error if the surface has no usable format
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the format chosen by the last ConfigureSurface.
	//
	// Returns:
	//   - wgpu.TextureFormat: the swapchain color format
	SurfaceFormat() wgpu.TextureFormat

	// UniformAlignment returns the required alignment of dynamic uniform offsets.
	//
	// Returns:
	//   - int: alignment in bytes
	UniformAlignment() int

	// InitUniformRing creates a uniform buffer of size bytes plus a bind group layout and bind group
	// exposing bindingSize bytes at a dynamic offset to the vertex and fragment stages, and stores
	// them on provider at binding 0.
	//
	// Parameters:
	//   - provider: receives the buffer, layout and bind group
	//   - size: total buffer size in bytes
	//   - bindingSize: bytes visible through one dynamic offset
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	InitUniformRing(provider bind_group_provider.BindGroupProvider, size, bindingSize uint64) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: the buffer writes
	//
	// Returns:
	//   - error: an error if a write targets a missing buffer or falls out of bounds
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// CreateRenderPipeline builds the render pipeline for a configuration.
	//
	// Parameters:
	//   - conf: the pipeline configuration
	//   - layout: the bind group layout at group 0
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the created pipeline
	//   - error: an error if shader compilation or pipeline creation fails
	CreateRenderPipeline(conf pipeline.Config, layout *wgpu.BindGroupLayout) (*wgpu.RenderPipeline, error)

	// BeginFrame acquires the swapchain texture and begins the render pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// BindUniform sets the pipeline and binds the provider's bind group at a dynamic offset.
	//
	// Parameters:
	//   - p: the render pipeline
	//   - provider: the bind group provider
	//   - dynamicOffset: the byte offset of the slot
	//
	// Returns:
	//   - error: an error if no render pass is open
	BindUniform(p *wgpu.RenderPipeline, provider bind_group_provider.BindGroupProvider, dynamicOffset uint32) error

	// Draw records a non-indexed draw of vertexCount vertices and one instance.
	//
	// Parameters:
	//   - vertexCount: the number of vertices
	//
	// Returns:
	//   - error: an error if no render pass is open
	Draw(vertexCount uint32) error

	// EndFrame ends the render pass, submits it, registers onComplete for queue completion and presents.
	//
	// Parameters:
	//   - onComplete: called once the GPU finished the submitted work
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame(onComplete func()) error

	// AbortFrame drops an open render pass without submitting it.
	AbortFrame()

	// Poll drives queue completion callbacks.
	//
	// Parameters:
	//   - wait: block until the queue is empty
	Poll(wait bool)

	// ReleaseRenderPipeline frees a pipeline evicted from the cache.
	//
	// Parameters:
	//   - p: the pipeline, may be nil
	ReleaseRenderPipeline(p *wgpu.RenderPipeline)

	// ReleaseUniformRing frees the buffer, layout and bind group stored on provider.
	//
	// Parameters:
	//   - provider: the provider filled by InitUniformRing
	ReleaseUniformRing(provider bind_group_provider.BindGroupProvider)

	// Release frees the device, surface and every per-frame object.
	Release()
}
