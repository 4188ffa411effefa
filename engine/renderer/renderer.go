package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/Carmen-Shannon/orbitview/engine/frame"
	"github.com/Carmen-Shannon/orbitview/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/orbitview/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrSetup wraps every failure to bring up the GPU. It is fatal for the session.
	ErrSetup = errors.New("renderer: setup failed")

	// ErrForeignStorage is returned when Bind receives storage this renderer did not allocate.
	ErrForeignStorage = errors.New("renderer: storage not owned by this renderer")

	// ErrNoFrame is returned when Draw or Commit is called before Bind opened a frame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrSurfaceUnready is returned when the surface has no size or texture to draw into.
	ErrSurfaceUnready = errors.New("renderer: surface unready")
)

// SurfaceSource provides what the renderer needs from a window.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	FramebufferSize() (width, height int)
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend   RendererBackend
	logger    *slog.Logger
	pipelines pipeline.Cache
	config    pipeline.Config
	ring      *uniformRing

	slots  int
	width  int
	height int

	// frameOpen is true between a successful Bind and Commit/Discard.
	frameOpen bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	shaderBody           string
	clearColor           wgpu.Color
	cacheSize            int
}

// Renderer defines the interface for the WebGPU draw target of the frame pipeline.
//
// The Renderer owns the device, the swapchain and a uniform ring buffer sized for the frame
// pipeline's slots. It binds one slot per frame at a dynamic offset, draws a single full-screen
// triangle and submits and presents the frame, signalling completion through the queue.
type Renderer interface {
	frame.DrawTarget
	frame.Poller

	// Storage returns the uniform ring the frame pipeline writes its slots into.
	//
	// Returns:
	//   - frame.SlotStorage: the GPU-visible ring
	Storage() frame.SlotStorage

	// Resize reconfigures the swapchain for a new framebuffer size.
	// A zero size (minimized window) is recorded but leaves the surface untouched.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Resize(width, height int) error

	// Size returns the last size passed to Resize.
	//
	// Returns:
	//   - width, height: the surface size in pixels
	Size() (width, height int)

	// SetPresentMode sets the surface present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	SetPresentMode(mode PresentMode) error

	// Release frees every GPU resource. The frame pipeline must be drained first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the window providing the surface descriptor and framebuffer size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: ErrSetup wrapping the adapter, device, surface or pipeline failure
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := newRendererDefaults()

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	var backend RendererBackend
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.clearColor)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
		backend = b
	}

	width, height := surface.FramebufferSize()
	if err := r.init(backend, width, height); err != nil {
		backend.Release()
		return nil, err
	}
	return r, nil
}

func newRendererDefaults() *renderer {
	return &renderer{
		mu:         &sync.Mutex{},
		logger:     slog.Default(),
		slots:      frame.DefaultSlots,
		shaderBody: DefaultShaderBody,
		clearColor: wgpu.Color{R: 0.05, G: 0.05, B: 0.08, A: 1.0},
		cacheSize:  pipeline.DefaultCacheSize,
	}
}

// init wires a backend: surface, uniform ring and pipeline cache.
func (r *renderer) init(backend RendererBackend, width, height int) error {
	r.backend = backend

	if r.slots < 1 {
		return fmt.Errorf("%w: slots must be >= 1, got %d", ErrSetup, r.slots)
	}
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if err := r.Resize(width, height); err != nil {
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}

	alignment := r.backend.UniformAlignment()
	stride := common.AlignUp(camera.GPUFrameUniformSize, alignment)
	provider := bind_group_provider.NewBindGroupProvider("Frame Ring")
	if err := r.backend.InitUniformRing(provider, uint64(r.slots*stride), uint64(camera.GPUFrameUniformSize)); err != nil {
		r.backend.ReleaseUniformRing(provider)
		return fmt.Errorf("%w: uniform ring: %w", ErrSetup, err)
	}
	r.ring = newUniformRing(provider, r.backend, alignment)

	source, err := ComposeShader(r.shaderBody)
	if err != nil {
		r.ring.release()
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}
	r.config = pipeline.NewConfig(source, pipeline.WithLabel("Full Screen"))
	cache, err := pipeline.NewCache(func(conf pipeline.Config) (*wgpu.RenderPipeline, error) {
		return r.backend.CreateRenderPipeline(conf, provider.BindGroupLayout())
	}, pipeline.WithCacheSize(r.cacheSize), pipeline.WithReleaseFunc(r.backend.ReleaseRenderPipeline))
	if err != nil {
		r.ring.release()
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}
	r.pipelines = cache

	// Build eagerly so shader errors surface at setup instead of on the first frame.
	if r.width > 0 && r.height > 0 {
		if _, err := r.pipelines.Get(r.config.WithFormat(r.backend.SurfaceFormat())); err != nil {
			r.pipelines.Purge()
			r.ring.release()
			return fmt.Errorf("%w: %w", ErrSetup, err)
		}
	}

	r.logger.Info("renderer ready",
		slog.Int("slots", r.slots),
		slog.Int("stride", stride),
		slog.Int("alignment", alignment),
		slog.Any("format", r.backend.SurfaceFormat()),
	)
	return nil
}

func (r *renderer) Storage() frame.SlotStorage {
	return r.ring
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.width, r.height = width, height
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	r.logger.Debug("surface configured", slog.Int("width", width), slog.Int("height", height))
	return nil
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) error {
	r.backend.SetPresentMode(mode)
	w, h := r.Size()
	r.logger.Info("present mode changed", slog.String("mode", mode.String()))
	return r.Resize(w, h)
}

func (r *renderer) Bind(storage frame.SlotStorage, offset int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, ok := storage.(*uniformRing)
	if !ok || ring != r.ring {
		return ErrForeignStorage
	}
	if offset < 0 || offset%max(ring.alignment, 1) != 0 {
		return fmt.Errorf("offset %d is not aligned to %d", offset, ring.alignment)
	}
	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSurfaceUnready, r.width, r.height)
	}

	p, err := r.pipelines.Get(r.config.WithFormat(r.backend.SurfaceFormat()))
	if err != nil {
		return err
	}

	if !r.frameOpen {
		if err := r.backend.BeginFrame(); err != nil {
			return fmt.Errorf("%w: %w", ErrSurfaceUnready, err)
		}
		r.frameOpen = true
	}
	return r.backend.BindUniform(p, ring.provider, uint32(offset))
}

func (r *renderer) Draw(vertexCount uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.frameOpen {
		return ErrNoFrame
	}
	return r.backend.Draw(vertexCount)
}

func (r *renderer) Commit(onComplete func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.frameOpen {
		return ErrNoFrame
	}
	r.frameOpen = false
	return r.backend.EndFrame(onComplete)
}

func (r *renderer) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameOpen {
		r.backend.AbortFrame()
		r.frameOpen = false
	}
}

func (r *renderer) Poll(wait bool) {
	r.backend.Poll(wait)
}

func (r *renderer) Release() {
	r.Discard()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pipelines != nil {
		r.pipelines.Purge()
	}
	if r.ring != nil {
		r.ring.release()
	}
	r.backend.Release()
}
