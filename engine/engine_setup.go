package engine

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/Carmen-Shannon/orbitview/engine/config"
	"github.com/Carmen-Shannon/orbitview/engine/renderer"
	"github.com/Carmen-Shannon/orbitview/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// NewEngineFromConfig opens a window, brings up the GPU and wires an Engine as described by cfg.
// It must be called from the goroutine that will call Run.
//
// Parameters:
//   - cfg: the configuration, validated here
//   - logger: the structured logger, nil for slog.Default()
//   - options: extra options applied after the ones derived from cfg
//
// Returns:
//   - Engine: the ready engine
//   - error: config.ErrInvalid, renderer.ErrSetup or a window error
func NewEngineFromConfig(cfg config.Config, logger *slog.Logger, options ...EngineBuilderOption) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	presentMode, err := renderer.ParsePresentMode(cfg.Renderer.PresentMode)
	if err != nil {
		return nil, err
	}
	shader, err := cfg.Renderer.LoadShader()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.Profiling.IntervalDuration()
	if err != nil {
		return nil, err
	}

	cam, err := camera.NewCamera(
		camera.WithDistanceBounds(cfg.Camera.MinDistance, cfg.Camera.MaxDistance),
		camera.WithState(cfg.Camera.State()),
	)
	if err != nil {
		return nil, err
	}

	w, err := window.NewWindow(
		window.WithTitle(common.Coalesce(cfg.Window.Title, "orbitview")),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return nil, err
	}

	cc := cfg.Renderer.ClearColor
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, w,
		renderer.WithSlots(cfg.Frame.Slots),
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
		renderer.WithShaderBody(shader),
		renderer.WithPipelineCacheSize(cfg.Renderer.PipelineCacheSize),
		renderer.WithClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		renderer.WithLogger(logger),
	)
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	e, err := NewEngine(append([]EngineBuilderOption{
		WithWindow(w),
		WithRenderer(r),
		WithCamera(cam),
		WithLogger(logger),
		WithFrame(cfg.Frame.Slots, cfg.Frame.VertexCount),
		WithGestureTuning(cfg.Gesture.Sensitivity, cfg.Gesture.ScrollZoomBase),
		WithProfiling(cfg.Profiling.Enabled, interval),
	}, options...)...)
	if err != nil {
		r.Release()
		_ = w.Close()
		return nil, fmt.Errorf("wire engine: %w", err)
	}
	return e, nil
}
