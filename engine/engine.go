package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/Carmen-Shannon/orbitview/engine/frame"
	"github.com/Carmen-Shannon/orbitview/engine/gesture"
	"github.com/Carmen-Shannon/orbitview/engine/profiler"
	"github.com/Carmen-Shannon/orbitview/engine/renderer"
	"github.com/Carmen-Shannon/orbitview/engine/window"
	"golang.org/x/mobile/event/touch"
)

const (
	// DefaultKeyRotateStep is radians of rotation per arrow key press.
	DefaultKeyRotateStep float32 = 0.05

	// DefaultKeyZoomFactor is the distance factor per +/- key press.
	DefaultKeyZoomFactor float32 = 1.1
)

var (
	// ErrInvalidConfig is returned by NewEngine for missing or mismatched components.
	ErrInvalidConfig = errors.New("engine: invalid configuration")

	// ErrPanic wraps a panic recovered from the frame loop.
	ErrPanic = errors.New("engine: frame loop panicked")
)

// engine implements the Engine interface.
// Everything runs on the goroutine that called Run, which must be the one that created the window.
type engine struct {
	window     window.Window
	renderer   renderer.Renderer
	camera     camera.Camera
	pipeline   frame.Pipeline
	recognizer gesture.Recognizer
	logger     *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool
	profilerInterval time.Duration

	// initial is restored by the reset key.
	initial camera.CameraState

	slots          int
	vertexCount    uint32
	sensitivity    float32
	scrollZoomBase float32
	keyRotateStep  float32
	keyZoomFactor  float32

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	quitOnce sync.Once
	fatal    error
}

// Engine drives the orbit viewer: it feeds window input to the camera and produces one frame per loop iteration.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the camera driven by input.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Pipeline returns the frame parameter pipeline.
	//
	// Returns:
	//   - frame.Pipeline: the pipeline
	Pipeline() frame.Pipeline

	// HandleTouch forwards a touch event to the gesture recognizer.
	// Rejected gestures are logged and leave the camera unchanged.
	//
	// Parameters:
	//   - e: the touch event
	HandleTouch(e touch.Event)

	// HandleKey applies a key binding: arrows rotate, +/- zoom, R resets the camera,
	// P toggles the profiler and Escape quits.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	HandleKey(keyCode uint32)

	// Tick produces one frame for the current framebuffer size.
	// Recoverable failures are logged at debug level and counted as skipped frames.
	//
	// Parameters:
	//   - ctx: bounds the wait for a free slot
	//
	// Returns:
	//   - frame.DrawCommand: the issued draw
	//   - bool: true if a draw was issued
	//   - error: the reason the frame was skipped
	Tick(ctx context.Context) (frame.DrawCommand, bool, error)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run runs the message loop and produces frames until the window closes, Quit is called or ctx is done.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ErrPanic or the non-recoverable frame error that stopped the loop, nil on a normal close
	Run(ctx context.Context) error

	// Quit asks the loop to stop after the current iteration. Safe to call multiple times.
	Quit()

	// Close waits for in-flight frames, then releases the renderer and closes the window.
	//
	// Parameters:
	//   - ctx: bounds the wait for in-flight frames
	//
	// Returns:
	//   - error: the drain or close failures
	Close(ctx context.Context) error
}

var _ Engine = &engine{}

// NewEngine creates a new Engine from its components.
// A window and a renderer are required; the camera defaults to camera.NewCamera().
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrInvalidConfig if a component is missing or the renderer's ring does not fit the pipeline
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		logger:           slog.Default(),
		profilerInterval: time.Second,
		slots:            frame.DefaultSlots,
		vertexCount:      frame.DefaultVertexCount,
		sensitivity:      gesture.DefaultSensitivity,
		scrollZoomBase:   gesture.DefaultScrollZoomBase,
		keyRotateStep:    DefaultKeyRotateStep,
		keyZoomFactor:    DefaultKeyZoomFactor,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil || e.renderer == nil {
		return nil, fmt.Errorf("%w: window and renderer are required", ErrInvalidConfig)
	}
	if e.camera == nil {
		cam, err := camera.NewCamera()
		if err != nil {
			return nil, err
		}
		e.camera = cam
	}
	e.initial = e.camera.State()

	p, err := frame.NewPipeline(
		frame.WithBasisSource(e.camera),
		frame.WithStorage(e.renderer.Storage()),
		frame.WithPoller(e.renderer),
		frame.WithSlots(e.slots),
		frame.WithVertexCount(e.vertexCount),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if size := e.renderer.Storage().Size(); size < p.RequiredSize() {
		return nil, fmt.Errorf("%w: renderer ring holds %d bytes, %d slots need %d", ErrInvalidConfig, size, p.Slots(), p.RequiredSize())
	}
	e.pipeline = p

	width, height := e.window.FramebufferSize()
	rec, err := gesture.NewRecognizer(e.camera,
		gesture.WithSensitivity(e.sensitivity),
		gesture.WithScrollZoomBase(e.scrollZoomBase),
		gesture.WithViewport(width, height),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	e.recognizer = rec

	e.profiler = profiler.NewProfiler(profiler.WithInterval(e.profilerInterval), profiler.WithLogger(e.logger))

	e.bindWindow()
	return e, nil
}

// bindWindow routes window events to the renderer, recognizer and key bindings.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(e.handleResize)
	e.window.SetKeyDownCallback(e.HandleKey)
	e.window.SetMouseButtonCallback(e.recognizer.MouseButton)
	e.window.SetMouseMoveCallback(func(x, y float32) {
		e.reportGesture("mouse move", e.recognizer.MouseMove(x, y))
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.reportGesture("scroll", e.recognizer.Scroll(delta))
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Pipeline() frame.Pipeline {
	return e.pipeline
}

func (e *engine) handleResize(width, height int) {
	e.recognizer.SetViewport(width, height)
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Warn("resize failed", slog.Int("width", width), slog.Int("height", height), slog.Any("error", err))
		return
	}
	e.logger.Info("resized", slog.Int("width", width), slog.Int("height", height))
}

func (e *engine) HandleTouch(ev touch.Event) {
	e.reportGesture("touch", e.recognizer.HandleTouch(ev))
}

func (e *engine) HandleKey(keyCode uint32) {
	var err error
	switch keyCode {
	case common.KeyLeft:
		e.camera.Rotate(-e.keyRotateStep, 0)
	case common.KeyRight:
		e.camera.Rotate(e.keyRotateStep, 0)
	case common.KeyUp:
		e.camera.Rotate(0, -e.keyRotateStep)
	case common.KeyDown:
		e.camera.Rotate(0, e.keyRotateStep)
	case common.KeyEqual:
		err = e.camera.Zoom(1 / e.keyZoomFactor)
	case common.KeyMinus:
		err = e.camera.Zoom(e.keyZoomFactor)
	case common.KeyR:
		err = e.camera.SetState(e.initial)
		e.recognizer.Reset()
	case common.KeyP:
		if e.profilingEnabled {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	case common.KeyEsc:
		e.Quit()
	}
	e.reportGesture("key", err)
}

func (e *engine) reportGesture(source string, err error) {
	if err != nil {
		e.logger.Warn("gesture rejected", slog.String("source", source), slog.Any("error", err))
	}
}

func (e *engine) Tick(ctx context.Context) (frame.DrawCommand, bool, error) {
	start := time.Now()

	width, height := e.window.FramebufferSize()
	cmd, ok, err := e.pipeline.ProduceFrame(ctx, frame.Viewport{Width: width, Height: height}, e.renderer)
	if err != nil && frame.IsRecoverable(err) {
		e.logger.Debug("frame skipped", slog.Uint64("frame", e.pipeline.FrameIndex()), slog.Any("error", err))
	}

	if e.profilingEnabled {
		e.profiler.Tick(e.pipeline.Stats())
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return cmd, ok, err
}

func (e *engine) Run(ctx context.Context) error {
	e.window.SetUpdateCallback(func() {
		e.update(ctx)
	})
	e.window.ProcessMessages()
	return e.fatal
}

// update is one loop iteration. A panic or a non-recoverable frame error stops the loop.
func (e *engine) update(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame loop recovered from panic", slog.Any("panic", r))
			e.fatal = fmt.Errorf("%w: %v", ErrPanic, r)
			e.Quit()
		}
	}()

	if ctx.Err() != nil {
		e.Quit()
		return
	}
	if _, _, err := e.Tick(ctx); err != nil && !frame.IsRecoverable(err) {
		e.logger.Error("frame loop stopped", slog.Any("error", err))
		e.fatal = err
		e.Quit()
	}
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.window.RequestClose()
	})
}

func (e *engine) Close(ctx context.Context) error {
	var errs []error
	if err := e.pipeline.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain: %w", err))
	}
	e.renderer.Release()
	if err := e.window.Close(); err != nil && !errors.Is(err, window.ErrNotInitialized) {
		errs = append(errs, fmt.Errorf("close window: %w", err))
	}
	return errors.Join(errs...)
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	e.profiler.Reset(e.pipeline.Stats())
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
