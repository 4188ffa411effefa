package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/orbitview/engine/gesture"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned when the platform window was never created or is already closed.
var ErrNotInitialized = errors.New("window: not initialized")

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button, whether it was pressed and the cursor position in framebuffer pixels
	SetMouseButtonCallback(callback func(button gesture.MouseButton, pressed bool, x, y float32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in framebuffer pixels
	SetMouseMoveCallback(callback func(x, y float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the drawable size in pixels. It differs from the window size on high-DPI displays.
	//
	// Returns:
	//   - width, height: framebuffer size in pixels, zero while minimized
	FramebufferSize() (width, height int)

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window was never created or is already closed
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// Size limits applied to user resizes.
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// width and height are the framebuffer size in pixels.
	width  int
	height int

	// cursorScale converts cursor coordinates (screen units) to framebuffer pixels.
	cursorScaleX float32
	cursorScaleY float32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onMouseButton func(button gesture.MouseButton, pressed bool, x, y float32)
	onMouseMove   func(x, y float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured, visible window
//   - error: an error if the options are invalid or the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := w.validate(); err != nil {
		return nil, err
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:        "orbitview",
		maxWidth:     3840,
		maxHeight:    2160,
		minWidth:     200,
		minHeight:    150,
		width:        1280,
		height:       720,
		cursorScaleX: 1,
		cursorScaleY: 1,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) validate() error {
	if w.width <= 0 || w.height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", w.width, w.height)
	}
	if w.minWidth > w.maxWidth || w.minHeight > w.maxHeight {
		return fmt.Errorf("window min size %dx%d exceeds max size %dx%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
	return nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button gesture.MouseButton, pressed bool, x, y float32)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) FramebufferSize() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

// dispatchResize records the framebuffer size and forwards it.
func (w *engineWindow) dispatchResize(width, height, windowWidth, windowHeight int) {
	w.width = width
	w.height = height
	if windowWidth > 0 && windowHeight > 0 {
		w.cursorScaleX = float32(width) / float32(windowWidth)
		w.cursorScaleY = float32(height) / float32(windowHeight)
	}
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) dispatchMouseButton(button gesture.MouseButton, pressed bool, x, y float64) {
	if w.onMouseButton != nil {
		px, py := w.toPixels(x, y)
		w.onMouseButton(button, pressed, px, py)
	}
}

func (w *engineWindow) dispatchMouseMove(x, y float64) {
	if w.onMouseMove != nil {
		w.onMouseMove(w.toPixels(x, y))
	}
}

func (w *engineWindow) dispatchScroll(yoff float64) {
	if w.onScroll != nil && yoff != 0 {
		w.onScroll(float32(yoff))
	}
}

func (w *engineWindow) dispatchKeyDown(key uint32) {
	if w.onKeyDown != nil {
		w.onKeyDown(key)
	}
}

func (w *engineWindow) toPixels(x, y float64) (float32, float32) {
	return float32(x) * w.cursorScaleX, float32(y) * w.cursorScaleY
}
