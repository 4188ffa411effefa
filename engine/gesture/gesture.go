// Package gesture translates touch and mouse input into camera rotate, pan and zoom calls.
package gesture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/chewxy/math32"
	"golang.org/x/mobile/event/touch"
)

const (
	// DefaultSensitivity is radians of rotation per pixel dragged.
	DefaultSensitivity float32 = 0.002

	// DefaultScrollZoomBase is the distance factor per scroll step.
	DefaultScrollZoomBase float32 = 1.1
)

// ErrInvalidConfig is returned by NewRecognizer for unusable options.
var ErrInvalidConfig = errors.New("gesture: invalid configuration")

// Controller receives the translated gestures. camera.Camera satisfies it.
type Controller interface {
	Rotate(deltaAzimuth, deltaElevation float32)
	Pan(deltaX, deltaY, viewportMinDimension float32) error
	Zoom(factor float32) error
}

// MouseButton identifies a pointer button independent of the windowing backend.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

type point struct {
	x, y float32
}

type recognizerImpl struct {
	mu *sync.Mutex

	controller  Controller
	sensitivity float32
	scrollBase  float32

	width  int
	height int

	touches map[touch.Sequence]point

	dragging bool
	button   MouseButton
	last     point
}

// Recognizer defines the interface for turning raw input into camera gestures.
// One finger drags rotate, two fingers pan by their centroid and zoom by their spread.
// On desktop the left button rotates, right or middle pans and the wheel zooms.
type Recognizer interface {
	// HandleTouch consumes one touch event.
	//
	// Parameters:
	//   - e: the touch event
	//
	// Returns:
	//   - error: the controller's rejection of the derived gesture, if any
	HandleTouch(e touch.Event) error

	// MouseButton records a button press or release at the cursor position.
	//
	// Parameters:
	//   - button: the button
	//   - pressed: true on press, false on release
	//   - x, y: cursor position in pixels
	MouseButton(button MouseButton, pressed bool, x, y float32)

	// MouseMove drags with the held button, if any.
	//
	// Parameters:
	//   - x, y: cursor position in pixels
	//
	// Returns:
	//   - error: the controller's rejection of the derived gesture, if any
	MouseMove(x, y float32) error

	// Scroll zooms by ScrollZoomBase^-steps, so scrolling up moves closer.
	//
	// Parameters:
	//   - steps: vertical scroll offset
	//
	// Returns:
	//   - error: the controller's rejection of the zoom, if any
	Scroll(steps float32) error

	// SetViewport updates the viewport used to scale pans.
	//
	// Parameters:
	//   - width, height: viewport size in pixels
	SetViewport(width, height int)

	// Reset drops all active touches and drags.
	Reset()

	// ActiveTouches returns the number of fingers currently down.
	ActiveTouches() int
}

var _ Recognizer = &recognizerImpl{}

// NewRecognizer creates a new Recognizer driving controller.
//
// Parameters:
//   - controller: receives rotate, pan and zoom calls
//   - options: functional options
//
// Returns:
//   - Recognizer: the newly created recognizer
//   - error: ErrInvalidConfig for a nil controller or non-positive tuning values
func NewRecognizer(controller Controller, options ...RecognizerBuilderOption) (Recognizer, error) {
	r := &recognizerImpl{
		mu:          &sync.Mutex{},
		controller:  controller,
		sensitivity: DefaultSensitivity,
		scrollBase:  DefaultScrollZoomBase,
		touches:     make(map[touch.Sequence]point),
	}
	for _, option := range options {
		option(r)
	}

	if r.controller == nil {
		return nil, fmt.Errorf("%w: controller is required", ErrInvalidConfig)
	}
	if !common.IsFinite(r.sensitivity, r.scrollBase) || r.sensitivity <= 0 || r.scrollBase <= 0 {
		return nil, fmt.Errorf("%w: sensitivity %g, scroll base %g", ErrInvalidConfig, r.sensitivity, r.scrollBase)
	}
	return r, nil
}

func (r *recognizerImpl) HandleTouch(e touch.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case touch.TypeBegin:
		r.touches[e.Sequence] = point{e.X, e.Y}
		return nil
	case touch.TypeEnd:
		delete(r.touches, e.Sequence)
		return nil
	case touch.TypeMove:
	default:
		return nil
	}

	prev, ok := r.touches[e.Sequence]
	if !ok {
		// missed the begin event, start tracking from here
		r.touches[e.Sequence] = point{e.X, e.Y}
		return nil
	}

	switch len(r.touches) {
	case 1:
		r.touches[e.Sequence] = point{e.X, e.Y}
		r.controller.Rotate((e.X-prev.x)*r.sensitivity, (e.Y-prev.y)*r.sensitivity)
		return nil
	case 2:
		oldCenter, oldSpan := r.pair()
		r.touches[e.Sequence] = point{e.X, e.Y}
		newCenter, newSpan := r.pair()

		err := r.controller.Pan(newCenter.x-oldCenter.x, newCenter.y-oldCenter.y, r.minDimension())
		if oldSpan > 0 && newSpan > 0 {
			err = errors.Join(err, r.controller.Zoom(newSpan/oldSpan))
		}
		return err
	default:
		r.touches[e.Sequence] = point{e.X, e.Y}
		return nil
	}
}

func (r *recognizerImpl) MouseButton(button MouseButton, pressed bool, x, y float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pressed {
		r.dragging = true
		r.button = button
		r.last = point{x, y}
		return
	}
	if r.button == button {
		r.dragging = false
	}
}

func (r *recognizerImpl) MouseMove(x, y float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dragging {
		return nil
	}
	dx, dy := x-r.last.x, y-r.last.y
	r.last = point{x, y}

	if r.button == MouseLeft {
		r.controller.Rotate(dx*r.sensitivity, dy*r.sensitivity)
		return nil
	}
	return r.controller.Pan(dx, dy, r.minDimension())
}

func (r *recognizerImpl) Scroll(steps float32) error {
	if steps == 0 {
		return nil
	}
	r.mu.Lock()
	base := r.scrollBase
	r.mu.Unlock()
	return r.controller.Zoom(math32.Pow(base, -steps))
}

func (r *recognizerImpl) SetViewport(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
	r.height = height
}

func (r *recognizerImpl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.touches)
	r.dragging = false
}

func (r *recognizerImpl) ActiveTouches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.touches)
}

// pair returns the centroid and spread of exactly two touches. Caller must hold r.mu.
func (r *recognizerImpl) pair() (point, float32) {
	var pts [2]point
	i := 0
	for _, p := range r.touches {
		pts[i] = p
		i++
	}
	center := point{(pts[0].x + pts[1].x) / 2, (pts[0].y + pts[1].y) / 2}
	span := math32.Hypot(pts[1].x-pts[0].x, pts[1].y-pts[0].y)
	return center, span
}

// minDimension returns the smaller viewport side. Caller must hold r.mu.
func (r *recognizerImpl) minDimension() float32 {
	return float32(min(r.width, r.height))
}
