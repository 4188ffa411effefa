package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default orbit parameters used when no options override them.
const (
	DefaultAzimuth     float32 = 2.8
	DefaultElevation   float32 = 0.4
	DefaultDistance    float32 = 1.6
	DefaultMinDistance float32 = 1e-4
	DefaultMaxDistance float32 = 1e6
)

var (
	// ErrDegenerateViewport is returned when a viewport dimension is zero or negative.
	ErrDegenerateViewport = errors.New("camera: degenerate viewport")

	// ErrInvalidZoomFactor is returned when a zoom factor is zero, negative, or not finite.
	ErrInvalidZoomFactor = errors.New("camera: zoom factor must be finite and positive")

	// ErrNonFiniteInput is returned when a gesture delta is NaN or infinite, or would produce a non-finite state.
	ErrNonFiniteInput = errors.New("camera: non-finite input")

	// ErrInvalidState is returned when a CameraState violates the distance invariant.
	ErrInvalidState = errors.New("camera: invalid state")
)

// CameraState is the mutable orbit state of the camera.
// Distance is always > 0. Angles are unbounded and never wrapped.
type CameraState struct {
	// Azimuth is the horizontal orbit angle in radians.
	Azimuth float32 `toml:"azimuth" yaml:"azimuth"`
	// Elevation is the vertical orbit angle in radians.
	Elevation float32 `toml:"elevation" yaml:"elevation"`
	// Distance is the distance from the eye to the pivot.
	Distance float32 `toml:"distance" yaml:"distance"`
	// Pivot is the world-space orbit center.
	Pivot [3]float32 `toml:"pivot" yaml:"pivot"`
}

// DefaultState returns the state a new camera starts from.
//
// Returns:
//   - CameraState: azimuth 2.8, elevation 0.4, distance 1.6, pivot at the origin
func DefaultState() CameraState {
	return CameraState{
		Azimuth:   DefaultAzimuth,
		Elevation: DefaultElevation,
		Distance:  DefaultDistance,
	}
}

type cameraImpl struct {
	mu *sync.Mutex

	state CameraState

	minDistance float32
	maxDistance float32
}

// Camera defines the interface for the orbit camera model.
// The camera holds orbit angles, distance and a pivot offset and derives a per-frame
// CameraBasis from them. All methods are safe for concurrent use; ComputeBasis reads
// a single consistent snapshot so every gesture applied before the call is visible to it.
type Camera interface {
	// State returns a copy of the current camera state.
	//
	// Returns:
	//   - CameraState: the current state
	State() CameraState

	// SetState replaces the camera state, e.g. to reset the view.
	// The distance is clamped to the configured bounds.
	//
	// Parameters:
	//   - s: the new state
	//
	// Returns:
	//   - error: ErrInvalidState if the distance is not positive or any field is not finite
	SetState(s CameraState) error

	// Azimuth returns the horizontal orbit angle in radians.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the vertical orbit angle in radians.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// Distance returns the distance from the eye to the pivot.
	//
	// Returns:
	//   - float32: the orbit distance
	Distance() float32

	// Pivot returns the world-space orbit center.
	//
	// Returns:
	//   - x, y, z: pivot coordinates
	Pivot() (x, y, z float32)

	// MinDistance returns the smallest distance Zoom can reach.
	//
	// Returns:
	//   - float32: minimum orbit distance
	MinDistance() float32

	// MaxDistance returns the largest distance Zoom can reach.
	//
	// Returns:
	//   - float32: maximum orbit distance
	MaxDistance() float32

	// Rotate adds the deltas to the orbit angles. No clamping or wrapping is applied,
	// so rotation through the poles behaves like a free gimbal.
	//
	// Parameters:
	//   - deltaAzimuth: azimuth change in radians
	//   - deltaElevation: elevation change in radians
	Rotate(deltaAzimuth, deltaElevation float32)

	// Pan moves the pivot by a screen-space delta projected onto the current right/up axes.
	// The world-space step is scaled by distance*4 / (2*viewportMinDimension).
	//
	// Parameters:
	//   - deltaX, deltaY: screen-space deltas in pixels
	//   - viewportMinDimension: the smaller of the viewport width and height in pixels
	//
	// Returns:
	//   - error: ErrDegenerateViewport if viewportMinDimension <= 0, ErrNonFiniteInput on NaN/Inf
	Pan(deltaX, deltaY, viewportMinDimension float32) error

	// Zoom multiplies the distance by factor, clamped to [MinDistance, MaxDistance].
	//
	// Parameters:
	//   - factor: the multiplicative scale, must be finite and > 0
	//
	// Returns:
	//   - error: ErrInvalidZoomFactor if factor is rejected
	Zoom(factor float32) error

	// ComputeBasis derives the eye origin, orientation vectors and viewport scale for one frame.
	// It has no side effects.
	//
	// Parameters:
	//   - width, height: viewport size in device pixels
	//
	// Returns:
	//   - CameraBasis: the derived basis
	//   - error: ErrDegenerateViewport if either dimension is <= 0
	ComputeBasis(width, height int) (CameraBasis, error)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera starting from DefaultState.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: ErrInvalidState if the options leave the camera with an invalid state or bounds
func NewCamera(options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		state:       DefaultState(),
		minDistance: DefaultMinDistance,
		maxDistance: DefaultMaxDistance,
	}
	for _, option := range options {
		option(c)
	}

	if !(c.minDistance > 0) || !(c.maxDistance >= c.minDistance) || !common.IsFinite(c.maxDistance) {
		return nil, fmt.Errorf("%w: distance bounds [%g, %g]", ErrInvalidState, c.minDistance, c.maxDistance)
	}
	if err := validateState(c.state); err != nil {
		return nil, err
	}
	c.state.Distance = common.Clamp(c.state.Distance, c.minDistance, c.maxDistance)
	return c, nil
}

func (c *cameraImpl) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *cameraImpl) SetState(s CameraState) error {
	if err := validateState(s); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Distance = common.Clamp(s.Distance, c.minDistance, c.maxDistance)
	c.state = s
	return nil
}

func (c *cameraImpl) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Azimuth
}

func (c *cameraImpl) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Elevation
}

func (c *cameraImpl) Distance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Distance
}

func (c *cameraImpl) Pivot() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Pivot[0], c.state.Pivot[1], c.state.Pivot[2]
}

func (c *cameraImpl) MinDistance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minDistance
}

func (c *cameraImpl) MaxDistance() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxDistance
}

func (c *cameraImpl) Rotate(deltaAzimuth, deltaElevation float32) {
	// NaN would poison the angles for the rest of the session.
	if !common.IsFinite(deltaAzimuth, deltaElevation) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Azimuth += deltaAzimuth
	c.state.Elevation += deltaElevation
}

func (c *cameraImpl) Pan(deltaX, deltaY, viewportMinDimension float32) error {
	if !common.IsFinite(deltaX, deltaY, viewportMinDimension) {
		return ErrNonFiniteInput
	}
	if viewportMinDimension <= 0 {
		return fmt.Errorf("%w: pan with minimum dimension %g", ErrDegenerateViewport, viewportMinDimension)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sinA, cosA := math32.Sin(c.state.Azimuth), math32.Cos(c.state.Azimuth)
	sinE, cosE := math32.Sin(c.state.Elevation), math32.Cos(c.state.Elevation)
	l := c.state.Distance * 4 / (2 * viewportMinDimension)

	dx := l * (-deltaX*sinA - deltaY*sinE*cosA)
	dy := l * (deltaY * cosE)
	dz := l * (deltaX*cosA - deltaY*sinE*sinA)

	px, py, pz := c.state.Pivot[0]+dx, c.state.Pivot[1]+dy, c.state.Pivot[2]+dz
	if !common.IsFinite(px, py, pz) {
		return ErrNonFiniteInput
	}
	c.state.Pivot = [3]float32{px, py, pz}
	return nil
}

func (c *cameraImpl) Zoom(factor float32) error {
	if !common.IsFinite(factor) || factor <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidZoomFactor, factor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Distance = common.Clamp(c.state.Distance*factor, c.minDistance, c.maxDistance)
	return nil
}

func (c *cameraImpl) ComputeBasis(width, height int) (CameraBasis, error) {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()
	return BasisFromState(s, width, height)
}

// BasisFromState derives a CameraBasis from an explicit state snapshot.
// Right, up and forward are unit vectors with right x up = -forward.
//
// Parameters:
//   - s: the camera state
//   - width, height: viewport size in device pixels
//
// Returns:
//   - CameraBasis: the derived basis
//   - error: ErrDegenerateViewport if either dimension is <= 0
func BasisFromState(s CameraState, width, height int) (CameraBasis, error) {
	if width <= 0 || height <= 0 {
		return CameraBasis{}, fmt.Errorf("%w: %dx%d", ErrDegenerateViewport, width, height)
	}

	scale := ViewportScale(width, height)

	sinA, cosA := math32.Sin(s.Azimuth), math32.Cos(s.Azimuth)
	sinE, cosE := math32.Sin(s.Elevation), math32.Cos(s.Elevation)
	pivot := mgl32.Vec3(s.Pivot)

	return CameraBasis{
		ScaleX:   scale,
		ScaleY:   scale,
		Distance: s.Distance,
		Origin: mgl32.Vec3{
			s.Distance * cosA * cosE,
			s.Distance * sinE,
			s.Distance * sinA * cosE,
		}.Add(pivot),
		Right:   mgl32.Vec3{sinA, 0, -cosA},
		Up:      mgl32.Vec3{-sinE * cosA, cosE, -sinE * sinA},
		Forward: mgl32.Vec3{-cosA * cosE, -sinE, -sinA * cosE},
	}, nil
}

// ViewportScale returns the uniform, aspect-preserving scale 2c/(w+h) where c is the
// smaller viewport dimension. Both axes share it so content never stretches.
// The caller must pass positive dimensions.
//
// Parameters:
//   - width, height: viewport size in device pixels
//
// Returns:
//   - float32: the shared x/y scale
func ViewportScale(width, height int) float32 {
	c := min(width, height)
	return float32(2*c) / float32(width+height)
}

// validateState checks the distance invariant and that every field is finite.
func validateState(s CameraState) error {
	if !common.IsFinite(s.Azimuth, s.Elevation, s.Distance, s.Pivot[0], s.Pivot[1], s.Pivot[2]) {
		return fmt.Errorf("%w: non-finite field", ErrInvalidState)
	}
	if s.Distance <= 0 {
		return fmt.Errorf("%w: distance %g must be > 0", ErrInvalidState, s.Distance)
	}
	return nil
}
