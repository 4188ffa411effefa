package camera

type CameraBuilderOption func(*cameraImpl)

// WithAzimuth sets the initial horizontal orbit angle.
//
// Parameters:
//   - azimuth: angle in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's azimuth
func WithAzimuth(azimuth float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.state.Azimuth = azimuth
	}
}

// WithElevation sets the initial vertical orbit angle.
//
// Parameters:
//   - elevation: angle in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's elevation
func WithElevation(elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.state.Elevation = elevation
	}
}

// WithDistance sets the initial distance from the eye to the pivot.
// NewCamera rejects a non-positive distance.
//
// Parameters:
//   - distance: orbit distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's distance
func WithDistance(distance float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.state.Distance = distance
	}
}

// WithPivot sets the initial orbit center.
//
// Parameters:
//   - x, y, z: pivot coordinates
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's pivot
func WithPivot(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.state.Pivot = [3]float32{x, y, z}
	}
}

// WithState replaces the whole initial state.
//
// Parameters:
//   - s: the initial camera state
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's state
func WithState(s CameraState) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.state = s
	}
}

// WithDistanceBounds sets the range Zoom clamps the distance to.
//
// Parameters:
//   - minDistance: smallest reachable distance, must be > 0
//   - maxDistance: largest reachable distance, must be >= minDistance
//
// Returns:
//   - CameraBuilderOption: a function that sets the distance bounds
func WithDistanceBounds(minDistance, maxDistance float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minDistance = minDistance
		c.maxDistance = maxDistance
	}
}
