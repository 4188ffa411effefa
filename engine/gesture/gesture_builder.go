package gesture

type RecognizerBuilderOption func(*recognizerImpl)

// WithSensitivity sets the radians of rotation per pixel of one-finger or left-button drag.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the rotate sensitivity
func WithSensitivity(sensitivity float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.sensitivity = sensitivity
	}
}

// WithScrollZoomBase sets the zoom factor applied per scroll step.
//
// Parameters:
//   - base: factor per step, > 1
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the scroll zoom base
func WithScrollZoomBase(base float32) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.scrollBase = base
	}
}

// WithViewport sets the initial viewport size used to scale pans.
//
// Parameters:
//   - width, height: viewport size in pixels
//
// Returns:
//   - RecognizerBuilderOption: a function that sets the viewport
func WithViewport(width, height int) RecognizerBuilderOption {
	return func(r *recognizerImpl) {
		r.width = width
		r.height = height
	}
}
