package frame

import (
	"errors"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
)

var (
	// ErrStorageUnready is returned when the slot storage is missing, undersized, or rejects a write.
	ErrStorageUnready = errors.New("frame: slot storage unready")

	// ErrSlotBusy is returned when the context ends before the GPU released the slot.
	ErrSlotBusy = errors.New("frame: slot still in flight")

	// ErrTargetUnready is returned when the draw target cannot bind, draw, or commit.
	ErrTargetUnready = errors.New("frame: draw target unready")

	// ErrInvalidState is returned when frame operations are called out of order.
	ErrInvalidState = errors.New("frame: invalid pipeline state")

	// ErrInvalidConfig is returned by NewPipeline for unusable options.
	ErrInvalidConfig = errors.New("frame: invalid pipeline configuration")
)

// IsRecoverable reports whether err only costs the current frame.
// Resource-unready and degenerate-input failures are recoverable; the next frame may succeed.
//
// Parameters:
//   - err: the error returned by a frame operation
//
// Returns:
//   - bool: true if the caller should keep producing frames
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	for _, target := range []error{
		ErrStorageUnready,
		ErrSlotBusy,
		ErrTargetUnready,
		camera.ErrDegenerateViewport,
		camera.ErrNonFiniteInput,
		camera.ErrInvalidZoomFactor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
