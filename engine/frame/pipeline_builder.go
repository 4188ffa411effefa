package frame

import "time"

type PipelineBuilderOption func(*pipelineImpl)

// WithBasisSource sets where the pipeline reads the per-frame camera basis from.
//
// Parameters:
//   - source: the basis source, usually a camera.Camera
//
// Returns:
//   - PipelineBuilderOption: a function that sets the basis source
func WithBasisSource(source BasisSource) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.source = source
	}
}

// WithStorage sets the GPU-visible slot storage.
//
// Parameters:
//   - storage: storage sized for at least Slots() * Stride() bytes
//
// Returns:
//   - PipelineBuilderOption: a function that sets the slot storage
func WithStorage(storage SlotStorage) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.storage = storage
	}
}

// WithPoller sets the poller used to drive completion callbacks while waiting on a slot.
//
// Parameters:
//   - poller: the poller, usually the renderer
//
// Returns:
//   - PipelineBuilderOption: a function that sets the poller
func WithPoller(poller Poller) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.poller = poller
	}
}

// WithSlots sets the ring depth. It must be at least the number of frames the GPU may have in flight.
//
// Parameters:
//   - slots: number of slots, >= 1
//
// Returns:
//   - PipelineBuilderOption: a function that sets the ring depth
func WithSlots(slots int) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.slots = slots
	}
}

// WithVertexCount sets the vertex count of the per-frame draw.
//
// Parameters:
//   - count: vertices per draw
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex count
func WithVertexCount(count uint32) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.vertexCount = count
	}
}

// WithClock overrides the clock used for fence wait statistics.
func WithClock(now func() time.Time) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.now = now
	}
}
