package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/orbitview/engine/frame"
	"github.com/Carmen-Shannon/orbitview/engine/renderer/bind_group_provider"
)

// uniformRing is the GPU uniform buffer behind the frame pipeline's slots.
type uniformRing struct {
	provider  bind_group_provider.BindGroupProvider
	backend   RendererBackend
	alignment int
}

var _ frame.SlotStorage = &uniformRing{}

func newUniformRing(provider bind_group_provider.BindGroupProvider, backend RendererBackend, alignment int) *uniformRing {
	return &uniformRing{
		provider:  provider,
		backend:   backend,
		alignment: alignment,
	}
}

// Size returns the buffer size, 0 once released.
func (u *uniformRing) Size() int {
	return int(u.provider.BufferSize(0))
}

// Alignment returns the device's dynamic uniform offset alignment.
func (u *uniformRing) Alignment() int {
	return u.alignment
}

// Write queues data for upload at offset.
func (u *uniformRing) Write(offset int, data []byte) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %d", offset)
	}
	return u.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: u.provider, Binding: 0, Offset: uint64(offset), Data: data},
	})
}

func (u *uniformRing) release() {
	u.backend.ReleaseUniformRing(u.provider)
}
