package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/orbitview/common"
	"github.com/Carmen-Shannon/orbitview/engine/camera"
)

const (
	// DefaultSlots covers encode, queued and presenting frames.
	DefaultSlots = 3

	// DefaultVertexCount draws one full-screen triangle.
	DefaultVertexCount uint32 = 3
)

// SlotStorage is GPU-visible memory holding every slot of the ring back to back.
type SlotStorage interface {
	// Size returns the allocated size in bytes.
	Size() int

	// Alignment returns the required byte alignment of slot offsets.
	Alignment() int

	// Write copies data into the storage at offset.
	Write(offset int, data []byte) error
}

// DrawTarget receives the per-frame draw.
type DrawTarget interface {
	// Bind attaches the slot at offset to both the vertex and fragment stage parameter inputs.
	Bind(storage SlotStorage, offset int) error

	// Draw records a single non-indexed, non-instanced primitive draw.
	Draw(vertexCount uint32) error

	// Commit submits the recorded work and presents it.
	// onComplete must be called exactly once after the GPU finished the submitted work.
	// On error the target releases its partial work itself and onComplete may never fire.
	Commit(onComplete func()) error

	// Discard drops work recorded since Bind without submitting it.
	Discard()
}

// Poller drives pending GPU completion callbacks.
type Poller interface {
	Poll(wait bool)
}

// BasisSource produces the camera basis for a viewport. camera.Camera satisfies it.
type BasisSource interface {
	ComputeBasis(width, height int) (camera.CameraBasis, error)
}

// Viewport is the drawable size in device pixels.
type Viewport struct {
	Width  int
	Height int
}

// SlotHandle references the slot written by BeginFrame.
type SlotHandle struct {
	Slot       int
	Offset     int
	FrameIndex uint64
}

// DrawCommand describes the draw issued for one frame.
type DrawCommand struct {
	Slot        int
	Offset      int
	FrameIndex  uint64
	VertexCount uint32
}

// State is the per-frame pipeline state.
type State int

const (
	StateIdle State = iota
	StateSlotWritten
	StateSubmitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSlotWritten:
		return "slot-written"
	case StateSubmitted:
		return "submitted"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats are cumulative pipeline counters.
type Stats struct {
	Produced      uint64
	Skipped       uint64
	FenceWaits    uint64
	FenceWaitTime time.Duration
}

type pipelineImpl struct {
	mu *sync.Mutex

	source  BasisSource
	storage SlotStorage
	poller  Poller

	slots       int
	vertexCount uint32
	fences      []*fence
	record      []byte

	frameIndex uint64
	state      State
	current    SlotHandle
	stats      Stats
	now        func() time.Time
}

// Pipeline defines the interface for the per-frame parameter ring.
// Each frame selects slot frameIndex mod N, waits for the GPU to release it, writes the
// camera record into it and issues one draw that reads it. The frame counter advances
// once per attempted frame, including skipped ones, so the ring never gets stuck.
type Pipeline interface {
	// BeginFrame selects the next slot, waits for its previous occupant to complete, and
	// writes the current camera basis into it.
	// On failure the frame is skipped and the pipeline stays idle; EndFrame must still be called.
	//
	// Parameters:
	//   - ctx: bounds the wait for the slot's fence
	//   - width, height: viewport size in device pixels
	//
	// Returns:
	//   - SlotHandle: the written slot
	//   - error: ErrStorageUnready, ErrSlotBusy, camera.ErrDegenerateViewport or ErrInvalidState
	BeginFrame(ctx context.Context, width, height int) (SlotHandle, error)

	// SubmitDraw binds the written slot to the target, draws and commits the frame.
	// The slot's fence is released when the GPU reports completion, or immediately if
	// submission fails.
	//
	// Parameters:
	//   - handle: the handle returned by BeginFrame for this frame
	//   - target: the draw target
	//
	// Returns:
	//   - error: ErrTargetUnready on target failure, ErrInvalidState if called out of order
	SubmitDraw(handle SlotHandle, target DrawTarget) error

	// EndFrame advances the frame counter and returns the pipeline to idle.
	// Called exactly once per attempted frame.
	EndFrame()

	// ProduceFrame runs BeginFrame, SubmitDraw and EndFrame for one frame.
	//
	// Parameters:
	//   - ctx: bounds the wait for the slot's fence
	//   - viewport: the drawable size
	//   - target: the draw target
	//
	// Returns:
	//   - DrawCommand: the issued draw, zero if nothing was drawn
	//   - bool: true if a draw was submitted
	//   - error: the reason the frame was skipped, classify with IsRecoverable
	ProduceFrame(ctx context.Context, viewport Viewport, target DrawTarget) (DrawCommand, bool, error)

	// Drain waits until every submitted slot has completed.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ErrSlotBusy if ctx ended first
	Drain(ctx context.Context) error

	// SetStorage replaces the slot storage. Only allowed while idle.
	// Callers should Drain before replacing storage the GPU may still read.
	//
	// Parameters:
	//   - storage: the new storage, nil marks storage unready
	//
	// Returns:
	//   - error: ErrInvalidState if a frame is in progress
	SetStorage(storage SlotStorage) error

	// FrameIndex returns the number of attempted frames.
	FrameIndex() uint64

	// Slots returns the ring depth N.
	Slots() int

	// Stride returns the byte distance between slots for the current storage.
	Stride() int

	// RequiredSize returns the minimum storage size for the current stride.
	RequiredSize() int

	// InFlight returns the number of slots the GPU has not released yet.
	InFlight() int

	// State returns the current frame state.
	State() State

	// Stats returns the cumulative counters.
	Stats() Stats
}

var _ Pipeline = &pipelineImpl{}

// NewPipeline creates a new Pipeline.
//
// Parameters:
//   - options: functional options; WithBasisSource is required
//
// Returns:
//   - Pipeline: the newly created pipeline
//   - error: ErrInvalidConfig if the options are unusable
func NewPipeline(options ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipelineImpl{
		mu:          &sync.Mutex{},
		slots:       DefaultSlots,
		vertexCount: DefaultVertexCount,
		record:      make([]byte, camera.GPUFrameUniformSize),
		now:         time.Now,
	}
	for _, option := range options {
		option(p)
	}

	if p.source == nil {
		return nil, fmt.Errorf("%w: basis source is required", ErrInvalidConfig)
	}
	if p.slots < 1 {
		return nil, fmt.Errorf("%w: slots must be >= 1, got %d", ErrInvalidConfig, p.slots)
	}
	if p.vertexCount == 0 {
		return nil, fmt.Errorf("%w: vertex count must be > 0", ErrInvalidConfig)
	}

	p.fences = make([]*fence, p.slots)
	for i := range p.fences {
		p.fences[i] = signaledFence()
	}
	return p, nil
}

func (p *pipelineImpl) BeginFrame(ctx context.Context, width, height int) (SlotHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return SlotHandle{}, fmt.Errorf("%w: begin frame in state %s", ErrInvalidState, p.state)
	}

	slot := int(p.frameIndex % uint64(p.slots))
	stride := p.stride()
	if err := p.validateStorage(stride); err != nil {
		return SlotHandle{}, err
	}

	basis, err := p.source.ComputeBasis(width, height)
	if err != nil {
		return SlotHandle{}, fmt.Errorf("frame %d: %w", p.frameIndex, err)
	}

	if err := p.waitFence(ctx, slot); err != nil {
		return SlotHandle{}, err
	}

	uniform := basis.Uniform()
	uniform.MarshalTo(p.record)
	offset := slot * stride
	if err := p.storage.Write(offset, p.record); err != nil {
		return SlotHandle{}, fmt.Errorf("%w: write slot %d: %w", ErrStorageUnready, slot, err)
	}

	p.current = SlotHandle{Slot: slot, Offset: offset, FrameIndex: p.frameIndex}
	p.state = StateSlotWritten
	return p.current, nil
}

func (p *pipelineImpl) SubmitDraw(handle SlotHandle, target DrawTarget) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSlotWritten {
		return fmt.Errorf("%w: submit draw in state %s", ErrInvalidState, p.state)
	}
	if handle != p.current {
		return fmt.Errorf("%w: stale slot handle for frame %d", ErrInvalidState, handle.FrameIndex)
	}
	if target == nil {
		p.state = StateAborted
		return fmt.Errorf("%w: no draw target", ErrTargetUnready)
	}

	f := newFence()
	p.fences[handle.Slot] = f

	if err := target.Bind(p.storage, handle.Offset); err != nil {
		return p.abort(f, target, fmt.Errorf("%w: bind slot %d: %w", ErrTargetUnready, handle.Slot, err))
	}
	if err := target.Draw(p.vertexCount); err != nil {
		return p.abort(f, target, fmt.Errorf("%w: draw: %w", ErrTargetUnready, err))
	}
	if err := target.Commit(f.signal); err != nil {
		// the GPU never saw this slot
		f.signal()
		p.state = StateAborted
		return fmt.Errorf("%w: commit: %w", ErrTargetUnready, err)
	}

	p.state = StateSubmitted
	return nil
}

func (p *pipelineImpl) EndFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateSubmitted {
		p.stats.Produced++
	} else {
		p.stats.Skipped++
	}
	p.frameIndex++
	p.state = StateIdle
	p.current = SlotHandle{}
}

func (p *pipelineImpl) ProduceFrame(ctx context.Context, viewport Viewport, target DrawTarget) (DrawCommand, bool, error) {
	handle, err := p.BeginFrame(ctx, viewport.Width, viewport.Height)
	if errors.Is(err, ErrInvalidState) {
		// another frame owns the pipeline; leave its counter alone
		return DrawCommand{}, false, err
	}
	defer p.EndFrame()
	if err != nil {
		return DrawCommand{}, false, err
	}

	if err := p.SubmitDraw(handle, target); err != nil {
		return DrawCommand{}, false, err
	}
	return DrawCommand{
		Slot:        handle.Slot,
		Offset:      handle.Offset,
		FrameIndex:  handle.FrameIndex,
		VertexCount: p.vertexCount,
	}, true, nil
}

func (p *pipelineImpl) Drain(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for slot := range p.fences {
		if err := p.waitFence(ctx, slot); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipelineImpl) SetStorage(storage SlotStorage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return fmt.Errorf("%w: set storage in state %s", ErrInvalidState, p.state)
	}
	p.storage = storage
	return nil
}

func (p *pipelineImpl) FrameIndex() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameIndex
}

func (p *pipelineImpl) Slots() int {
	return p.slots
}

func (p *pipelineImpl) Stride() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stride()
}

func (p *pipelineImpl) RequiredSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots * p.stride()
}

func (p *pipelineImpl) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, f := range p.fences {
		if !f.signaled() {
			n++
		}
	}
	return n
}

func (p *pipelineImpl) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *pipelineImpl) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// stride returns the record size rounded up to the storage alignment.
// Caller must hold p.mu.
func (p *pipelineImpl) stride() int {
	if p.storage == nil {
		return camera.GPUFrameUniformSize
	}
	return common.AlignUp(camera.GPUFrameUniformSize, p.storage.Alignment())
}

// validateStorage checks the storage holds every slot. Caller must hold p.mu.
func (p *pipelineImpl) validateStorage(stride int) error {
	if p.storage == nil {
		return fmt.Errorf("%w: no storage bound", ErrStorageUnready)
	}
	if need := p.slots * stride; p.storage.Size() < need {
		return fmt.Errorf("%w: storage holds %d bytes, %d slots need %d", ErrStorageUnready, p.storage.Size(), p.slots, need)
	}
	return nil
}

// waitFence blocks until the slot's previous occupant completed. Caller must hold p.mu.
func (p *pipelineImpl) waitFence(ctx context.Context, slot int) error {
	f := p.fences[slot]
	if f.signaled() {
		return nil
	}
	start := p.now()
	err := f.wait(ctx, p.poller)
	p.stats.FenceWaits++
	p.stats.FenceWaitTime += p.now().Sub(start)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	return nil
}

// abort drops a frame whose draw could not be recorded. Caller must hold p.mu.
func (p *pipelineImpl) abort(f *fence, target DrawTarget, err error) error {
	target.Discard()
	f.signal()
	p.state = StateAborted
	return err
}
