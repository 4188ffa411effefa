package frame

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	size      int
	alignment int
	data      []byte
	writes    []int
	writeErr  error
}

func newFakeStorage(size, alignment int) *fakeStorage {
	return &fakeStorage{size: size, alignment: alignment, data: make([]byte, size)}
}

func (s *fakeStorage) Size() int      { return s.size }
func (s *fakeStorage) Alignment() int { return s.alignment }

func (s *fakeStorage) Write(offset int, data []byte) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if offset < 0 || offset+len(data) > s.size {
		return errors.New("write out of bounds")
	}
	copy(s.data[offset:], data)
	s.writes = append(s.writes, offset)
	return nil
}

type fakeTarget struct {
	binds    []int
	draws    []uint32
	commits  int
	discards int
	pending  []func()

	bindErr   error
	drawErr   error
	commitErr error
}

func (t *fakeTarget) Bind(_ SlotStorage, offset int) error {
	if t.bindErr != nil {
		return t.bindErr
	}
	t.binds = append(t.binds, offset)
	return nil
}

func (t *fakeTarget) Draw(vertexCount uint32) error {
	if t.drawErr != nil {
		return t.drawErr
	}
	t.draws = append(t.draws, vertexCount)
	return nil
}

func (t *fakeTarget) Commit(onComplete func()) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.commits++
	t.pending = append(t.pending, onComplete)
	return nil
}

func (t *fakeTarget) Discard() {
	t.discards++
}

// complete fires every pending completion callback, like the GPU finishing its queue.
func (t *fakeTarget) complete() {
	for _, cb := range t.pending {
		cb()
	}
	t.pending = nil
}

type fakePoller struct {
	target *fakeTarget
	polls  int
}

func (p *fakePoller) Poll(bool) {
	p.polls++
	p.target.complete()
}

func newTestPipeline(t *testing.T, options ...PipelineBuilderOption) Pipeline {
	t.Helper()
	cam, err := camera.NewCamera()
	require.NoError(t, err)
	p, err := NewPipeline(append([]PipelineBuilderOption{WithBasisSource(cam)}, options...)...)
	require.NoError(t, err)
	return p
}

func TestNewPipelineRejectsInvalidConfig(t *testing.T) {
	_, err := NewPipeline()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cam, err := camera.NewCamera()
	require.NoError(t, err)
	_, err = NewPipeline(WithBasisSource(cam), WithSlots(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewPipeline(WithBasisSource(cam), WithVertexCount(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRingReusesSlotsInOrder(t *testing.T) {
	storage := newFakeStorage(3*256, 256)
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage), WithPoller(&fakePoller{target: target}))

	assert.Equal(t, 3, p.Slots())
	assert.Equal(t, 256, p.Stride())

	wantSlots := []int{0, 1, 2, 0, 1, 2}
	for frame, want := range wantSlots {
		cmd, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
		require.NoError(t, err)
		require.True(t, drawn)
		assert.Equal(t, want, cmd.Slot, "frame %d", frame)
		assert.Equal(t, want*256, cmd.Offset)
		assert.Equal(t, uint64(frame), cmd.FrameIndex)
		assert.Equal(t, DefaultVertexCount, cmd.VertexCount)
	}

	assert.Equal(t, uint64(6), p.FrameIndex())
	assert.Equal(t, []int{0, 256, 512, 0, 256, 512}, storage.writes)
	assert.Equal(t, storage.writes, target.binds)
	assert.Equal(t, []uint32{3, 3, 3, 3, 3, 3}, target.draws)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, uint64(6), p.Stats().Produced)
}

func TestSlotWriteWaitsForPreviousOccupant(t *testing.T) {
	storage := newFakeStorage(3*256, 256)
	target := &fakeTarget{}
	poller := &fakePoller{target: target}
	p := newTestPipeline(t, WithStorage(storage), WithPoller(poller))

	for range 3 {
		_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 64, Height: 64}, target)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, p.InFlight())
	assert.Zero(t, poller.polls)

	// slot 0 is still owned by the GPU, so frame 3 must poll before writing it.
	_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 64, Height: 64}, target)
	require.NoError(t, err)
	assert.Equal(t, 1, poller.polls)
	assert.Equal(t, uint64(1), p.Stats().FenceWaits)
	assert.Equal(t, 1, p.InFlight())
}

func TestBusySlotHonoursContext(t *testing.T) {
	storage := newFakeStorage(256, 256)
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage), WithSlots(1))

	_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
	require.NoError(t, err)
	require.True(t, drawn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, drawn, err = p.ProduceFrame(ctx, Viewport{Width: 10, Height: 10}, target)
	assert.False(t, drawn)
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRecoverable(err))
	assert.Len(t, storage.writes, 1, "busy slot must not be overwritten")
	assert.Equal(t, uint64(2), p.FrameIndex())

	// once the GPU completes, the slot is writable again without a poller.
	target.complete()
	_, drawn, err = p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
	require.NoError(t, err)
	assert.True(t, drawn)
}

func TestFenceSignaledFromAnotherGoroutine(t *testing.T) {
	storage := newFakeStorage(256, 256)
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage), WithSlots(1))

	_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
	require.NoError(t, err)
	pending := target.pending
	target.pending = nil

	go func() {
		time.Sleep(5 * time.Millisecond)
		for _, cb := range pending {
			cb()
		}
	}()

	_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
	require.NoError(t, err)
	assert.True(t, drawn)
}

func TestUnreadyStorageSkipsFrame(t *testing.T) {
	cases := map[string]SlotStorage{
		"missing":   nil,
		"undersize": newFakeStorage(2*256, 256),
	}
	for name, storage := range cases {
		t.Run(name, func(t *testing.T) {
			target := &fakeTarget{}
			var options []PipelineBuilderOption
			if storage != nil {
				options = append(options, WithStorage(storage))
			}
			p := newTestPipeline(t, options...)

			for frame := range 4 {
				_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
				assert.False(t, drawn)
				assert.ErrorIs(t, err, ErrStorageUnready)
				assert.True(t, IsRecoverable(err))
				assert.Equal(t, uint64(frame+1), p.FrameIndex())
				assert.Equal(t, StateIdle, p.State())
			}
			assert.Empty(t, target.binds)
			assert.Zero(t, target.commits)
			assert.Equal(t, uint64(4), p.Stats().Skipped)
			if fs, ok := storage.(*fakeStorage); ok {
				assert.Empty(t, fs.writes)
			}
		})
	}
}

func TestStorageBecomesReady(t *testing.T) {
	target := &fakeTarget{}
	p := newTestPipeline(t, WithPoller(&fakePoller{target: target}))

	_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
	assert.False(t, drawn)
	assert.ErrorIs(t, err, ErrStorageUnready)

	require.NoError(t, p.SetStorage(newFakeStorage(3*256, 256)))
	cmd, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, uint64(1), cmd.FrameIndex)
	assert.Equal(t, 1, cmd.Slot)
}

func TestStorageWriteFailureSkipsFrame(t *testing.T) {
	storage := newFakeStorage(3*256, 256)
	storage.writeErr = errors.New("device lost")
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage))

	_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
	assert.False(t, drawn)
	assert.ErrorIs(t, err, ErrStorageUnready)
	assert.Empty(t, target.binds)
	assert.Equal(t, uint64(1), p.FrameIndex())
}

func TestDegenerateViewportSkipsFrame(t *testing.T) {
	storage := newFakeStorage(3*256, 256)
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage))

	for _, vp := range []Viewport{{0, 0}, {0, 100}, {100, 0}} {
		_, drawn, err := p.ProduceFrame(context.Background(), vp, target)
		assert.False(t, drawn)
		assert.ErrorIs(t, err, camera.ErrDegenerateViewport)
		assert.True(t, IsRecoverable(err))
	}
	assert.Empty(t, storage.writes)
	assert.Equal(t, uint64(3), p.FrameIndex())
}

func TestStride(t *testing.T) {
	cases := []struct {
		alignment int
		want      int
	}{
		{0, 80},
		{1, 80},
		{16, 80},
		{64, 128},
		{256, 256},
	}
	for _, tc := range cases {
		p := newTestPipeline(t, WithStorage(newFakeStorage(4096, tc.alignment)))
		assert.Equal(t, tc.want, p.Stride(), "alignment %d", tc.alignment)
		assert.Equal(t, 3*tc.want, p.RequiredSize())
	}
	assert.Equal(t, camera.GPUFrameUniformSize, newTestPipeline(t).Stride())
}

func TestWrittenRecordMatchesCamera(t *testing.T) {
	cam, err := camera.NewCamera(camera.WithPivot(1, 2, 3))
	require.NoError(t, err)
	storage := newFakeStorage(3*80, 0)
	p, err := NewPipeline(WithBasisSource(cam), WithStorage(storage))
	require.NoError(t, err)

	handle, err := p.BeginFrame(context.Background(), 200, 100)
	require.NoError(t, err)
	assert.Equal(t, StateSlotWritten, p.State())

	basis, err := cam.ComputeBasis(200, 100)
	require.NoError(t, err)
	uniform := basis.Uniform()
	assert.Equal(t, uniform.Marshal(), storage.data[handle.Offset:handle.Offset+80])
	p.EndFrame()
}

func TestGestureBetweenFramesIsVisible(t *testing.T) {
	cam, err := camera.NewCamera()
	require.NoError(t, err)
	storage := newFakeStorage(3*80, 0)
	p, err := NewPipeline(WithBasisSource(cam), WithStorage(storage))
	require.NoError(t, err)

	cam.Rotate(0.5, -0.25)
	require.NoError(t, cam.Zoom(2))

	handle, err := p.BeginFrame(context.Background(), 300, 300)
	require.NoError(t, err)
	basis, err := camera.BasisFromState(cam.State(), 300, 300)
	require.NoError(t, err)
	uniform := basis.Uniform()
	assert.Equal(t, uniform.Marshal(), storage.data[handle.Offset:handle.Offset+80])
	p.EndFrame()
}

func TestOutOfOrderCalls(t *testing.T) {
	storage := newFakeStorage(3*256, 256)
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(storage))

	err := p.SubmitDraw(SlotHandle{}, target)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, IsRecoverable(err))

	handle, err := p.BeginFrame(context.Background(), 100, 100)
	require.NoError(t, err)

	_, err = p.BeginFrame(context.Background(), 100, 100)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, _, err = p.ProduceFrame(context.Background(), Viewport{Width: 100, Height: 100}, target)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, uint64(0), p.FrameIndex(), "rejected frames must not advance another frame's counter")
	assert.ErrorIs(t, p.SetStorage(nil), ErrInvalidState)

	stale := handle
	stale.FrameIndex++
	assert.ErrorIs(t, p.SubmitDraw(stale, target), ErrInvalidState)

	require.NoError(t, p.SubmitDraw(handle, target))
	assert.Equal(t, StateSubmitted, p.State())
	assert.ErrorIs(t, p.SubmitDraw(handle, target), ErrInvalidState)

	p.EndFrame()
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, uint64(1), p.FrameIndex())
}

func TestTargetFailuresReleaseSlot(t *testing.T) {
	cases := map[string]struct {
		target      *fakeTarget
		wantDiscard int
	}{
		"bind":   {&fakeTarget{bindErr: errors.New("no surface texture")}, 1},
		"draw":   {&fakeTarget{drawErr: errors.New("encoder lost")}, 1},
		"commit": {&fakeTarget{commitErr: errors.New("present failed")}, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := newTestPipeline(t, WithStorage(newFakeStorage(256, 256)), WithSlots(1))

			_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, tc.target)
			assert.False(t, drawn)
			assert.ErrorIs(t, err, ErrTargetUnready)
			assert.True(t, IsRecoverable(err))
			assert.Equal(t, tc.wantDiscard, tc.target.discards)
			assert.Zero(t, p.InFlight())
			assert.Equal(t, StateIdle, p.State())

			// the single slot is immediately reusable
			ok := &fakeTarget{}
			_, drawn, err = p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, ok)
			require.NoError(t, err)
			assert.True(t, drawn)
		})
	}
}

func TestNilTargetAbortsFrame(t *testing.T) {
	p := newTestPipeline(t, WithStorage(newFakeStorage(3*256, 256)))
	_, drawn, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, nil)
	assert.False(t, drawn)
	assert.ErrorIs(t, err, ErrTargetUnready)
	assert.Equal(t, uint64(1), p.FrameIndex())
	assert.Equal(t, uint64(1), p.Stats().Skipped)
}

func TestDrain(t *testing.T) {
	target := &fakeTarget{}
	poller := &fakePoller{target: target}
	p := newTestPipeline(t, WithStorage(newFakeStorage(3*256, 256)), WithPoller(poller))

	for range 2 {
		_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.InFlight())
	require.NoError(t, p.Drain(context.Background()))
	assert.Zero(t, p.InFlight())
}

func TestDrainHonoursContext(t *testing.T) {
	target := &fakeTarget{}
	p := newTestPipeline(t, WithStorage(newFakeStorage(3*256, 256)))
	_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Drain(ctx), ErrSlotBusy)
}

func TestFenceWaitTimeUsesClock(t *testing.T) {
	target := &fakeTarget{}
	tick := time.Unix(0, 0)
	clock := func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	p := newTestPipeline(t, WithStorage(newFakeStorage(256, 256)), WithSlots(1), WithPoller(&fakePoller{target: target}), WithClock(clock))

	for range 3 {
		_, _, err := p.ProduceFrame(context.Background(), Viewport{Width: 10, Height: 10}, target)
		require.NoError(t, err)
	}
	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.FenceWaits)
	assert.Equal(t, 2*time.Millisecond, stats.FenceWaitTime)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "slot-written", StateSlotWritten.String())
	assert.Equal(t, "submitted", StateSubmitted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "state(9)", State(9).String())
}
