package frame

import (
	"context"
	"fmt"
	"sync"
)

// fence is a one-shot completion signal for a single slot occupant.
type fence struct {
	done chan struct{}
	once sync.Once
}

func newFence() *fence {
	return &fence{done: make(chan struct{})}
}

// signaledFence returns a fence that is already complete, used for never-submitted slots.
func signaledFence() *fence {
	f := newFence()
	f.signal()
	return f
}

// signal marks the fence complete. Safe to call more than once and from any goroutine.
func (f *fence) signal() {
	f.once.Do(func() { close(f.done) })
}

func (f *fence) signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// wait blocks until the fence is signaled or ctx ends.
// With a poller it drives completion callbacks itself, since wgpu only delivers them during a poll.
func (f *fence) wait(ctx context.Context, poller Poller) error {
	for {
		if f.signaled() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrSlotBusy, err)
		}
		if poller == nil {
			select {
			case <-f.done:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrSlotBusy, ctx.Err())
			}
		}
		poller.Poll(true)
	}
}
