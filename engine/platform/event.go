package platform

import (
	"sync/atomic"
)

// Event is a wait/signal primitive in the spirit of an auto-reset OS event.
// Set wakes exactly one pending (or future) Wait; repeated Sets coalesce
// while no Wait has consumed the signal.
type Event struct {
	signal    chan struct{}
	destroyed atomic.Bool
}

func NewEvent() (*Event, error) {
	return &Event{
		signal: make(chan struct{}, 1),
	}, nil
}

// Set signals the event. Never blocks.
func (e *Event) Set() {
	if e.destroyed.Load() {
		return
	}
	select {
	case e.signal <- struct{}{}:
	default:
		// A signal is already pending; coalesce.
	}
}

// Wait blocks until the event is set or destroyed.
func (e *Event) Wait() {
	<-e.signal
}

// Destroy releases the event. Any Wait in progress returns; further Sets
// are ignored. Must only be called once and only after all waiters that
// rely on the signal have been joined.
func (e *Event) Destroy() {
	if e.destroyed.CompareAndSwap(false, true) {
		close(e.signal)
	}
}
